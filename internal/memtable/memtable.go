// Package memtable implements the capacity-bounded wrapper over the
// skip list that absorbs writes before they are flushed to long-term
// storage. Grounded on mrsladoje-HundDB's lsm/memtable/memtable.go (a
// thin struct wrapping one ordered index with a capacity and a flush
// hook), simplified to the single byte-string SkipList backend the spec
// requires instead of the teacher's BTree/HashMap/SkipList selector.
package memtable

import (
	"log"
	"os"

	"github.com/duskdb/duskdb/internal/skiplist"
)

// FlushFunc is the collaborator slot that consumes a frozen snapshot once
// the memtable has reached its capacity. Implementations must not retain
// or mutate snapshot concurrently with the call returning; a conformant
// implementation consumes it fully before returning (e.g. by writing it to
// a sorted on-disk table). A nil FlushFunc is invalid per spec.md §4.5:
// the collaborator is required, even if only a no-op.
type FlushFunc func(snapshot *skiplist.SkipList)

// Memtable is a thin, capacity-bounded wrapper over a skiplist.SkipList.
// When an insert would push the live list past maxSize entries, the
// current list is frozen and handed to the FlushFunc collaborator, a
// fresh empty list replaces it, and — per spec.md §4.5/§9 — the pair that
// triggered the freeze is NOT inserted into either list.
type Memtable struct {
	list      *skiplist.SkipList
	maxSize   int
	flushFunc FlushFunc
	log       *log.Logger
}

// New constructs an empty Memtable bounded at maxSize entries. flushFunc
// is the required freeze collaborator; panic-on-call stubs are acceptable
// per spec.md §4.5 but flushFunc itself must not be nil.
func New(maxSize int, flushFunc FlushFunc) *Memtable {
	if flushFunc == nil {
		panic("memtable: flushFunc collaborator must not be nil")
	}
	return &Memtable{
		list:      skiplist.New(),
		maxSize:   maxSize,
		flushFunc: flushFunc,
		log:       log.New(os.Stderr, "[memtable] ", log.LstdFlags),
	}
}

// Insert stores key/value, or triggers a freeze-and-handoff if the
// memtable is already at capacity. On a freeze, Insert returns nil without
// adding key/value to the (now fresh) live list — callers that issued the
// triggering write see it succeed at the WAL layer but must re-read to
// observe it absent from the memtable, matching the spec's literal freeze
// semantics (§8 Scenario F, §9 Open Question).
func (m *Memtable) Insert(key, value []byte) error {
	if m.list.Count() >= m.maxSize {
		m.freeze()
		return nil
	}

	// Propagated as-is, like Get/Remove: ErrAlreadyExists is an expected
	// outcome callers match against directly (spec.md §7), not an internal
	// failure that needs wrapping context.
	return m.list.Insert(key, value)
}

// freeze detaches the current list as a snapshot, installs a fresh empty
// list, and hands the snapshot to the flush collaborator. The snapshot
// must not be mutated by the caller after this returns; Memtable itself
// never touches it again.
func (m *Memtable) freeze() {
	snapshot := m.list
	m.list = skiplist.New()
	m.log.Printf("freezing memtable at %d entries, handing off to flush collaborator", snapshot.Count())
	m.flushFunc(snapshot)
}

// Get returns the stored value for key, or skiplist.ErrNotFound.
func (m *Memtable) Get(key []byte) ([]byte, error) {
	return m.list.Find(key)
}

// Remove deletes key, or returns skiplist.ErrNotFound.
func (m *Memtable) Remove(key []byte) error {
	return m.list.Remove(key)
}

// Size returns the number of entries in the live (not yet frozen) list.
func (m *Memtable) Size() int {
	return m.list.Count()
}

// MaxSize returns the configured capacity bound.
func (m *Memtable) MaxSize() int {
	return m.maxSize
}
