// Package skiplist implements an ordered, in-memory byte-string map backed
// by a probabilistic skip list (Pugh, 1990). It is the index underneath
// the memtable: every key and value it stores is an owned copy, so callers
// are free to reuse or mutate the slices they pass in.
package skiplist

import (
	"bytes"
	"errors"
	"math/rand"
	"time"
)

const (
	// MaxLevels bounds how tall a node's forward-pointer tower can grow.
	MaxLevels = 32
	// probability is the per-level promotion chance used by randomLevel.
	probability = 0.5
)

var (
	// ErrNotFound is returned by Find and Remove when the key is absent.
	ErrNotFound = errors.New("skiplist: key not found")
	// ErrAlreadyExists is returned by Insert when the key is already present.
	// Insert never upserts: the stored value is left untouched.
	ErrAlreadyExists = errors.New("skiplist: key already exists")
)

// node owns its key and value. The head sentinel's key/value are never
// read and always stay nil.
type node struct {
	key     []byte
	value   []byte
	forward []*node // forward[i] is this node's successor at level i
}

// SkipList is an ordered map from byte-string keys to byte-string values.
// The zero value is not usable; construct one with New or NewSeeded.
type SkipList struct {
	head  *node
	level int // highest level index currently populated by any non-head node
	size  int
	rnd   *rand.Rand
}

// New returns an empty SkipList seeded from the wall clock.
func New() *SkipList {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns an empty SkipList with a deterministic PRNG seed, for
// reproducible tests.
func NewSeeded(seed int64) *SkipList {
	return &SkipList{
		head:  &node{forward: make([]*node, MaxLevels)},
		level: 0,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// randomLevel draws a node height via repeated coin flips, capped so a
// node never participates above MaxLevels-1.
func (s *SkipList) randomLevel() int {
	level := 0
	for s.rnd.Float64() < probability && level < MaxLevels-1 {
		level++
	}
	return level
}

// search descends from the top populated level to level 0, recording in
// update the last node visited at each level (the insertion predecessor),
// and returns the level-0 successor of update[0] — the candidate match.
func (s *SkipList) search(key []byte) (update [MaxLevels]*node, candidate *node) {
	cur := s.head
	for i := s.level; i >= 0; i-- {
		for cur.forward[i] != nil && bytes.Compare(cur.forward[i].key, key) < 0 {
			cur = cur.forward[i]
		}
		update[i] = cur
	}
	return update, cur.forward[0]
}

// Find returns a borrowed view of the stored value for key, or ErrNotFound.
// The returned slice must not be mutated by the caller.
func (s *SkipList) Find(key []byte) ([]byte, error) {
	_, candidate := s.search(key)
	if candidate != nil && bytes.Equal(candidate.key, key) {
		return candidate.value, nil
	}
	return nil, ErrNotFound
}

// Insert adds key/value to the list, taking independent copies of both.
// It returns ErrAlreadyExists without mutating anything if key is already
// present — this is not an upsert, and callers in the memtable layer rely
// on that to distinguish a fresh write from a duplicate.
func (s *SkipList) Insert(key, value []byte) error {
	update, candidate := s.search(key)
	if candidate != nil && bytes.Equal(candidate.key, key) {
		return ErrAlreadyExists
	}

	newLevel := s.randomLevel()
	if newLevel > s.level {
		for i := s.level + 1; i <= newLevel; i++ {
			update[i] = s.head
		}
		s.level = newLevel
	}

	n := &node{
		key:     append([]byte(nil), key...),
		value:   append([]byte(nil), value...),
		forward: make([]*node, newLevel+1),
	}
	for i := 0; i <= newLevel; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}
	s.size++
	return nil
}

// Remove deletes key from the list, or returns ErrNotFound. Every level at
// which the victim participates is unlinked — unlike a naive port of a
// single reused loop variable, each level j is checked against its own
// update[j], so upper-level forward pointers are never silently left
// dangling.
func (s *SkipList) Remove(key []byte) error {
	update, candidate := s.search(key)
	if candidate == nil || !bytes.Equal(candidate.key, key) {
		return ErrNotFound
	}

	for j := 0; j <= s.level; j++ {
		if update[j].forward[j] == candidate {
			update[j].forward[j] = candidate.forward[j]
		}
	}

	for s.level > 0 && s.head.forward[s.level] == nil {
		s.level--
	}

	s.size--
	return nil
}

// Count returns the number of live keys.
func (s *SkipList) Count() int {
	return s.size
}

// Clone returns a new, independent SkipList holding the same key/value
// pairs as fresh copies. Mutating the clone never affects the receiver.
func (s *SkipList) Clone() *SkipList {
	clone := NewSeeded(s.rnd.Int63())
	for cur := s.head.forward[0]; cur != nil; cur = cur.forward[0] {
		// Keys are visited in strictly increasing order and are already
		// unique, so this insert can never return ErrAlreadyExists.
		if err := clone.Insert(cur.key, cur.value); err != nil {
			panic("skiplist: clone encountered a duplicate key: " + err.Error())
		}
	}
	return clone
}

// Keys returns every live key in ascending order. Intended for tests and
// for the memtable's frozen-snapshot handoff, not for hot paths.
func (s *SkipList) Keys() [][]byte {
	keys := make([][]byte, 0, s.size)
	for cur := s.head.forward[0]; cur != nil; cur = cur.forward[0] {
		keys = append(keys, cur.key)
	}
	return keys
}
