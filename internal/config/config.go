// Package config defines the engine's tunables and loads them from an
// optional JSON file, falling back to sane defaults. Grounded on
// mrsladoje-HundDB's utils/config/config.go (JSON file with struct-tagged
// fields, defaults materialized when the file or a field is absent), but
// turned from a package-global sync.Once singleton into an explicit value
// threaded through Engine.Open — the spec's single-process,
// no-global-state model (spec.md §5) argues against a hidden global here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Options are the knobs Engine.Open accepts directly, independent of any
// file on disk.
type Options struct {
	RootDir            string `json:"root_dir"`
	MemtableFlushLimit int    `json:"memtable_flush_limit"`
	WALBlockSize       int    `json:"wal_block_size"`
}

// DefaultMemtableFlushLimit and DefaultWALBlockSize mirror spec.md §3/§4.4.
const (
	DefaultMemtableFlushLimit = 1000
	DefaultWALBlockSize       = 32 * 1024
)

// Defaults returns Options for rootDir with every other field set to its
// spec-mandated default.
func Defaults(rootDir string) Options {
	return Options{
		RootDir:            rootDir,
		MemtableFlushLimit: DefaultMemtableFlushLimit,
		WALBlockSize:       DefaultWALBlockSize,
	}
}

// Load reads a JSON config file at path and overlays it onto Defaults for
// rootDir. A missing file is not an error: defaults are returned unchanged,
// matching the teacher's "create default config if absent" behavior minus
// the side effect of writing the file back out (the engine has no business
// materializing config files the caller never asked for).
func Load(path string, rootDir string) (Options, error) {
	opts := Defaults(rootDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if opts.RootDir == "" {
		opts.RootDir = rootDir
	}
	return opts, opts.Validate()
}

// Validate rejects Options that would leave the WAL or Memtable unable to
// enforce their own invariants: a WALBlockSize too small to hold even a
// record header, or a MemtableFlushLimit that can never be insert into.
// Load calls it on options read from a file, and Engine.Open calls it on
// whatever Options it is given, so Options built elsewhere (e.g. the CLI's
// flag parsing) are validated there.
func (o Options) Validate() error {
	if o.MemtableFlushLimit < 1 {
		return fmt.Errorf("config: memtable_flush_limit must be at least 1, got %d", o.MemtableFlushLimit)
	}
	if o.WALBlockSize <= 7 {
		return fmt.Errorf("config: wal_block_size must exceed the 7-byte record header, got %d", o.WALBlockSize)
	}
	return nil
}
