// Package pathutil specifies the generic filesystem path helpers the spec
// names as an external collaborator by interface only (spec.md §1): the
// Engine depends on a Resolver to create/open its root directory, honoring
// both absolute and relative paths (spec.md §4.6), without that directory
// logic carrying any WAL/memtable semantics of its own.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolver creates or opens a directory, accepting both absolute and
// relative paths.
type Resolver interface {
	// EnsureDir makes path (and any missing parents) if it does not exist,
	// and returns its absolute form. If path already exists as a
	// directory, EnsureDir is a no-op beyond resolving it.
	EnsureDir(path string) (string, error)
}

// osResolver is the single stdlib-backed implementation the spec calls for.
type osResolver struct{}

// NewOSResolver returns the standard os/filepath-backed Resolver.
func NewOSResolver() Resolver {
	return osResolver{}
}

func (osResolver) EnsureDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("pathutil: resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("pathutil: %s exists and is not a directory", abs)
		}
		return abs, nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(abs, 0755); err != nil {
			return "", fmt.Errorf("pathutil: mkdir %s: %w", abs, err)
		}
		return abs, nil
	default:
		return "", fmt.Errorf("pathutil: stat %s: %w", abs, err)
	}
}
