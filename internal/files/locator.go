// Package files discovers source files under a data root.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects JSON Lines sources.
const DefaultPattern = "*.json"

// DiscoveryError reports a root directory that cannot be scanned.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover files in %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Find returns the absolute paths of all files below root, at any depth, whose
// base name matches pattern. Results are sorted lexically.
func Find(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: root, Err: errors.New("not a directory")}
	}

	glob := "**/" + pattern
	if !doublestar.ValidatePattern(glob) {
		return nil, &DiscoveryError{Root: root, Err: fmt.Errorf("invalid pattern %q", pattern)}
	}

	matches, err := doublestar.Glob(os.DirFS(abs), glob,
		doublestar.WithFilesOnly(),
		doublestar.WithFailOnIOErrors(),
	)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(abs, filepath.FromSlash(m)))
	}
	sort.Strings(paths)

	return paths, nil
}
