// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ModulePattern selects the immediate children of a module directory.
const ModulePattern = "*"

type (
	// Entry is one filesystem entry returned by a Lister.
	Entry struct {
		// Name is the entry's base name.
		Name string
		// Path is the absolute path of the entry.
		Path string
		// IsDir reports whether the entry (after following symlinks) is a directory.
		IsDir bool
	}

	// Lister enumerates entries of dir matching pattern. Implementations must
	// return a stable order for an unchanged directory.
	Lister interface {
		ListEntries(dir, pattern string) ([]Entry, error)
	}

	// GlobLister lists entries with doublestar globbing over the OS filesystem.
	// Hidden entries (leading dot) are skipped and results are in lexical order.
	GlobLister struct{}
)

// ListEntries implements Lister. Unreadable directories and broken symlinks
// are reported as errors rather than skipped.
func (GlobLister) ListEntries(dir, pattern string) ([]Entry, error) {
	var entries []Entry
	err := doublestar.GlobWalk(os.DirFS(dir), pattern, func(path string, d fs.DirEntry) error {
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		full := filepath.Join(dir, filepath.FromSlash(path))
		info, err := os.Stat(full)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: d.Name(), Path: full, IsDir: info.IsDir()})
		return nil
	}, doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	return entries, nil
}
