//go:build !unix

package scanner

import "io/fs"

// isLinked reports whether the entry is a symlink. Hard-link counts
// are not available here.
func isLinked(path string, d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}
