//go:build unix

package scanner

import (
	"io/fs"
	"os"
	"syscall"
)

// isLinked reports whether the entry is a symlink or carries extra
// hard links.
func isLinked(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 {
		return true
	}
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Nlink > 1
	}
	return false
}
