package u

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PathExists returns true if path exists
func PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// FileExists returns true if path exists and is a regular file
func FileExists(path string) bool {
	st, err := os.Lstat(path)
	return err == nil && st.Mode().IsRegular()
}

// FileMode returns permissions of an existing file or def if
// the file doesn't exist
func FileMode(path string, def os.FileMode) os.FileMode {
	st, err := os.Stat(path)
	if err != nil {
		return def
	}
	return st.Mode().Perm()
}

// CloseNoError is like io.Closer Close() but ignores an error
// use as: defer CloseNoError(f)
func CloseNoError(f io.Closer) {
	_ = f.Close()
}

// ExpandHome replaces leading "~/" with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
