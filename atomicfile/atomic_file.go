package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/eightycats/litterbox/u"
)

// DefaultPerm is the permission of a newly created destination file
const DefaultPerm os.FileMode = 0644

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser   = &File{}
	_ io.StringWriter = &File{}
)

// File writes to a temporary file in the same directory as the
// destination and renames it over the destination on Close().
// If anything fails, the temporary file is removed and the
// destination is left untouched.
type File struct {
	dstPath string
	dir     string
	perm    os.FileMode
	tmpFile *os.File
	err     error

	tmpPath string
}

// New creates new File. If dstPath already exists, its permissions
// are kept, otherwise the file gets DefaultPerm.
func New(dstPath string) (*File, error) {
	return NewWithPerm(dstPath, u.FileMode(dstPath, DefaultPerm))
}

// NewWithPerm is like New but the destination gets perm
func NewWithPerm(dstPath string, perm os.FileMode) (*File, error) {
	dir, fName := filepath.Split(dstPath)
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if fName == "" {
		return nil, &os.PathError{Op: "open", Path: dstPath, Err: os.ErrInvalid}
	}

	// the temp name starts with "." so that it's hidden and not
	// picked up by tools scanning for *.properties
	tmpFile, err := os.CreateTemp(dir, "."+fName+".tmp*")
	if err != nil {
		return nil, err
	}

	return &File{
		dstPath: dstPath,
		dir:     dir,
		perm:    perm,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

// WriteFile atomically replaces path with data
func WriteFile(path string, data []byte) error {
	f, err := New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Close()
}

// Path returns destination path
func (f *File) Path() string {
	return f.dstPath
}

// remember the first error and remove the temp file
func (f *File) handleError(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

// Write writes data to a file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.handleError(err)
}

func (f *File) WriteString(s string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.WriteString(s)
	return n, f.handleError(err)
}

func (f *File) Sync() error {
	if f.err != nil {
		return f.err
	}
	return f.handleError(f.tmpFile.Sync())
}

func (f *File) alreadyClosed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed removes the temp file if we didn't Close
// the file yet. Destination file will not be created.
// Use it with defer to ensure cleanup in case of an error or a panic
// that happens before Close.
// RemoveIfNotClosed after Close is a no-op.
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.alreadyClosed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs and closes the temp file and renames it to destination.
// Can be called multiple times, returns the first error.
func (f *File) Close() error {
	if f.alreadyClosed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errChmod := tmpFile.Chmod(f.perm)
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}

	err := errSync
	if err == nil && !u.IsWindows() {
		err = errChmod
	}
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(f.tmpPath, f.dstPath)
		didRename = (err == nil)
		// sync directory after rename, errors are not fatal
		if fdir, _ := os.Open(f.dir); fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}
	f.err = err
	return err
}
