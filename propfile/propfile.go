// Package propfile reads, edits and writes .properties files on disk,
// keeping comments and the order of properties intact.
package propfile

import (
	"fmt"
	"io"

	"github.com/eightycats/litterbox/atomicfile"
	"github.com/eightycats/litterbox/log"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"
)

// ReadFile reads properties from path. Files ending in .gz, .bz2,
// .zst, .zstd or .br are decompressed.
func ReadFile(path string) (*props.Store, error) {
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer u.CloseNoError(r)
	s, err := props.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteFile atomically replaces path with s, compressed based on
// extension of path. Permissions of an existing file are kept.
func WriteFile(path string, s *props.Store, header string) error {
	c := u.CompressionFromPath(path)
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()

	if err = encode(f, c, s, header); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// encode writes s to w compressed with c. The compressor is closed
// even if writing fails.
func encode(w io.Writer, c u.Compression, s *props.Store, header string) error {
	cw, err := c.NewWriter(w)
	if err != nil {
		return err
	}
	err = s.Save(cw, header)
	if err2 := cw.Close(); err == nil {
		err = err2
	}
	return err
}

// Apply puts values from changes into s. If defaultsOnly is true, only
// keys that are missing from s or whose value is blank are set.
// Returns the number of properties that changed.
func Apply(s *props.Store, changes *props.Store, defaultsOnly bool) int {
	n := 0
	for k, v := range changes.All() {
		if defaultsOnly {
			if s.SetDefault(k, v) {
				n++
			}
			continue
		}
		if prev, existed := s.Put(k, v); !existed || prev != v {
			n++
		}
	}
	return n
}

// Editor changes properties files in place. Comments and positions
// of existing properties are kept, new properties go at the end.
type Editor struct {
	Log *log.Logger
	// written as "#Header" at the top of every file we write,
	// unless the file already starts with it
	Header string
}

// HeaderFor returns the header to write for s: "" if s already
// starts with it
func HeaderFor(s *props.Store, header string) string {
	if header == "" || s.ElementCount() == 0 {
		return header
	}
	if c, ok := s.ElementAt(0).(props.Comment); ok && c.Text == "#"+header {
		return ""
	}
	return header
}

func (e *Editor) edit(path string, outPath string, changes *props.Store, defaultsOnly bool, alwaysWrite bool) (int, error) {
	s, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	remove := s.OnChange(props.ChangeListenerFunc(func(ev props.ChangeEvent) {
		e.Log.Verbosef("%s: %s '%s' = '%s'\n", path, ev.Kind, ev.Key, ev.New)
	}))
	n := Apply(s, changes, defaultsOnly)
	remove()

	if n == 0 && !alwaysWrite {
		e.Log.Verbosef("%s: nothing changed\n", path)
		return 0, nil
	}
	if outPath == "" {
		outPath = path
	}
	if err = WriteFile(outPath, s, HeaderFor(s, e.Header)); err != nil {
		e.Log.IfErrf(err, "propfile: writing '%s' failed with '%s'", outPath, err)
		return 0, err
	}
	_ = e.Log.Event("propfile.write", "path", outPath, "changed", n, "defaults", defaultsOnly)
	return n, nil
}

// SetProperties reads path, sets all properties from overrides and
// writes the result to outPath ("" means path)
func (e *Editor) SetProperties(path string, outPath string, overrides *props.Store) error {
	_, err := e.edit(path, outPath, overrides, false, true)
	return err
}

// SetPropertyDefaults is like SetProperties but only sets properties
// that are missing in path or have a blank value
func (e *Editor) SetPropertyDefaults(path string, outPath string, defaults *props.Store) error {
	_, err := e.edit(path, outPath, defaults, true, true)
	return err
}

// SetProperty sets a single property in path
func (e *Editor) SetProperty(path string, key string, value string) error {
	s := props.New()
	s.Put(key, value)
	return e.SetProperties(path, "", s)
}

// SetPropertyDefault sets key in path if it's missing or blank.
// The file is only written if it changed. Returns true if it did.
func (e *Editor) SetPropertyDefault(path string, key string, value string) (bool, error) {
	s := props.New()
	s.Put(key, value)
	n, err := e.edit(path, "", s, true, false)
	return n > 0, err
}

// Preview returns the content of path before and after applying
// changes, without writing anything
func (e *Editor) Preview(path string, changes *props.Store, defaultsOnly bool) (before []byte, after []byte, err error) {
	s, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	before = s.Bytes("")
	Apply(s, changes, defaultsOnly)
	return before, s.Bytes(""), nil
}
