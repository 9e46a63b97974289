package propfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/eightycats/litterbox/log"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"
)

func writeTestFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	assert.NoError(t, err)
	return path
}

func readTestFile(t *testing.T, path string) string {
	d, err := os.ReadFile(path)
	assert.NoError(t, err)
	return string(d)
}

func mustParse(t *testing.T, s string) *props.Store {
	st, err := props.ParseString(s)
	assert.NoError(t, err)
	return st
}

const appProps = "# app settings\nhost=localhost\n\n# port\nport=80\nname=\n"

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.properties"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadFileMalformed(t *testing.T) {
	path := writeTestFile(t, "bad.properties", "a=\\u12\n")
	_, err := ReadFile(path)
	assert.True(t, errors.Is(err, props.ErrMalformedEscape))
	assert.Contains(t, err.Error(), "bad.properties")
}

func TestWriteFileCompressed(t *testing.T) {
	dir := t.TempDir()
	s := mustParse(t, appProps)
	for _, name := range []string{"a.properties.gz", "a.properties.zst", "a.properties.br"} {
		path := filepath.Join(dir, name)
		assert.NoError(t, WriteFile(path, s, ""))
		d := readTestFile(t, path)
		assert.NotEqual(t, string(s.Bytes("")), d, "%s is not compressed", name)

		s2, err := ReadFile(path)
		assert.NoError(t, err)
		assert.Equal(t, s.Elements(), s2.Elements())
	}

	// bzip2 can only be read
	assert.Error(t, WriteFile(filepath.Join(dir, "a.bz2"), s, ""))
	_, err := os.Stat(filepath.Join(dir, "a.bz2"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(d []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestEncodeFails(t *testing.T) {
	// enough data for compressors to write before Close()
	s := props.New()
	for i := 0; i < 5000; i++ {
		s.Put(fmt.Sprintf("key.%d", i), strings.Repeat("v", i%50))
	}
	for _, c := range []u.Compression{u.None, u.Gzip, u.Zstd, u.Brotli} {
		w := &failingWriter{}
		err := encode(w, c, s, "")
		assert.Error(t, err, "%s", c)
		assert.True(t, w.writes > 0, "%s", c)
	}
	w := &failingWriter{}
	assert.True(t, errors.Is(encode(w, u.Bzip2, s, ""), u.ErrNoCompressor))
	assert.Equal(t, 0, w.writes)
}

func TestSetProperties(t *testing.T) {
	path := writeTestFile(t, "app.properties", appProps)
	var logBuf bytes.Buffer
	e := &Editor{Log: log.New(&log.Config{Out: &logBuf, Verbose: true})}

	overrides := mustParse(t, "# ignored\nport=8080\nnew.key=x y\n")
	assert.NoError(t, e.SetProperties(path, "", overrides))

	exp := "# app settings\nhost=localhost\n\n# port\nport=8080\nname=\nnew.key=x y\n"
	s, err := ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, exp, s.String())
	assert.Contains(t, logBuf.String(), "updated 'port'")
	assert.Contains(t, logBuf.String(), "added 'new.key'")
}

func TestSetPropertiesOutPath(t *testing.T) {
	path := writeTestFile(t, "app.properties", appProps)
	outPath := filepath.Join(filepath.Dir(path), "out.properties")
	e := &Editor{Header: "generated"}

	assert.NoError(t, e.SetProperties(path, outPath, mustParse(t, "host=example.com\n")))
	// input is not modified
	assert.Equal(t, appProps, readTestFile(t, path))

	got := readTestFile(t, outPath)
	assert.True(t, strings.HasPrefix(got, "#generated"+props.DefaultLineEnding()), "%s", got)
	assert.Contains(t, got, "host=example.com")

	// header is not repeated when editing a file that already has it
	assert.NoError(t, e.SetProperty(outPath, "port", "1"))
	got = readTestFile(t, outPath)
	assert.Equal(t, 1, strings.Count(got, "#generated"))
}

func TestSetPropertyDefaults(t *testing.T) {
	path := writeTestFile(t, "app.properties", appProps)
	e := &Editor{}
	defaults := mustParse(t, "host=other\nname=app\nextra=1\n")
	assert.NoError(t, e.SetPropertyDefaults(path, "", defaults))

	s, err := ReadFile(path)
	assert.NoError(t, err)
	v, _ := s.Get("host")
	assert.Equal(t, "localhost", v)
	v, _ = s.Get("name")
	assert.Equal(t, "app", v)
	v, _ = s.Get("extra")
	assert.Equal(t, "1", v)
	assert.Equal(t, []string{"host", "port", "name", "extra"}, s.Keys())
}

func TestSetPropertyDefault(t *testing.T) {
	path := writeTestFile(t, "app.properties", appProps)
	e := &Editor{Header: "generated"}

	changed, err := e.SetPropertyDefault(path, "host", "other")
	assert.NoError(t, err)
	assert.False(t, changed)
	// not re-written, so no header was added
	assert.Equal(t, appProps, readTestFile(t, path))

	changed, err = e.SetPropertyDefault(path, "name", "app")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, readTestFile(t, path), "name=app")
}

func TestPreview(t *testing.T) {
	path := writeTestFile(t, "app.properties", appProps)
	e := &Editor{}
	before, after, err := e.Preview(path, mustParse(t, "port=1\n"), false)
	assert.NoError(t, err)
	assert.Contains(t, string(before), "port=80")
	assert.Contains(t, string(after), "port=1")
	assert.Equal(t, appProps, readTestFile(t, path))

	before, after, err = e.Preview(path, mustParse(t, "port=1\n"), true)
	assert.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestApply(t *testing.T) {
	s := mustParse(t, "a=1\nb=\n")
	assert.Equal(t, 1, Apply(s, mustParse(t, "a=1\nc=3\n"), false))
	assert.Equal(t, 1, Apply(s, mustParse(t, "a=2\nb=2\n"), true))
	assert.Equal(t, 0, Apply(s, props.New(), false))
}
