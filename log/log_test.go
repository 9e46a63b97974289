package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	var got []string
	l := New(&Config{
		Out:   &buf,
		OnLog: func(s string) { got = append(got, s) },
	})
	l.Logf("a=%d\n", 1)
	l.Logf("plain\n")
	l.Verbosef("not shown\n")
	assert.Equal(t, "a=1\nplain\n", buf.String())
	assert.Equal(t, []string{"a=1\n", "plain\n"}, got)
	assert.False(t, l.IsVerbose())

	buf.Reset()
	l = New(&Config{Out: &buf, Verbose: true})
	l.Verbosef("shown %s\n", "now")
	assert.Equal(t, "shown now\n", buf.String())
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Logf("x")
	l.Verbosef("x")
	l.Errorf("x")
	assert.True(t, l.IfErrf(errors.New("x")))
	assert.NoError(t, l.Event("x", "k", "v"))
	assert.NoError(t, l.Close())
	assert.False(t, l.IsVerbose())
}

func TestErrorf(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l := New(&Config{Dir: dir, Out: &buf})
	l.Errorf("failed: %s", "boom")
	s := buf.String()
	assert.True(t, strings.HasPrefix(s, "failed: boom\n"), "%s", s)
	assert.Contains(t, s, "log_test.go")

	assert.False(t, l.IfErrf(nil))
	assert.True(t, l.IfErrf(errors.New("bad"), "saving '%s'", "a.properties"))
	assert.Contains(t, buf.String(), "saving 'a.properties'\n")
	assert.NoError(t, l.Close())

	d, err := os.ReadFile(l.errorsLog.PathForTime(time.Now()))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "failed: boom")
	assert.Contains(t, string(d), "saving 'a.properties'")

	// errors also go to the regular log
	d, err = os.ReadFile(l.log.PathForTime(time.Now()))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "failed: boom")
}

func TestEvent(t *testing.T) {
	dir := t.TempDir()
	l := New(&Config{Dir: dir, Out: &bytes.Buffer{}})
	err := l.Event("set", "key", "app.port", "count", 2)
	assert.NoError(t, err)
	assert.NoError(t, l.Close())

	path := filepath.Join(dir, "events", time.Now().UTC().Format("2006-01-02")+".txt")
	d, err := os.ReadFile(path)
	assert.NoError(t, err)
	s := string(d)
	assert.True(t, strings.HasPrefix(s, "set "), "%s", s)
	assert.Contains(t, s, "app.port")
	assert.True(t, strings.HasSuffix(s, "\n\n"), "%s", s)

	assert.Error(t, l.Event("bad", "key"))
	assert.Error(t, l.Event("bad", 1, "v"))
}

func TestNoDir(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Out: &buf})
	l.Errorf("x")
	assert.NoError(t, l.Event("e", "k", "v"))
	assert.NoError(t, l.Close())
	assert.Contains(t, buf.String(), "x\n")
}

func TestWriteDailyReopens(t *testing.T) {
	dir := t.TempDir()
	w := NewWriteDaily(dir)
	assert.NoError(t, w.WriteString("a\n"))
	assert.NoError(t, w.Close())
	assert.NoError(t, w.WriteString("b\n"))
	assert.NoError(t, w.Close())
	d, err := os.ReadFile(w.PathForTime(time.Now()))
	assert.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(d))

	var nilW *WriteDaily
	assert.NoError(t, nilW.WriteString("x"))
	assert.NoError(t, nilW.Close())
}
