package u

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func TestCompressionFromPath(t *testing.T) {
	tests := []struct {
		path string
		exp  Compression
	}{
		{"app.properties", None},
		{"app.properties.gz", Gzip},
		{"APP.PROPERTIES.GZ", Gzip},
		{"a.bz2", Bzip2},
		{"a.zst", Zstd},
		{"a.zstd", Zstd},
		{"dir.br/a", None},
		{"a.br", Brotli},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, CompressionFromPath(test.path), "path: %s", test.path)
	}
}

func TestCompressDataRoundTrip(t *testing.T) {
	d := []byte(strings.Repeat("key=value\n", 200))
	for _, c := range []Compression{None, Gzip, Zstd, Brotli} {
		compressed, err := CompressData(d, c)
		assert.NoError(t, err, "%s", c)
		if c != None {
			assert.True(t, len(compressed) < len(d), "%s", c)
		}
		got, err := DecompressData(compressed, c)
		assert.NoError(t, err, "%s", c)
		assert.Equal(t, d, got, "%s", c)
	}

	_, err := CompressData(d, Bzip2)
	assert.True(t, errors.Is(err, ErrNoCompressor))
}

func TestReadFileMaybeCompressed(t *testing.T) {
	dir := t.TempDir()
	d := []byte("# c\na=1\n")
	for _, name := range []string{"a.properties", "a.properties.gz", "a.properties.zst", "a.properties.br"} {
		path := filepath.Join(dir, name)
		compressed, err := CompressData(d, CompressionFromPath(path))
		assert.NoError(t, err)
		assert.NoError(t, os.WriteFile(path, compressed, 0644))

		got, err := ReadFileMaybeCompressed(path)
		assert.NoError(t, err, "path: %s", path)
		assert.True(t, bytes.Equal(d, got), "path: %s", path)
	}

	_, err := ReadFileMaybeCompressed(filepath.Join(dir, "missing.gz"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// not really gzipped
	path := filepath.Join(dir, "bad.gz")
	assert.NoError(t, os.WriteFile(path, d, 0644))
	_, err = ReadFileMaybeCompressed(path)
	assert.Error(t, err)
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	assert.False(t, FileExists(path))
	assert.Equal(t, os.FileMode(0640), FileMode(path, 0640))

	assert.NoError(t, os.WriteFile(path, nil, 0600))
	assert.True(t, FileExists(path))
	assert.True(t, PathExists(dir))
	assert.False(t, FileExists(dir))
	if !IsWindows() {
		assert.Equal(t, os.FileMode(0600), FileMode(path, 0644))
	}

	assert.Equal(t, "/etc/a", ExpandHome("/etc/a"))
	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, "a"), ExpandHome("~/a"))
	}
}
