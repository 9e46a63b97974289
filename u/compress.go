package u

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression is a compression format, picked based on file extension
type Compression int

const (
	None Compression = iota
	Gzip
	Bzip2
	Zstd
	Brotli
)

// ErrNoCompressor is returned when asked to write a format we can only read
var ErrNoCompressor = errors.New("compression format can't be written")

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Zstd:
		return "zstd"
	case Brotli:
		return "brotli"
	}
	return "none"
}

// CompressionFromPath returns compression format based on extension of path:
// .gz, .bz2, .zst / .zstd, .br
// TODO: could sniff file content instead of checking file extension
func CompressionFromPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return Gzip
	case ".bz2":
		return Bzip2
	case ".zst", ".zstd":
		return Zstd
	case ".br":
		return Brotli
	}
	return None
}

// NewReader wraps r with a decompressor. Close() of returned reader
// doesn't close r.
func (c Compression) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(r)
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	}
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// in my tests:
	// - zstd.SpeedBestCompression is much slower and not much better
	// - default concurrency is GONUMPROCS() but adding concurrency of any value
	//   doesn't consistently speed things up
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
}

// NewWriter wraps w with a compressor. Close() must be called to flush
// compressed data but it doesn't close w.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Bzip2:
		return nil, ErrNoCompressor
	case Zstd:
		return zstdNewWriter(w)
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	}
	return nopWriteCloser{w}, nil
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// CompressData compresses d with c
func CompressData(d []byte, c Compression) ([]byte, error) {
	if c == None {
		return d, nil
	}
	var dst bytes.Buffer
	w, err := c.NewWriter(&dst)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

// DecompressData decompresses d compressed with c
func DecompressData(d []byte, c Compression) ([]byte, error) {
	if c == None {
		return d, nil
	}
	r, err := c.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to both, the wrapping reader first
type readerWrappedFile struct {
	f *os.File
	r io.ReadCloser
}

func (rc *readerWrappedFile) Close() error {
	err := rc.r.Close()
	err2 := rc.f.Close()
	return getErr(err, err2)
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip
// or bzip2 or zstd or brotli
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	c := CompressionFromPath(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if c == None {
		return f, nil
	}
	r, err := c.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readerWrappedFile{
		f: f,
		r: r,
	}, nil
}

// ReadFileMaybeCompressed reads a file, decompressing based on extension
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
