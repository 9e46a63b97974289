// Package deploy reads and edits properties files on a remote host
// over SSH / SFTP.
package deploy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/eightycats/litterbox/log"
	"github.com/eightycats/litterbox/propfile"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

const defaultSSHPort = 22

type Config struct {
	User string
	Host string
	// 22 if 0
	Port           uint
	PrivateKeyPath string
	// passphrase of the private key, if any
	Passphrase string
	Log        *log.Logger
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.User == "" || c.Host == "" {
		return errors.New("deploy config: must provide user and host")
	}
	if c.PrivateKeyPath == "" {
		return errors.New("deploy config: must provide private key path")
	}
	return nil
}

// Addr returns "host:port"
func (c *Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = defaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(int(port)))
}

// fileSystem is the subset of sftp.Client we use
type fileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Stat(path string) (os.FileInfo, error)
	Chmod(path string, mode os.FileMode) error
	PosixRename(oldPath, newPath string) error
	Remove(path string) error
}

type sftpFS struct {
	c *sftp.Client
}

func (s sftpFS) Open(path string) (io.ReadCloser, error) {
	return s.c.Open(path)
}

func (s sftpFS) Create(path string) (io.WriteCloser, error) {
	return s.c.Create(path)
}

func (s sftpFS) Stat(path string) (os.FileInfo, error) {
	return s.c.Stat(path)
}

func (s sftpFS) Chmod(path string, mode os.FileMode) error {
	return s.c.Chmod(path, mode)
}

func (s sftpFS) PosixRename(oldPath, newPath string) error {
	return s.c.PosixRename(oldPath, newPath)
}

func (s sftpFS) Remove(path string) error {
	return s.c.Remove(path)
}

// Session is a connection to a remote host
type Session struct {
	Host   string
	Header string

	log    *log.Logger
	client *goph.Client
	sftp   *sftp.Client
	fs     fileSystem
}

// Dial connects to the host in c. The host key must be in ~/.ssh/known_hosts.
func Dial(c *Config) (*Session, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	keyPath := u.ExpandHome(c.PrivateKeyPath)
	if !u.FileExists(keyPath) {
		return nil, fmt.Errorf("key file '%s' doesn't exist", keyPath)
	}
	auth, err := goph.Key(keyPath, c.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("goph.Key() failed with '%w'", err)
	}
	callback, err := goph.DefaultKnownHosts()
	if err != nil {
		return nil, err
	}
	port := c.Port
	if port == 0 {
		port = defaultSSHPort
	}
	timeStart := time.Now()
	client, err := goph.NewConn(&goph.Config{
		User:     c.User,
		Addr:     c.Host,
		Port:     port,
		Auth:     auth,
		Timeout:  goph.DefaultTimeout,
		Callback: callback,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh to %s failed with '%w'", c.Addr(), err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client.NewSftp() failed with '%w'", err)
	}
	c.Log.Verbosef("connected to %s in %s\n", c.Addr(), time.Since(timeStart))
	return &Session{
		Host:   c.Host,
		log:    c.Log,
		client: client,
		sftp:   sc,
		fs:     sftpFS{sc},
	}, nil
}

func (s *Session) Close() error {
	var err error
	if s.sftp != nil {
		err = s.sftp.Close()
	}
	if s.client != nil {
		if err2 := s.client.Close(); err == nil {
			err = err2
		}
	}
	return err
}

// ReadProperties reads and decodes a remote file, decompressing it
// based on extension
func (s *Session) ReadProperties(path string) (*props.Store, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: %w", s.Host, path, err)
	}
	defer u.CloseNoError(f)
	r, err := u.CompressionFromPath(path).NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: %w", s.Host, path, err)
	}
	defer u.CloseNoError(r)
	st, err := props.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s:%s: %w", s.Host, path, err)
	}
	return st, nil
}

func tempPathFor(path string) string {
	return path + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// WriteProperties replaces a remote file: writes a temp file next to it
// and renames it over path. Permissions of an existing file are kept.
func (s *Session) WriteProperties(path string, st *props.Store, header string) error {
	var mode os.FileMode
	if fi, err := s.fs.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s:%s: %w", s.Host, path, err)
	}

	tmpPath := tempPathFor(path)
	err := s.writeTemp(tmpPath, u.CompressionFromPath(path), mode, st, header)
	if err == nil {
		err = s.fs.PosixRename(tmpPath, path)
	}
	if err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("%s:%s: %w", s.Host, path, err)
	}
	s.log.Verbosef("wrote %s:%s\n", s.Host, path)
	return nil
}

func (s *Session) writeTemp(tmpPath string, c u.Compression, mode os.FileMode, st *props.Store, header string) error {
	d, err := u.CompressData(st.Bytes(header), c)
	if err != nil {
		return err
	}
	f, err := s.fs.Create(tmpPath)
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err == nil && mode != 0 {
		err = s.fs.Chmod(tmpPath, mode)
	}
	return err
}

// SetProperties applies changes to a remote file (see propfile.Apply) and
// writes it back if anything changed. Returns number of changed properties.
func (s *Session) SetProperties(path string, changes *props.Store, defaultsOnly bool) (int, error) {
	st, err := s.ReadProperties(path)
	if err != nil {
		return 0, err
	}
	n := propfile.Apply(st, changes, defaultsOnly)
	if n == 0 {
		s.log.Verbosef("%s:%s: nothing changed\n", s.Host, path)
		return 0, nil
	}
	if err = s.WriteProperties(path, st, propfile.HeaderFor(st, s.Header)); err != nil {
		return 0, err
	}
	_ = s.log.Event("deploy.write", "host", s.Host, "path", path, "changed", n)
	return n, nil
}
