package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/eightycats/litterbox/deploy"
	"github.com/eightycats/litterbox/httputil"
	"github.com/eightycats/litterbox/propfile"
	"github.com/eightycats/litterbox/props"
)

var errReadOnly = errors.New("location is read-only")

// location is where properties are read from and written to
type location interface {
	Read(ctx context.Context) (*props.Store, error)
	Write(ctx context.Context, s *props.Store, header string) error
	String() string
}

type localLocation struct {
	path string
}

func (l *localLocation) Read(ctx context.Context) (*props.Store, error) {
	return propfile.ReadFile(l.path)
}

func (l *localLocation) Write(ctx context.Context, s *props.Store, header string) error {
	return propfile.WriteFile(l.path, s, header)
}

func (l *localLocation) String() string {
	return l.path
}

type httpLocation struct {
	uri string
}

func (l *httpLocation) Read(ctx context.Context) (*props.Store, error) {
	return httputil.FetchProperties(ctx, l.uri)
}

func (l *httpLocation) Write(ctx context.Context, s *props.Store, header string) error {
	return fmt.Errorf("%s: %w", l.uri, errReadOnly)
}

func (l *httpLocation) String() string {
	return l.uri
}

type s3Location struct {
	app    *App
	bucket string
	key    string
}

func (l *s3Location) Read(ctx context.Context) (*props.Store, error) {
	c, err := l.app.minioClient(ctx, l.bucket)
	if err != nil {
		return nil, err
	}
	return c.GetProperties(ctx, l.key)
}

func (l *s3Location) Write(ctx context.Context, s *props.Store, header string) error {
	c, err := l.app.minioClient(ctx, l.bucket)
	if err != nil {
		return err
	}
	_, err = c.PutProperties(ctx, l.key, s, header)
	return err
}

func (l *s3Location) String() string {
	return "s3://" + l.bucket + "/" + l.key
}

type sshLocation struct {
	app    *App
	config deploy.Config
	path   string

	session *deploy.Session
}

func (l *sshLocation) dial() (*deploy.Session, error) {
	if l.session != nil {
		return l.session, nil
	}
	l.config.Log = l.app.Log
	s, err := deploy.Dial(&l.config)
	if err != nil {
		return nil, err
	}
	l.app.closers = append(l.app.closers, s)
	l.session = s
	return s, nil
}

func (l *sshLocation) Read(ctx context.Context) (*props.Store, error) {
	s, err := l.dial()
	if err != nil {
		return nil, err
	}
	return s.ReadProperties(l.path)
}

func (l *sshLocation) Write(ctx context.Context, st *props.Store, header string) error {
	s, err := l.dial()
	if err != nil {
		return err
	}
	return s.WriteProperties(l.path, st, header)
}

func (l *sshLocation) String() string {
	return "ssh://" + l.config.User + "@" + l.config.Addr() + l.path
}

// parseLocation recognizes:
//   - http://..., https://... (read-only)
//   - s3://bucket/key, s3:///key (bucket from config)
//   - ssh://[user@]host[:port]/path (user, port and key from config)
//   - everything else is a local path
func (a *App) parseLocation(s string) (location, error) {
	scheme, _, ok := strings.Cut(s, "://")
	if !ok {
		return &localLocation{path: s}, nil
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return &httpLocation{uri: s}, nil
	case "s3":
		return a.parseS3Location(s)
	case "ssh":
		return a.parseSSHLocation(s)
	}
	return nil, fmt.Errorf("unsupported location '%s'", s)
}

// parseS3URL returns bucket and key of s3://bucket/key. Empty bucket
// is taken from config.
func (a *App) parseS3URL(s string) (bucket string, key string, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("'%s' is not an s3:// url", s)
	}
	bucket = u.Host
	if bucket == "" {
		bucket = a.Config.Minio.Bucket
	}
	if bucket == "" {
		return "", "", fmt.Errorf("no bucket in '%s' and no minio.bucket in config", s)
	}
	return bucket, strings.TrimPrefix(u.Path, "/"), nil
}

func (a *App) parseS3Location(s string) (location, error) {
	bucket, key, err := a.parseS3URL(s)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("invalid location '%s', expected s3://bucket/key", s)
	}
	return &s3Location{app: a, bucket: bucket, key: key}, nil
}

func (a *App) parseSSHLocation(s string) (location, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	sc := a.Config.SSH
	c := deploy.Config{
		User:           sc.User,
		Host:           u.Hostname(),
		Port:           sc.Port,
		PrivateKeyPath: sc.KeyPath,
	}
	if name := u.User.Username(); name != "" {
		c.User = name
	}
	if port := u.Port(); port != "" {
		n, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port in '%s'", s)
		}
		c.Port = uint(n)
	}
	if c.Host == "" || u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("invalid location '%s', expected ssh://user@host[:port]/path", s)
	}
	return &sshLocation{app: a, config: c, path: u.Path}, nil
}
