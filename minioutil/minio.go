package minioutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypeProperties = "text/plain; charset=ISO-8859-1"

type Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// use http instead of https, for local minio servers
	Insecure     bool
	RequestTrace io.Writer
}

// Validate checks that all required fields are set
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	var missing []string
	if c.Access == "" {
		missing = append(missing, "access")
	}
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("minio config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Client stores properties files as objects in a bucket
type Client struct {
	Client *minio.Client
	Bucket string
}

// New creates a Client and checks that the bucket exists
func New(ctx context.Context, config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := config
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Client{
		Client: mc,
		Bucket: c.Bucket,
	}, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// GetProperties downloads and decodes object key, decompressing it
// based on key's extension. A missing object is an error wrapping
// fs.ErrNotExist.
func (c *Client) GetProperties(ctx context.Context, key string) (*props.Store, error) {
	obj, err := c.Client.GetObject(ctx, c.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	d, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", c.Bucket, key, fs.ErrNotExist)
		}
		return nil, err
	}
	d, err = u.DecompressData(d, u.CompressionFromPath(key))
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", c.Bucket, key, err)
	}
	return props.Decode(bytes.NewReader(d))
}

// PutProperties encodes s and uploads it as key, compressed based on
// key's extension (e.g. brotli for .br)
func (c *Client) PutProperties(ctx context.Context, key string, s *props.Store, header string) (minio.UploadInfo, error) {
	d, err := u.CompressData(s.Bytes(header), u.CompressionFromPath(key))
	if err != nil {
		return minio.UploadInfo{}, err
	}
	opts := minio.PutObjectOptions{
		ContentType: contentTypeProperties,
	}
	r := bytes.NewReader(d)
	return c.Client.PutObject(ctx, c.Bucket, key, r, int64(len(d)), opts)
}

// List returns keys of objects that start with prefix
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	var res []string
	for oi := range c.Client.ListObjects(ctx, c.Bucket, opts) {
		if oi.Err != nil {
			return nil, oi.Err
		}
		res = append(res, oi.Key)
	}
	return res, nil
}
