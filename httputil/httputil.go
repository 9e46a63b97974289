package httputil

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"
)

// NewTimeoutClient returns http.Client with timeouts for connecting
// and for the whole exchange on a connection
func NewTimeoutClient(connectTimeout time.Duration, readWriteTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		_ = conn.SetDeadline(time.Now().Add(readWriteTimeout))
		return conn, nil
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: dial,
			Proxy:       http.ProxyFromEnvironment,
		},
	}
}

func NewDefaultTimeoutClient() *http.Client {
	return NewTimeoutClient(time.Second*30, time.Second*120)
}

// FetchProperties downloads and decodes properties from uri.
// A response other than 2xx is an error. If the path of uri ends
// with .gz, .zst or .br, the body is decompressed.
func FetchProperties(ctx context.Context, uri string) (*props.Store, error) {
	return FetchPropertiesWithClient(ctx, NewDefaultTimeoutClient(), uri)
}

// FetchPropertiesWithClient is like FetchProperties but uses cl
func FetchPropertiesWithClient(ctx context.Context, cl *http.Client, uri string) (*props.Store, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = requests.
		URL(uri).
		Client(cl).
		Header("Accept", "text/plain, */*").
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", uri, err)
	}
	d, err := u.DecompressData(buf.Bytes(), u.CompressionFromPath(parsed.Path))
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", uri, err)
	}
	s, err := props.Decode(bytes.NewReader(d))
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", uri, err)
	}
	return s, nil
}
