package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/app.properties", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		// ISO-8859-1 encoded e-acute
		w.Write([]byte("# remote\nhost=caf\xe9\nport=80\n"))
	})
	mux.HandleFunc("/app.properties.gz", func(w http.ResponseWriter, r *http.Request) {
		d, err := u.CompressData([]byte("a=1\n"), u.Gzip)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Write(d)
	})
	mux.HandleFunc("/bad.properties", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a=\\uzzzz\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchProperties(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	s, err := FetchProperties(ctx, srv.URL+"/app.properties")
	assert.NoError(t, err)
	assert.Equal(t, []string{"host", "port"}, s.Keys())
	v, _ := s.Get("host")
	assert.Equal(t, "café", v)
	assert.Equal(t, props.Comment{Text: "# remote"}, s.ElementAt(0))

	s, err = FetchPropertiesWithClient(ctx, srv.Client(), srv.URL+"/app.properties.gz?v=2")
	assert.NoError(t, err)
	v, _ = s.Get("a")
	assert.Equal(t, "1", v)
}

func TestFetchPropertiesErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := FetchProperties(ctx, srv.URL+"/missing.properties")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing.properties")

	_, err = FetchProperties(ctx, srv.URL+"/bad.properties")
	assert.True(t, errors.Is(err, props.ErrMalformedEscape))

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FetchProperties(ctx, srv.URL+"/app.properties")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTimeoutClient(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("a=1\n"))
	}))
	defer slow.Close()

	cl := NewTimeoutClient(time.Second, 50*time.Millisecond)
	_, err := FetchPropertiesWithClient(context.Background(), cl, slow.URL+"/a.properties")
	assert.Error(t, err)
}
