package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG\r\n\x1a\n0000")

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/targets/1.png":
			assert.Equal(t, "image/*", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		case "/sniff":
			w.Write(png)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.Error(w, "missing", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAssetClient_Fetch(t *testing.T) {
	srv := backend(t)
	c, err := NewAssetClient(srv.URL)
	require.NoError(t, err)

	a, err := c.Fetch(context.Background(), "/targets/1.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, png, a.Data)

	a, err = c.Fetch(context.Background(), "sniff")
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.ContentType)
}

func TestAssetClient_Errors(t *testing.T) {
	srv := backend(t)
	c, err := NewAssetClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "/nope.png")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.StatusCode)

	_, err = c.Fetch(context.Background(), "/page")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = c.Fetch(context.Background(), "http://elsewhere.example/x.png")
	assert.Error(t, err)
}

func TestAssetClient_URL(t *testing.T) {
	c, err := NewAssetClient("http://localhost:3001")
	require.NoError(t, err)

	u, err := c.URL("/renders/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/renders/abc.png", u)

	u, err = c.URL("http://localhost:3001/targets/1.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/targets/1.png", u)

	_, err = c.URL("https://cdn.example.com/x.png")
	assert.Error(t, err)
}
