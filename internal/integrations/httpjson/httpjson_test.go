package httpjson

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequest_SetsHeadersAndBody(t *testing.T) {
	req, err := NewRequest(context.Background(), http.MethodPost, "http://example.test/x", "tok", map[string]string{"a": "b"})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":"b"}`, string(body))
}

func TestNewRequest_NoPayloadNoToken(t *testing.T) {
	req, err := NewRequest(context.Background(), http.MethodGet, "http://example.test/x", "", nil)
	require.NoError(t, err)
	require.Empty(t, req.Header.Get("Authorization"))
	require.Empty(t, req.Header.Get("Content-Type"))
}

func TestDo_ReturnsBodyOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, "", nil)
	require.NoError(t, err)
	body, err := Do(srv.Client(), req)
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(body))
}

func TestDo_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`slow down`))
	}))
	defer srv.Close()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, "", nil)
	require.NoError(t, err)
	_, err = Do(nil, req)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
	require.Equal(t, "slow down", statusErr.Body)
}
