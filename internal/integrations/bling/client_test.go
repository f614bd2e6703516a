package bling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/freight"
)

type fakeToken struct {
	val string
	err error
}

func (f *fakeToken) Token(context.Context) (string, error) {
	return f.val, f.err
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(&fakeToken{val: "bling-key"},
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func request() freight.Request {
	return freight.Request{
		PostalCode: "88010000",
		WeightKg:   2,
		WidthCm:    freight.DefaultWidthCm,
		HeightCm:   freight.DefaultHeightCm,
		LengthCm:   freight.DefaultLengthCm,
	}
}

func TestClient_Quote_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/shipping/quote", r.URL.Path)
		require.Equal(t, "Bearer bling-key", r.Header.Get("Authorization"))
		q := r.URL.Query()
		require.Equal(t, "88010000", q.Get("cep"))
		require.Equal(t, "2", q.Get("weight"))
		require.Equal(t, "15", q.Get("width"))
		require.Equal(t, "6", q.Get("height"))
		require.Equal(t, "20", q.Get("length"))

		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"price":34.9,"prazo":"3-6"}`))
	}))
	defer srv.Close()

	q, err := newTestClient(t, srv).Quote(context.Background(), request())
	require.NoError(t, err)
	require.Equal(t, domain.FreightQuote{Price: domain.MoneyFromFloat(34.9), LeadTimeDays: "3-6"}, q)
}

func TestClient_Quote_Failures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "non 2xx", status: 503, body: `down`, wantErr: "unexpected status 503"},
		{name: "invalid json", status: 200, body: `nope`, wantErr: "decode response"},
		{name: "missing price", status: 200, body: `{"prazo":"3-6"}`, wantErr: "missing price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Quote(context.Background(), request())
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestClient_Quote_MissingKey(t *testing.T) {
	c, err := NewClient(&fakeToken{err: domain.ErrNotConfigured})
	require.NoError(t, err)
	_, err = c.Quote(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestEngine_FallsBackWhenBlingFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	e := freight.NewEngine(freight.ModeExternal, "", freight.WithProvider(newTestClient(t, srv)))
	q := e.Quote(context.Background(), "88010000", 2)
	require.Equal(t, domain.FreightQuote{Price: domain.MoneyFromFloat(39.9), LeadTimeDays: "2-4"}, q)
}
