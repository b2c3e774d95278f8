package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamCall struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *[]upstreamCall) {
	t.Helper()
	calls := &[]upstreamCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*calls = append(*calls, upstreamCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(b), header: r.Header.Clone()})
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestRelay_ForwardsGet(t *testing.T) {
	// given
	upstream, calls := newUpstream(t, http.StatusOK, `[{"id":1,"name":"Sencha"}]`)
	relay, err := NewRelay(upstream.URL+"/api", "/api/proxy", discardLogger())
	require.NoError(t, err)

	// when
	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy/products?category_id=3", nil))

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Sencha"}]`, rec.Body.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/api/products", (*calls)[0].path)
	assert.Equal(t, "category_id=3", (*calls)[0].query)
}

func TestRelay_ForwardsBodyAndStatus(t *testing.T) {
	// given
	upstream, calls := newUpstream(t, http.StatusBadRequest, `{"error":"quantity"}`)
	relay, err := NewRelay(upstream.URL, "/api/proxy", discardLogger())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/cart", strings.NewReader(`{"quantity":0}`))
	req.Header.Set("Content-Type", "application/json")

	// when
	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, req)

	// then
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"quantity"}`, rec.Body.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "/cart", (*calls)[0].path)
	assert.Equal(t, `{"quantity":0}`, (*calls)[0].body)
}

func TestRelay_DropsSessionCookie(t *testing.T) {
	// given
	upstream, calls := newUpstream(t, http.StatusOK, `{"ok":true}`)
	relay, err := NewRelay(upstream.URL, "/api/proxy", discardLogger())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/cart/add", strings.NewReader(`{"product_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "storefront_session", Value: "eyJhbGciOiJIUzI1NiJ9.signed"})

	// when
	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, req)

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].header.Get("Cookie"))
	assert.Equal(t, "application/json", (*calls)[0].header.Get("Content-Type"))
}

func TestRelay_EmptyBodyPassesThrough(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusNoContent, "")
	relay, err := NewRelay(upstream.URL, "/api/proxy", discardLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/proxy/cart/5", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRelay_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		upstream func(t *testing.T) string
	}{
		{
			name: "body is not JSON",
			upstream: func(t *testing.T) string {
				srv, _ := newUpstream(t, http.StatusOK, "<html>oops</html>")
				return srv.URL
			},
		},
		{
			name: "body too large",
			upstream: func(t *testing.T) string {
				srv, _ := newUpstream(t, http.StatusOK, `"`+strings.Repeat("a", maxRelayBodyBytes)+`"`)
				return srv.URL
			},
		},
		{
			name: "upstream unreachable",
			upstream: func(t *testing.T) string {
				srv := httptest.NewServer(http.NotFoundHandler())
				srv.Close()
				return srv.URL
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			relay, err := NewRelay(tc.upstream(t), "/api/proxy", discardLogger())
			require.NoError(t, err)

			// when
			rec := httptest.NewRecorder()
			relay.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy/products", nil))

			// then
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
		})
	}
}

func TestNewRelay_InvalidUpstream(t *testing.T) {
	for _, upstream := range []string{"", "localhost:8000", "://bad"} {
		_, err := NewRelay(upstream, "/api/proxy", discardLogger())
		assert.Error(t, err, upstream)
	}
}
