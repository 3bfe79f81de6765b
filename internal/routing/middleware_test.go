package routing

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"near.org/web/internal/platform/observability"
)

type upstreamCapture struct {
	path   string
	query  string
	cookie string
	host   string
}

func newUpstream(t *testing.T, seen *upstreamCapture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.RawQuery
		seen.cookie = r.Header.Get("Cookie")
		seen.host = r.Host
		w.Header().Set("Referrer-Policy", "unsafe-url")
		w.Header().Set("Set-Cookie", "tracker=1")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, upstream string, metrics *observability.Metrics) http.Handler {
	t.Helper()
	policy := MustCompile(DefaultTable(upstream, "strict-origin-when-cross-origin"))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "page")
	})
	return Middleware(policy, NewRewriteProxy(policy, time.Second), metrics)(next)
}

func TestMiddlewareRedirects(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test")
	handler := newTestHandler(t, testUpstream, metrics)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "https://docs.near.org", rec.Header().Get("Location"))
	require.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RoutingDecisionsTotal.WithLabelValues("redirect")))
}

func TestMiddlewarePassesThroughWithHeaders(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test")
	handler := newTestHandler(t, testUpstream, metrics)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/papers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "page", rec.Body.String())
	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RoutingDecisionsTotal.WithLabelValues("pass")))
}

func TestMiddlewareProxiesAnalytics(t *testing.T) {
	t.Parallel()

	var seen upstreamCapture
	upstream := newUpstream(t, &seen)
	handler := newTestHandler(t, upstream.URL, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/v1/batch?writeKey=abc", nil)
	req.Header.Set("Cookie", "near_nav=secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "/v1/batch", seen.path)
	require.Equal(t, "writeKey=abc", seen.query)
	require.Empty(t, seen.cookie, "cookies stay on the site")
	require.Equal(t, upstream.Listener.Addr().String(), seen.host)

	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	require.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestMiddlewareUpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	handler := newTestHandler(t, addr, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/v1/page", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "upstream_unavailable")
	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestMiddlewareWithoutProxyReturnsNotFound(t *testing.T) {
	t.Parallel()

	policy := MustCompile(DefaultTable(testUpstream, "strict-origin-when-cross-origin"))
	handler := Middleware(policy, nil, nil)(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/v1/page", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
