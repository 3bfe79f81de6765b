package routing

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"near.org/web/internal/platform/httpx"
	"near.org/web/internal/platform/observability"
	"near.org/web/internal/platform/requestctx"
)

type decisionKey struct{}

// DecisionFromContext returns the routing decision stored by Middleware.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// Middleware applies the policy to every request: header rules first (so
// redirects and proxied responses carry them too), then a redirect or a
// rewrite through proxy, otherwise the request continues to next.
func Middleware(policy *Policy, proxy http.Handler, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, h := range policy.HeadersFor(r.URL.EscapedPath()) {
				w.Header().Set(h.Key, h.Value)
			}

			d := policy.Evaluate(r.URL)
			if metrics != nil {
				metrics.RoutingDecisionsTotal.WithLabelValues(d.Kind.String()).Inc()
			}

			switch d.Kind {
			case DecisionRedirect:
				w.Header().Set("Location", d.Location)
				w.Header().Set("Cache-Control", d.CacheControl)
				w.WriteHeader(d.Status)
			case DecisionRewrite:
				if proxy == nil {
					http.NotFound(w, r)
					return
				}
				ctx := context.WithValue(r.Context(), decisionKey{}, d)
				ctx = context.WithValue(ctx, originalPathKey{}, r.URL.EscapedPath())
				proxy.ServeHTTP(w, r.WithContext(ctx))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// NewRewriteProxy builds the reverse proxy used for rewrite decisions. The
// upstream comes from the decision on the request context; cookies are not
// forwarded and policy-managed headers on the upstream response are dropped so
// the site's values stay authoritative.
func NewRewriteProxy(policy *Policy, timeout time.Duration) *httputil.ReverseProxy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			d, ok := DecisionFromContext(pr.In.Context())
			if !ok || d.Upstream == nil {
				return
			}
			target := *d.Upstream
			pr.Out.URL = &target
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Cookie")
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			if resp.Request == nil {
				return nil
			}
			path := resp.Request.URL.EscapedPath()
			if in, ok := originalPath(resp.Request.Context()); ok {
				path = in
			}
			for _, h := range policy.HeadersFor(path) {
				resp.Header.Del(textproto.CanonicalMIMEHeaderKey(h.Key))
			}
			resp.Header.Del("Set-Cookie")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestctx.Logger(r.Context()).Warn("rewrite upstream failed",
				zap.String("upstream", upstreamString(r.Context())),
				zap.Error(err),
			)
			httpx.WriteError(r.Context(), w, httpx.NewError("upstream_unavailable", "upstream unavailable", http.StatusBadGateway))
		},
	}
}

type originalPathKey struct{}

func originalPath(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(originalPathKey{}).(string)
	return p, ok && p != ""
}

func upstreamString(ctx context.Context) string {
	if d, ok := DecisionFromContext(ctx); ok && d.Upstream != nil {
		return d.Upstream.String()
	}
	return ""
}
