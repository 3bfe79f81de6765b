package middleware

import (
	"context"
	"net/http"
)

type requestInfoKeyType int

const requestInfoKey requestInfoKeyType = iota

// RequestInfo holds lightweight request metadata exposed to views.
type RequestInfo struct {
	Path    string
	Method  string
	Network string
	BaseURL string
}

// RequestInfoMiddleware annotates the context with the request path and the
// deployment the site renders for.
func RequestInfoMiddleware(network, baseURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				Path:    r.URL.Path,
				Method:  r.Method,
				Network: network,
				BaseURL: baseURL,
			}
			ctx := context.WithValue(r.Context(), requestInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestInfoFromContext returns the request metadata stored by RequestInfoMiddleware.
func RequestInfoFromContext(ctx context.Context) (*RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey).(*RequestInfo)
	return info, ok && info != nil
}

// RequestPathFromContext returns the request path or empty string when unavailable.
func RequestPathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok {
		return info.Path
	}
	return ""
}

// NavigationPath is the path the navigation should highlight: the page that
// issued an htmx fragment request, otherwise the request path itself.
func NavigationPath(ctx context.Context) string {
	if p := FragmentFromContext(ctx).CurrentPath(); p != "" {
		return p
	}
	if p := RequestPathFromContext(ctx); p != "" {
		return p
	}
	return "/"
}
