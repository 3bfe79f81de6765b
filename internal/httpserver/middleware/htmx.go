package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type fragmentKey struct{}

// Fragment is what htmx tells us about a request it issued.
type Fragment struct {
	Requested bool
	// CurrentURL is the page the browser is showing (HX-Current-URL).
	CurrentURL string
	// HistoryRestore is set when htmx refetches a page missing from its
	// history cache; such requests want the full page.
	HistoryRestore bool
}

// WantsFragment reports whether the response should be a partial.
func (f Fragment) WantsFragment() bool {
	return f.Requested && !f.HistoryRestore
}

// CurrentPath is the path of CurrentURL, or "" when it is missing or
// unparsable.
func (f Fragment) CurrentPath() string {
	if f.CurrentURL == "" {
		return ""
	}
	u, err := url.Parse(f.CurrentURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func headerTrue(r *http.Request, name string) bool {
	return strings.EqualFold(r.Header.Get(name), "true")
}

// Fragments reads the HX-* headers into the request context.
func Fragments() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := Fragment{
				Requested:      headerTrue(r, "HX-Request"),
				CurrentURL:     r.Header.Get("HX-Current-URL"),
				HistoryRestore: headerTrue(r, "HX-History-Restore-Request"),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), fragmentKey{}, f)))
		})
	}
}

func FragmentFromContext(ctx context.Context) Fragment {
	f, _ := ctx.Value(fragmentKey{}).(Fragment)
	return f
}

// WantsFragment reports whether the request's response should be a partial.
func WantsFragment(ctx context.Context) bool {
	return FragmentFromContext(ctx).WantsFragment()
}

// VaryHTMX keeps shared caches from mixing full pages and fragments.
func VaryHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r)
		})
	}
}
