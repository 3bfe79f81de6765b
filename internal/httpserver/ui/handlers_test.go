package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"near.org/web/internal/components"
)

func TestPagesResolveOnBothNetworks(t *testing.T) {
	for network, entries := range components.DefaultEntries() {
		for _, spec := range Pages() {
			_, ok := entries[spec.Key]
			require.Truef(t, ok, "%s: %s has no %s entry", spec.Path, network, spec.Key)
		}
	}
}

func TestPagesPathsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range Pages() {
		require.False(t, seen[spec.Path], "duplicate path %s", spec.Path)
		seen[spec.Path] = true
	}
}

func TestBackURL(t *testing.T) {
	cases := []struct {
		name    string
		referer string
		want    string
	}{
		{name: "missing", referer: "", want: "/"},
		{name: "same host", referer: "http://example.com/papers?x=1", want: "/papers?x=1"},
		{name: "relative", referer: "/applications", want: "/applications"},
		{name: "other host", referer: "https://evil.example/phish", want: "/"},
		{name: "garbage", referer: "%zz", want: "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/_nav/sidebar/toggle", nil)
			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}
			require.Equal(t, tc.want, backURL(req))
		})
	}
}

func TestKnownDrawerAndCategory(t *testing.T) {
	h := NewHandlers(Dependencies{})

	require.True(t, h.knownDrawer("resources"))
	require.False(t, h.knownDrawer("ecosystem"), "desktop-only categories have no drawer")
	require.False(t, h.knownDrawer(""))

	require.True(t, h.knownCategory("Ecosystem"))
	require.False(t, h.knownCategory("Resources"), "mobile-only categories are not in the desktop menu")
}
