package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const testUpstream = "https://near.dataplane.rudderstack.com"

func defaultPolicy(t testing.TB) *Policy {
	t.Helper()
	p, err := Compile(DefaultTable(testUpstream, "strict-origin-when-cross-origin"))
	require.NoError(t, err)
	return p
}

func mustURL(t testing.TB, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestDefaultTableRedirects(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)
	cases := []struct {
		path     string
		status   int
		location string
	}{
		{"/docs", http.StatusMovedPermanently, "https://docs.near.org"},
		{"/da", http.StatusMovedPermanently, "/data-availability"},
		{"/validators", http.StatusMovedPermanently, "https://pages.near.org/validators"},
		{"/nearcon23.near/widget/Index", http.StatusMovedPermanently, "https://nearcon.app"},
		{"/papers/nightshade", http.StatusMovedPermanently, "/files/nightshade.pdf"},
		{"/ethdenver", http.StatusMovedPermanently, "/ethdenver2024"},
		{"/stakewars", http.StatusTemporaryRedirect, "https://github.com/near/stakewars-iv"},
		{"/consensus", http.StatusTemporaryRedirect, "https://nearconsensus2023.splashthat.com/"},
		{"/ethcc", http.StatusTemporaryRedirect, "https://www.eventbrite.com/e/near-ethcc-tickets-655229297467"},
		{"/pitch", http.StatusTemporaryRedirect, "https://nearpitchfestconsensus.splashthat.com/"},
		{"/developer-governance", http.StatusTemporaryRedirect, "https://neardevgov.org/"},
		{"/stackoverflow", http.StatusTemporaryRedirect, "/near/widget/NearOrg.HomePage?utm_source=stack&utm_medium=podcast&utm_campaign=stackoverflow_evergreen_bos_awareness"},
	}
	for _, tc := range cases {
		d := p.Evaluate(mustURL(t, tc.path))
		require.Equal(t, DecisionRedirect, d.Kind, tc.path)
		require.Equal(t, tc.status, d.Status, tc.path)
		require.Equal(t, tc.location, d.Location, tc.path)
	}
}

func TestRedirectCacheControl(t *testing.T) {
	t.Parallel()

	p, err := Compile(DefaultTable(testUpstream, "no-referrer"), WithPermanentMaxAge(time.Hour))
	require.NoError(t, err)

	permanent := p.Evaluate(mustURL(t, "/docs"))
	require.Equal(t, "public, max-age=3600", permanent.CacheControl)

	temporary := p.Evaluate(mustURL(t, "/pitch"))
	require.Equal(t, "no-store", temporary.CacheControl)
}

func TestRedirectMergesRequestQuery(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)

	d := p.Evaluate(mustURL(t, "/da?ref=twitter"))
	require.Equal(t, "/data-availability?ref=twitter", d.Location)

	d = p.Evaluate(mustURL(t, "/stackoverflow?utm_source=override&x=1"))
	require.Equal(t, "/near/widget/NearOrg.HomePage?utm_source=stack&utm_medium=podcast&utm_campaign=stackoverflow_evergreen_bos_awareness&x=1", d.Location)
}

func TestExplicitStatusCodeOverridesPermanent(t *testing.T) {
	t.Parallel()

	p, err := Compile(Table{Redirects: []RedirectRule{
		{Source: "/old", Destination: "/new", Permanent: true, StatusCode: http.StatusPermanentRedirect},
		{Source: "/tmp", Destination: "/new", StatusCode: http.StatusFound},
	}})
	require.NoError(t, err)

	require.Equal(t, http.StatusPermanentRedirect, p.Evaluate(mustURL(t, "/old")).Status)
	require.Equal(t, http.StatusFound, p.Evaluate(mustURL(t, "/tmp")).Status)
	require.Equal(t, "no-store", p.Evaluate(mustURL(t, "/tmp")).CacheControl)
}

func TestCompileRejectsInvalidRules(t *testing.T) {
	t.Parallel()

	_, err := Compile(Table{Redirects: []RedirectRule{{Source: "/a", Destination: "ftp://example.com"}}})
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = Compile(Table{Redirects: []RedirectRule{{Source: "/a", Destination: "/b", StatusCode: 200}}})
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = Compile(Table{Rewrites: []RewriteRule{{Source: "/a/:p*", Destination: "/internal/:p*"}}})
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = Compile(Table{Headers: []HeaderRule{{Source: "/:p*", Headers: []Header{{Key: "Bad Header", Value: "x"}}}}})
	require.ErrorIs(t, err, ErrInvalidRule)

	_, err = Compile(Table{Redirects: []RedirectRule{{Source: "nope", Destination: "/b"}}})
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestAnalyticsRewrite(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)

	d := p.Evaluate(mustURL(t, "/api/analytics/v1/batch?writeKey=abc&x=1"))
	require.Equal(t, DecisionRewrite, d.Kind)
	require.Equal(t, "https://near.dataplane.rudderstack.com/v1/batch?writeKey=abc&x=1", d.Upstream.String())

	d = p.Evaluate(mustURL(t, "/api/analyticsx/v1"))
	require.Equal(t, DecisionPass, d.Kind)
	require.Equal(t, -1, d.Rule)
}

func TestRedirectsWinOverRewrites(t *testing.T) {
	t.Parallel()

	p := MustCompile(Table{
		Redirects: []RedirectRule{{Source: "/api/analytics/legacy", Destination: "/gone"}},
		Rewrites:  []RewriteRule{{Source: "/api/analytics/:path*", Destination: testUpstream + "/:path*"}},
	})
	require.Equal(t, DecisionRedirect, p.Evaluate(mustURL(t, "/api/analytics/legacy")).Kind)
	require.Equal(t, DecisionRewrite, p.Evaluate(mustURL(t, "/api/analytics/current")).Kind)
}

func TestUnmatchedPathsPass(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)
	for _, path := range []string{"/", "/papers", "/docs/intro", "/DOCS", "/near/widget/NearOrg.HomePage"} {
		require.Equal(t, DecisionPass, p.Evaluate(mustURL(t, path)).Kind, path)
	}
}

func TestHeadersForEveryPath(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)
	for _, path := range []string{"/", "/docs", "/api/analytics/v1/batch", "/a/b/c", ""} {
		require.Equal(t, []Header{{Key: "Referrer-Policy", Value: "strict-origin-when-cross-origin"}}, p.HeadersFor(path), path)
	}
}

func TestPolicyTableIsACopy(t *testing.T) {
	t.Parallel()

	p := defaultPolicy(t)
	table := p.Table()
	table.Redirects[0].Destination = "/mutated"
	table.Headers[0].Headers[0].Value = "unsafe-url"

	require.NotEqual(t, "/mutated", p.Table().Redirects[0].Destination)
	require.Equal(t, "strict-origin-when-cross-origin", p.HeadersFor("/")[0].Value)
}

func TestRewritePreservesSuffixAndQuery(t *testing.T) {
	p := defaultPolicy(t)
	rapid.Check(t, func(t *rapid.T) {
		segs := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9_-]{1,10}`), 1, 5).Draw(t, "segments")
		key := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "key")
		value := rapid.StringMatching(`[a-z0-9]{0,6}`).Draw(t, "value")
		suffix := strings.Join(segs, "/")

		u, err := url.Parse(fmt.Sprintf("/api/analytics/%s?%s=%s", suffix, key, value))
		if err != nil {
			t.Fatal(err)
		}
		d := p.Evaluate(u)
		if d.Kind != DecisionRewrite {
			t.Fatalf("kind %v", d.Kind)
		}
		if d.Upstream.Path != "/"+suffix {
			t.Fatalf("path %q, want %q", d.Upstream.Path, "/"+suffix)
		}
		if d.Upstream.Query().Get(key) != value {
			t.Fatalf("query %q lost", key)
		}
	})
}

func TestFirstMatchWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "rules")
		hit := rapid.IntRange(0, n-1).Draw(t, "hit")
		rules := make([]RedirectRule, 0, n+1)
		for i := 0; i < n; i++ {
			rules = append(rules, RedirectRule{Source: fmt.Sprintf("/r%d", i), Destination: fmt.Sprintf("/dest%d", i)})
		}
		// A catch-all after the literals must never shadow them.
		rules = append(rules, RedirectRule{Source: "/:any*", Destination: "/fallback"})
		p := MustCompile(Table{Redirects: rules})

		d := p.Evaluate(&url.URL{Path: fmt.Sprintf("/r%d", hit)})
		if d.Rule != hit || d.Location != fmt.Sprintf("/dest%d", hit) {
			t.Fatalf("got rule %d location %q, want %d", d.Rule, d.Location, hit)
		}
	})
}
