package routing

// RedirectRule sends clients matching Source to Destination. Destination is
// either an internal path or an absolute URL and may reference captures.
type RedirectRule struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
	Permanent   bool   `yaml:"permanent" json:"permanent"`
	// StatusCode overrides the status derived from Permanent when non-zero.
	StatusCode int `yaml:"statusCode,omitempty" json:"statusCode,omitempty"`
}

// RewriteRule forwards matching requests to an upstream transparently.
type RewriteRule struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
}

// Header is a single response header.
type Header struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// HeaderRule attaches Headers to every response whose path matches Source.
type HeaderRule struct {
	Source  string   `yaml:"source" json:"source"`
	Headers []Header `yaml:"headers" json:"headers"`
}

// Table is the ordered routing configuration. Order is significant for
// redirects and rewrites: the first matching rule wins.
type Table struct {
	Redirects []RedirectRule `yaml:"redirects" json:"redirects"`
	Rewrites  []RewriteRule  `yaml:"rewrites" json:"rewrites"`
	Headers   []HeaderRule   `yaml:"headers" json:"headers"`
}

// Clone returns a deep copy so callers can extend a table without touching
// the shared default.
func (t Table) Clone() Table {
	out := Table{
		Redirects: append([]RedirectRule(nil), t.Redirects...),
		Rewrites:  append([]RewriteRule(nil), t.Rewrites...),
		Headers:   make([]HeaderRule, 0, len(t.Headers)),
	}
	for _, h := range t.Headers {
		out.Headers = append(out.Headers, HeaderRule{
			Source:  h.Source,
			Headers: append([]Header(nil), h.Headers...),
		})
	}
	return out
}

// AnalyticsRewriteSource is the path prefix masked in front of the analytics collector.
const AnalyticsRewriteSource = "/api/analytics/:path*"

// DefaultTable returns the site's redirect, rewrite and header rules.
func DefaultTable(analyticsUpstream, referrerPolicy string) Table {
	return Table{
		Redirects: []RedirectRule{
			{
				Source:      "/stackoverflow",
				Destination: "/near/widget/NearOrg.HomePage?utm_source=stack&utm_medium=podcast&utm_campaign=stackoverflow_evergreen_bos_awareness",
			},
			{Source: "/stakewars", Destination: "https://github.com/near/stakewars-iv"},
			{Source: "/nearcon23.near/widget/Index", Destination: "https://nearcon.app", Permanent: true},
			{Source: "/consensus", Destination: "https://nearconsensus2023.splashthat.com/"},
			{Source: "/docs", Destination: "https://docs.near.org", Permanent: true},
			{Source: "/ethcc", Destination: "https://www.eventbrite.com/e/near-ethcc-tickets-655229297467"},
			{Source: "/pitch", Destination: "https://nearpitchfestconsensus.splashthat.com/"},
			{Source: "/developer-governance", Destination: "https://neardevgov.org/"},
			{Source: "/validators", Destination: "https://pages.near.org/validators", Permanent: true},
			{Source: "/da", Destination: "/data-availability", Permanent: true},
			{Source: "/papers/nightshade", Destination: "/files/nightshade.pdf", Permanent: true},
			{Source: "/ethdenver", Destination: "/ethdenver2024", Permanent: true},
		},
		Rewrites: []RewriteRule{
			{Source: AnalyticsRewriteSource, Destination: analyticsUpstream + "/:path*"},
		},
		Headers: []HeaderRule{
			{
				Source:  "/:path*",
				Headers: []Header{{Key: "Referrer-Policy", Value: referrerPolicy}},
			},
		},
	}
}
