package routing

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRule is returned when a rule cannot be used at runtime.
var ErrInvalidRule = errors.New("routing: invalid rule")

// DecisionKind names the outcome of evaluating a request path.
type DecisionKind int

const (
	DecisionPass DecisionKind = iota
	DecisionRedirect
	DecisionRewrite
)

// String returns the metric/log label of the kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionRedirect:
		return "redirect"
	case DecisionRewrite:
		return "rewrite"
	default:
		return "pass"
	}
}

// Decision is the result of Evaluate. At most one of Location and Upstream is set.
type Decision struct {
	Kind         DecisionKind
	Status       int
	Location     string
	CacheControl string
	Upstream     *url.URL
	// Rule is the index of the matching rule in its table section, or -1.
	Rule int
}

type compiledRedirect struct {
	rule    RedirectRule
	pattern *Pattern
	status  int
}

type compiledRewrite struct {
	rule    RewriteRule
	pattern *Pattern
}

type compiledHeaders struct {
	rule    HeaderRule
	pattern *Pattern
}

// Policy is an immutable, compiled routing table. It is safe for concurrent use.
type Policy struct {
	table           Table
	redirects       []compiledRedirect
	rewrites        []compiledRewrite
	headers         []compiledHeaders
	permanentMaxAge time.Duration
}

// PolicyOption customises Compile.
type PolicyOption func(*Policy)

// WithPermanentMaxAge sets the Cache-Control max-age sent with permanent redirects.
func WithPermanentMaxAge(d time.Duration) PolicyOption {
	return func(p *Policy) {
		if d >= 0 {
			p.permanentMaxAge = d
		}
	}
}

// Compile validates and compiles a Table. Rules are checked individually;
// conflicts between rules are left to Lint.
func Compile(t Table, opts ...PolicyOption) (*Policy, error) {
	p := &Policy{table: t.Clone(), permanentMaxAge: 24 * time.Hour}
	for _, opt := range opts {
		opt(p)
	}

	for i, r := range t.Redirects {
		pat, err := CompilePattern(r.Source)
		if err != nil {
			return nil, fmt.Errorf("redirect %d: %w", i, err)
		}
		if !isInternalPath(r.Destination) && !isAbsoluteURL(r.Destination) {
			return nil, fmt.Errorf("%w: redirect %d destination %q is neither a path nor an absolute URL", ErrInvalidRule, i, r.Destination)
		}
		status := redirectStatus(r)
		if status < 300 || status > 399 {
			return nil, fmt.Errorf("%w: redirect %d status %d", ErrInvalidRule, i, status)
		}
		p.redirects = append(p.redirects, compiledRedirect{rule: r, pattern: pat, status: status})
	}
	for i, r := range t.Rewrites {
		pat, err := CompilePattern(r.Source)
		if err != nil {
			return nil, fmt.Errorf("rewrite %d: %w", i, err)
		}
		if !isAbsoluteURL(r.Destination) {
			return nil, fmt.Errorf("%w: rewrite %d destination %q must be an absolute URL", ErrInvalidRule, i, r.Destination)
		}
		p.rewrites = append(p.rewrites, compiledRewrite{rule: r, pattern: pat})
	}
	for i, r := range t.Headers {
		pat, err := CompilePattern(r.Source)
		if err != nil {
			return nil, fmt.Errorf("headers %d: %w", i, err)
		}
		for _, h := range r.Headers {
			if !validHeader(h) {
				return nil, fmt.Errorf("%w: headers %d has invalid header %q", ErrInvalidRule, i, h.Key)
			}
		}
		p.headers = append(p.headers, compiledHeaders{rule: r, pattern: pat})
	}
	return p, nil
}

// MustCompile is Compile for static tables; it panics on error.
func MustCompile(t Table, opts ...PolicyOption) *Policy {
	p, err := Compile(t, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Table returns a copy of the table the policy was compiled from.
func (p *Policy) Table() Table { return p.table.Clone() }

// Evaluate resolves u against redirects then rewrites, first match wins.
// No chain or loop detection happens here.
func (p *Policy) Evaluate(u *url.URL) Decision {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	for i, r := range p.redirects {
		captures, ok := r.pattern.Match(path)
		if !ok {
			continue
		}
		location := mergeQuery(Expand(r.rule.Destination, captures), u.Query())
		return Decision{
			Kind:         DecisionRedirect,
			Status:       r.status,
			Location:     location,
			CacheControl: p.cacheControl(r.status),
			Rule:         i,
		}
	}

	for i, r := range p.rewrites {
		captures, ok := r.pattern.Match(path)
		if !ok {
			continue
		}
		upstream, err := url.Parse(Expand(r.rule.Destination, captures))
		if err != nil {
			// Captures come from an already-parsed URL, so this is unreachable
			// in practice; treat it as no match rather than forwarding garbage.
			continue
		}
		upstream.RawQuery = mergeRawQuery(upstream.RawQuery, u.RawQuery)
		return Decision{Kind: DecisionRewrite, Upstream: upstream, Rule: i}
	}

	return Decision{Kind: DecisionPass, Rule: -1}
}

// HeadersFor returns the headers of every header rule matching path, in table order.
func (p *Policy) HeadersFor(path string) []Header {
	if path == "" {
		path = "/"
	}
	var out []Header
	for _, h := range p.headers {
		if _, ok := h.pattern.Match(path); ok {
			out = append(out, h.rule.Headers...)
		}
	}
	return out
}

func (p *Policy) cacheControl(status int) string {
	switch status {
	case http.StatusMovedPermanently, http.StatusPermanentRedirect:
		return "public, max-age=" + strconv.Itoa(int(p.permanentMaxAge.Seconds()))
	default:
		return "no-store"
	}
}

func redirectStatus(r RedirectRule) int {
	if r.StatusCode != 0 {
		return r.StatusCode
	}
	if r.Permanent {
		return http.StatusMovedPermanently
	}
	return http.StatusTemporaryRedirect
}

// mergeQuery appends the incoming query to destination, keeping destination
// parameters first. Destination text is untouched when there is nothing to add.
func mergeQuery(destination string, incoming url.Values) string {
	if len(incoming) == 0 {
		return destination
	}
	base, fragment, _ := strings.Cut(destination, "#")
	path, rawQuery, _ := strings.Cut(base, "?")
	existing, err := url.ParseQuery(rawQuery)
	if err != nil {
		existing = url.Values{}
	}
	extra := url.Values{}
	for key, values := range incoming {
		if _, ok := existing[key]; ok {
			continue
		}
		extra[key] = values
	}
	if len(extra) == 0 {
		return destination
	}
	query := extra.Encode()
	if rawQuery != "" {
		query = rawQuery + "&" + query
	}
	out := path + "?" + query
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}

func mergeRawQuery(destination, incoming string) string {
	switch {
	case destination == "":
		return incoming
	case incoming == "":
		return destination
	default:
		return destination + "&" + incoming
	}
}

func isInternalPath(dest string) bool {
	return strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//")
}

func isAbsoluteURL(dest string) bool {
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
