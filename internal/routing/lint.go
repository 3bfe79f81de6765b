package routing

import (
	"fmt"
	"sort"
	"strings"
)

// Severity grades a lint finding.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one problem reported by Lint.
type Finding struct {
	Severity Severity
	Section  string // "redirects", "rewrites" or "headers"
	Index    int
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s[%d]: %s", f.Severity, f.Section, f.Index, f.Message)
}

// Lint checks a table for misconfiguration that Evaluate deliberately does
// not guard against at runtime: invalid rules, rules shadowed by earlier ones,
// redirect chains and redirect loops between internal paths.
func Lint(t Table) []Finding {
	var findings []Finding
	add := func(sev Severity, section string, idx int, format string, args ...any) {
		findings = append(findings, Finding{Severity: sev, Section: section, Index: idx, Message: fmt.Sprintf(format, args...)})
	}

	patterns := make([]*Pattern, len(t.Redirects))
	for i, r := range t.Redirects {
		p, err := CompilePattern(r.Source)
		if err != nil {
			add(SeverityError, "redirects", i, "%v", err)
			continue
		}
		patterns[i] = p
		switch {
		case strings.TrimSpace(r.Destination) == "":
			add(SeverityError, "redirects", i, "empty destination")
		case !isInternalPath(r.Destination) && !isAbsoluteURL(r.Destination):
			add(SeverityError, "redirects", i, "destination %q is neither a path nor an absolute URL", r.Destination)
		}
		if r.StatusCode != 0 && (r.StatusCode < 300 || r.StatusCode > 399) {
			add(SeverityError, "redirects", i, "status %d is not a redirect", r.StatusCode)
		}
	}

	// Shadowing: a literal source already matched by an earlier rule can never fire.
	for i, p := range patterns {
		if p == nil || !p.IsLiteral() {
			continue
		}
		for j := 0; j < i; j++ {
			if patterns[j] == nil {
				continue
			}
			if _, ok := patterns[j].Match(p.String()); ok {
				add(SeverityError, "redirects", i, "source %q is shadowed by redirects[%d] (%q)", p.String(), j, patterns[j].String())
				break
			}
		}
	}

	// Chains and loops among internal destinations.
	next := func(path string) (int, bool) {
		target, _, _ := strings.Cut(path, "?")
		for j, p := range patterns {
			if p == nil {
				continue
			}
			if _, ok := p.Match(target); ok {
				return j, true
			}
		}
		return -1, false
	}
	reported := map[int]bool{}
	for i, r := range t.Redirects {
		if patterns[i] == nil || !isInternalPath(r.Destination) {
			continue
		}
		j, ok := next(r.Destination)
		if !ok {
			continue
		}
		visited := map[int]bool{i: true}
		hops := []int{i}
		loop := false
		for ok {
			if visited[j] {
				loop = true
				break
			}
			visited[j] = true
			hops = append(hops, j)
			dest := t.Redirects[j].Destination
			if !isInternalPath(dest) {
				break
			}
			j, ok = next(dest)
		}
		if loop {
			key := minIndex(hops)
			if !reported[key] {
				reported[key] = true
				add(SeverityError, "redirects", i, "redirect loop through %s", hopList(hops))
			}
			continue
		}
		add(SeverityWarning, "redirects", i, "redirect chain through %s", hopList(hops))
	}

	for i, r := range t.Rewrites {
		if _, err := CompilePattern(r.Source); err != nil {
			add(SeverityError, "rewrites", i, "%v", err)
		}
		if !isAbsoluteURL(r.Destination) {
			add(SeverityError, "rewrites", i, "destination %q must be an absolute URL", r.Destination)
		}
		for j, p := range patterns {
			if p == nil || !p.IsLiteral() {
				continue
			}
			if rp, err := CompilePattern(r.Source); err == nil {
				if _, ok := rp.Match(p.String()); ok {
					add(SeverityWarning, "rewrites", i, "redirects[%d] (%q) takes precedence over this rewrite", j, p.String())
				}
			}
		}
	}

	for i, h := range t.Headers {
		if _, err := CompilePattern(h.Source); err != nil {
			add(SeverityError, "headers", i, "%v", err)
		}
		if len(h.Headers) == 0 {
			add(SeverityWarning, "headers", i, "rule sets no headers")
		}
		for _, kv := range h.Headers {
			if !validHeader(kv) {
				add(SeverityError, "headers", i, "invalid header %q", kv.Key)
			}
		}
	}

	sort.SliceStable(findings, func(a, b int) bool {
		return findings[a].Severity > findings[b].Severity
	})
	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func hopList(hops []int) string {
	parts := make([]string, len(hops))
	for i, h := range hops {
		parts[i] = fmt.Sprintf("redirects[%d]", h)
	}
	return strings.Join(parts, " -> ")
}

func minIndex(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
