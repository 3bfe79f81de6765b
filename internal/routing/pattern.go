package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPattern is returned when a source pattern cannot be compiled.
var ErrInvalidPattern = errors.New("routing: invalid pattern")

type tokenKind int

const (
	tokenLiteral  tokenKind = iota
	tokenParam              // :name, exactly one segment
	tokenOptional           // :name?, zero or one segment
	tokenStar               // :name*, zero or more segments
	tokenPlus               // :name+, one or more segments
)

type token struct {
	kind  tokenKind
	value string // literal text or parameter name
}

// Pattern is a compiled source pattern in the path-to-regexp subset used by
// the routing table: literal segments plus :name, :name?, :name* and :name+.
type Pattern struct {
	source string
	tokens []token
}

// CompilePattern parses source into a Pattern.
func CompilePattern(source string) (*Pattern, error) {
	if !strings.HasPrefix(source, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, source)
	}
	p := &Pattern{source: source}
	seen := map[string]struct{}{}
	for _, seg := range splitPath(source) {
		if !strings.HasPrefix(seg, ":") {
			if strings.ContainsAny(seg, "*?()") {
				return nil, fmt.Errorf("%w: %q has unsupported segment %q", ErrInvalidPattern, source, seg)
			}
			p.tokens = append(p.tokens, token{kind: tokenLiteral, value: seg})
			continue
		}
		name := seg[1:]
		kind := tokenParam
		switch {
		case strings.HasSuffix(name, "*"):
			kind, name = tokenStar, strings.TrimSuffix(name, "*")
		case strings.HasSuffix(name, "+"):
			kind, name = tokenPlus, strings.TrimSuffix(name, "+")
		case strings.HasSuffix(name, "?"):
			kind, name = tokenOptional, strings.TrimSuffix(name, "?")
		}
		if !isParamName(name) {
			return nil, fmt.Errorf("%w: %q has bad parameter %q", ErrInvalidPattern, source, seg)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, source, name)
		}
		seen[name] = struct{}{}
		p.tokens = append(p.tokens, token{kind: kind, value: name})
	}
	return p, nil
}

// MustCompilePattern is CompilePattern for static tables; it panics on error.
func MustCompilePattern(source string) *Pattern {
	p, err := CompilePattern(source)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source text of the pattern.
func (p *Pattern) String() string { return p.source }

// IsLiteral reports whether the pattern has no parameters.
func (p *Pattern) IsLiteral() bool {
	for _, t := range p.tokens {
		if t.kind != tokenLiteral {
			return false
		}
	}
	return true
}

// Match tests an (escaped) request path against the pattern and returns the
// captured parameters. Multi-segment captures are joined with "/".
func (p *Pattern) Match(path string) (map[string]string, bool) {
	segs := splitPath(path)
	captures := map[string]string{}
	if !p.match(0, segs, captures) {
		return nil, false
	}
	return captures, true
}

func (p *Pattern) match(i int, segs []string, captures map[string]string) bool {
	if i == len(p.tokens) {
		return len(segs) == 0
	}
	t := p.tokens[i]
	switch t.kind {
	case tokenLiteral:
		if len(segs) == 0 || segs[0] != t.value {
			return false
		}
		return p.match(i+1, segs[1:], captures)
	case tokenParam:
		if len(segs) == 0 {
			return false
		}
		captures[t.value] = segs[0]
		if p.match(i+1, segs[1:], captures) {
			return true
		}
		delete(captures, t.value)
		return false
	default:
		lo, hi := 0, len(segs)
		if t.kind == tokenPlus {
			lo = 1
		}
		if t.kind == tokenOptional && hi > 1 {
			hi = 1
		}
		// Greedy first, like path-to-regexp.
		for n := hi; n >= lo; n-- {
			captures[t.value] = strings.Join(segs[:n], "/")
			if p.match(i+1, segs[n:], captures) {
				return true
			}
		}
		delete(captures, t.value)
		return false
	}
}

// Expand substitutes :name references in template with captured values.
// Modifier suffixes (*, +, ?) after a reference are consumed. References
// without a capture are left untouched, so "https://host:8080" survives.
func Expand(template string, captures map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		c := template[i]
		if c != ':' {
			b.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(template) && isParamByte(template[j]) {
			j++
		}
		name := template[i+1 : j]
		value, ok := captures[name]
		if name == "" || !ok {
			b.WriteString(template[i:j])
			i = j
			continue
		}
		if j < len(template) && strings.IndexByte("*+?", template[j]) >= 0 {
			j++
		}
		b.WriteString(value)
		i = j
	}
	return b.String()
}

// splitPath splits a path into segments, ignoring the leading slash and a
// single trailing slash. "/" yields no segments.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func isParamName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isParamByte(name[i]) {
			return false
		}
	}
	return true
}

func isParamByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
