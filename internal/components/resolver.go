package components

import (
	"encoding/json"
	"fmt"
	"strings"

	"near.org/web/internal/platform/observability"
)

// Reference is a resolved component key.
type Reference struct {
	Key Key
	Src string
}

// Resolver turns keys into references. It does no caching, retrying or
// fallback; an unknown key is reported as ErrUnknownKey.
type Resolver struct {
	registry *Registry
	metrics  *observability.Metrics
}

// NewResolver returns a resolver over registry. metrics may be nil.
func NewResolver(registry *Registry, metrics *observability.Metrics) *Resolver {
	return &Resolver{registry: registry, metrics: metrics}
}

// Resolve looks key up in the registry.
func (r *Resolver) Resolve(key Key) (Reference, error) {
	src, ok := r.registry.Lookup(key)
	if !ok {
		r.count("unknown")
		return Reference{}, fmt.Errorf("%w: %q on %s", ErrUnknownKey, key, r.registry.Network())
	}
	r.count("resolved")
	return Reference{Key: key, Src: src}, nil
}

func (r *Resolver) count(result string) {
	if r.metrics != nil {
		r.metrics.ComponentResolutionsTotal.WithLabelValues(result).Inc()
	}
}

// Props is the opaque parameter bag handed to a widget.
type Props map[string]any

// Mount is everything the page shell needs to embed a widget.
type Mount struct {
	Src   string
	Props Props
}

// NewMount pairs a reference with its props. Props are passed through as given.
func NewMount(ref Reference, props Props) Mount {
	return Mount{Src: ref.Src, Props: props}
}

// PropsJSON encodes the props for the widget's initialProps attribute.
func (m Mount) PropsJSON() (string, error) {
	if m.Props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m.Props)
	if err != nil {
		return "", fmt.Errorf("components: encode props for %s: %w", m.Src, err)
	}
	return string(data), nil
}

// SplitSource splits "account/widget/Name" into account and name.
func SplitSource(src string) (account, name string, ok bool) {
	account, rest, found := strings.Cut(src, "/widget/")
	if !found || !validAccountID(account) || rest == "" || strings.Contains(rest, "/") {
		return "", "", false
	}
	return account, rest, true
}

// ParseComponentPath recognises direct widget URLs ("/account/widget/Name")
// and returns the widget source.
func ParseComponentPath(path string) (string, bool) {
	src := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	if _, _, ok := SplitSource(src); !ok {
		return "", false
	}
	return src, true
}

// validAccountID accepts NEAR account ids: 2-64 chars of lowercase
// alphanumerics separated by '-', '_' or '.'.
func validAccountID(id string) bool {
	if len(id) < 2 || len(id) > 64 {
		return false
	}
	prevSep := true
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSep = false
		case c == '-' || c == '_' || c == '.':
			if prevSep {
				return false
			}
			prevSep = true
		default:
			return false
		}
	}
	return !prevSep
}
