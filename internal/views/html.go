// Package views renders the site's pages as templ components.
package views

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so components can emit
// markup without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// open writes a start tag. Attributes with an empty value are skipped unless
// the name is in boolAttrs, in which case "true" emits the bare attribute.
// URL attributes go through templ.URL, which replaces unsafe schemes.
func (h *htmlWriter) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]
		if boolAttrs[name] {
			if value == "true" {
				h.raw(" " + name)
			}
			continue
		}
		if value == "" {
			continue
		}
		if urlAttrs[name] {
			value = string(templ.URL(value))
		}
		h.raw(" " + name + `="`)
		h.text(value)
		h.raw(`"`)
	}
	h.raw(">")
}

func (h *htmlWriter) close(tag string) {
	h.raw("</" + tag + ">")
}

func (h *htmlWriter) element(tag, text string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(text)
	h.close(tag)
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

var boolAttrs = map[string]bool{
	"hidden":   true,
	"async":    true,
	"defer":    true,
	"disabled": true,
}

var urlAttrs = map[string]bool{
	"href":   true,
	"src":    true,
	"action": true,
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func classes(names map[string]bool) string {
	out := make([]string, 0, len(names))
	for name, on := range names {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}
