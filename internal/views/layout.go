package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"

	"near.org/web/internal/nav"
	"near.org/web/internal/selection"
	"near.org/web/internal/seo"
)

const htmxScriptURL = "https://unpkg.com/htmx.org@1.9.12"

// Page is the data the shared layout needs.
type Page struct {
	Meta             seo.Meta
	JSONLD           []string
	Categories       []nav.Category
	Sidebar          nav.Sidebar
	GatewayScriptURL string
	Body             templ.Component
}

// Layout renders the page shell around Body. The body is rendered first, and
// the menu above it receives the latest component the body selected.
func Layout(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		cell := selection.FromContext(ctx)
		ctx = selection.WithCell(ctx, cell)
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		selected := cell.Subscribe(subCtx)

		var body bytes.Buffer
		if p.Body != nil {
			if err := p.Body.Render(ctx, &body); err != nil {
				return err
			}
		}
		currentSrc := <-selected

		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", "en")
		h.open("head")
		h.open("meta", "charset", "utf-8")
		h.open("meta", "name", "viewport", "content", "width=device-width, initial-scale=1")
		h.element("title", p.Meta.Title)
		h.open("meta", "name", "description", "content", p.Meta.Description)
		h.open("link", "rel", "canonical", "href", p.Meta.Canonical)
		h.open("meta", "property", "og:title", "content", p.Meta.OG.Title)
		h.open("meta", "property", "og:description", "content", p.Meta.OG.Description)
		h.open("meta", "property", "og:type", "content", p.Meta.OG.Type)
		h.open("meta", "property", "og:url", "content", p.Meta.OG.URL)
		if p.Meta.OG.Image != "" {
			h.open("meta", "property", "og:image", "content", p.Meta.OG.Image)
		}
		h.open("meta", "name", "twitter:card", "content", p.Meta.Twitter.Card)
		h.open("meta", "name", "twitter:site", "content", p.Meta.Twitter.Site)
		if p.Meta.Twitter.Image != "" {
			h.open("meta", "name", "twitter:image", "content", p.Meta.Twitter.Image)
		}
		for _, ld := range p.JSONLD {
			if ld == "" {
				continue
			}
			h.open("script", "type", "application/ld+json")
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			h.raw(ld)
			h.close("script")
		}
		h.open("link", "rel", "stylesheet", "href", "/static/site.css")
		h.element("script", "", "src", htmxScriptURL, "defer", "true")
		h.element("script", "", "src", "/static/nav.js", "defer", "true")
		if p.GatewayScriptURL != "" {
			h.element("script", "", "src", p.GatewayScriptURL, "type", "module", "async", "true")
		}
		h.close("head")

		h.open("body")
		h.open("div", "class", "shell")
		h.render(ctx, Sidebar(p.Sidebar))
		h.open("div", "class", "shell__main")
		h.open("header", "class", "shell__header")
		h.render(ctx, SmallScreenToggle(p.Sidebar.State.OpenedOnSmallScreens))
		h.render(ctx, DesktopMenu(p.Categories, currentSrc))
		h.close("header")
		h.open("main", "id", "content")
		h.raw(body.String())
		h.close("main")
		h.close("div")
		h.close("div")
		h.close("body")
		h.close("html")
		return h.err
	})
}
