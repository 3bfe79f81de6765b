package views

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"near.org/web/internal/components"
	"near.org/web/internal/content"
	"near.org/web/internal/nav"
	"near.org/web/internal/selection"
)

// ComponentPage mounts a remote widget. Rendering it records the widget as the
// request's current component, which the desktop menu then shows.
func ComponentPage(mount components.Mount, network string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		props, err := mount.PropsJSON()
		if err != nil {
			return err
		}
		selection.FromContext(ctx).Set(mount.Src)

		h := &htmlWriter{w: w}
		h.open("section", "class", "component-page")
		h.open("near-social-viewer",
			"src", mount.Src,
			"initialprops", props,
			"network", network,
		)
		h.close("near-social-viewer")
		h.close("section")
		return h.err
	})
}

// ContentPage renders a markdown document.
func ContentPage(page content.Page, crumbs []nav.Crumb) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("article", "class", "content-page")
		h.render(ctx, Breadcrumbs(crumbs))
		h.element("h1", page.Title, "class", "content-page__title")
		if page.Summary != "" {
			h.element("p", page.Summary, "class", "content-page__summary")
		}
		if len(page.Authors) > 0 || !page.Published.IsZero() {
			h.open("p", "class", "content-page__byline")
			for i, a := range page.Authors {
				if i > 0 {
					h.text(", ")
				}
				h.text(a)
			}
			if !page.Published.IsZero() {
				h.raw(" ")
				h.element("time", page.Published.Format("January 2006"), "datetime", page.Published.Format("2006-01-02"))
			}
			h.close("p")
		}
		h.open("div", "class", "content-page__body")
		// HTML is sanitised by the content store.
		h.raw(page.HTML)
		h.close("div")
		if page.DownloadURL != "" {
			h.element("a", "Download PDF", "class", "content-page__download", "href", page.DownloadURL)
		}
		h.close("article")
		return h.err
	})
}

// Breadcrumbs renders a breadcrumb trail; a single crumb renders nothing.
func Breadcrumbs(crumbs []nav.Crumb) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(crumbs) < 2 {
			return nil
		}
		h := &htmlWriter{w: w}
		h.open("nav", "class", "breadcrumbs", "aria-label", "Breadcrumb")
		h.open("ol")
		for _, c := range crumbs {
			h.open("li")
			if c.Active {
				h.element("span", c.Label, "aria-current", "page")
			} else {
				h.element("a", c.Label, "href", c.Href)
			}
			h.close("li")
		}
		h.close("ol")
		h.close("nav")
		return h.err
	})
}

// ErrorPage renders a status page.
func ErrorPage(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			message = http.StatusText(status)
		}
		h := &htmlWriter{w: w}
		h.open("section", "class", "error-page", "data-status", strconv.Itoa(status))
		h.element("h1", strconv.Itoa(status))
		h.element("p", message)
		h.element("a", "Back to home", "href", "/")
		h.close("section")
		return h.err
	})
}
