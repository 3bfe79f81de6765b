package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"near.org/web/internal/nav"
	"near.org/web/internal/seo"
)

// HoverEventPath receives hover-enter reports from the desktop menu triggers.
const HoverEventPath = "/_nav/events/hover"

// DesktopMenu renders the wide-viewport menu with every panel closed; nav.js
// keeps exactly one open as triggers are hovered or focused. currentSrc is the
// component the page selected, shown on the Develop panel.
func DesktopMenu(categories []nav.Category, currentSrc string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		menu := nav.BuildDesktopMenu(categories, currentSrc)
		h := &htmlWriter{w: w}
		h.open("nav", "class", "desktop-menu", "aria-label", "Main")
		h.open("ul", "class", "desktop-menu__list")
		for _, item := range menu.Items {
			panelID := "menu-panel-" + item.Slug
			h.open("li", "class", "desktop-menu__item", "data-state", "closed")
			h.open("button",
				"type", "button",
				"class", "desktop-menu__trigger",
				"aria-expanded", "false",
				"aria-controls", panelID,
				"hx-post", HoverEventPath,
				"hx-trigger", "mouseenter",
				"hx-swap", "none",
				"hx-vals", seo.JSON(map[string]string{"category": item.Title}),
			)
			h.text(item.Title)
			h.close("button")

			h.open("div", "class", "desktop-menu__panel", "id", panelID, "hidden", "true")
			h.open("div", "class", "desktop-menu__sections")
			for _, sec := range item.Sections {
				h.open("div", "class", "desktop-menu__section")
				if sec.Title != "" {
					h.element("p", sec.Title, "class", "desktop-menu__section-title")
				}
				for _, link := range sec.Links {
					h.element("a", link.Title,
						"class", "desktop-menu__link",
						"href", link.URL,
						"target", link.Target(),
						"rel", link.Rel(),
					)
				}
				h.close("div")
			}
			h.close("div")
			if item.CurrentComponent != "" {
				h.open("div", "class", "desktop-menu__current-component")
				h.element("p", "Current Component", "class", "desktop-menu__section-title")
				h.element("a", item.CurrentComponent, "class", "desktop-menu__link", "href", "/"+item.CurrentComponent)
				h.close("div")
			}
			h.close("div")
			h.close("li")
		}
		h.close("ul")
		h.close("nav")
		return h.err
	})
}
