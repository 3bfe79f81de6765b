package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"near.org/web/internal/nav"
)

const (
	SidebarID               = "sidebar"
	SidebarTogglePath       = "/_nav/sidebar/toggle"
	SidebarClickPath        = "/_nav/sidebar/click"
	SidebarSmallScreenPath  = "/_nav/sidebar/small-screen"
	sidebarClickValsExpr    = "js:{target: nearNavTarget(event), drawer: nearNavDrawer(event)}"
	sidebarExternalLinkIcon = "ph-bold ph-arrow-square-out"
)

// Sidebar renders the side rail. Clicks anywhere inside bubble to the rail
// root, which reports them to SidebarClickPath; the expand toggle consumes its
// own click. nav.js reports clicks outside the rail while a drawer is open.
func Sidebar(sb nav.Sidebar) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("aside",
			"id", SidebarID,
			"class", classes(map[string]bool{
				"sidebar":                    true,
				"sidebar--expanded":          sb.Expanded,
				"sidebar--small-screen-open": sb.State.OpenedOnSmallScreens,
			}),
			"data-expanded", boolString(sb.Expanded),
			"data-drawer", sb.State.ExpandedDrawer,
			"hx-post", SidebarClickPath,
			"hx-trigger", "click",
			"hx-target", "this",
			"hx-swap", "outerHTML",
			"hx-vals", sidebarClickValsExpr,
		)

		h.open("div", "class", "sidebar__top")
		h.element("a", "NEAR", "class", "sidebar__logo", "href", "/", "aria-label", "Go Home", "data-nav-click", "link")
		icon := "ph-bold ph-list"
		if sb.Expanded {
			icon = "ph-bold ph-arrow-line-left"
		}
		h.open("button",
			"type", "button",
			"class", "sidebar__toggle",
			"aria-label", "Expand/Collapse Menu",
			"aria-pressed", boolString(sb.Expanded),
			"hx-post", SidebarTogglePath,
			"hx-trigger", "click consume",
			"hx-target", "#"+SidebarID,
			"hx-swap", "outerHTML",
		)
		h.element("i", "", "class", icon)
		h.close("button")
		h.close("div")

		for _, sec := range sb.Sections {
			h.open("div", "class", classes(map[string]bool{"sidebar__section": true, "sidebar__section--grow": sec.Grow}))
			if sec.Label != "" {
				h.element("p", sec.Label, "class", "sidebar__section-label")
			}
			for _, it := range sec.Items {
				tooltip := it.Title
				if sb.TooltipsDisabled {
					tooltip = ""
				}
				current := ""
				if it.Active {
					current = "page"
				}
				rel := ""
				if it.External() {
					rel = "noopener noreferrer"
				}
				h.open("a",
					"class", classes(map[string]bool{"sidebar__item": true, "sidebar__item--active": it.Active}),
					"href", it.Href,
					"target", it.Target,
					"rel", rel,
					"aria-current", current,
					"data-tooltip", tooltip,
					"data-nav-click", "link",
				)
				h.element("i", "", "class", "ph-bold "+it.Icon)
				h.element("span", it.Title, "class", "sidebar__label")
				if it.External() {
					h.element("span", "", "class", sidebarExternalLinkIcon)
				}
				h.close("a")
			}
			h.close("div")
		}

		if len(sb.Drawers) > 0 {
			h.open("div", "class", "sidebar__drawers")
			for _, d := range sb.Drawers {
				drawerID := "drawer-" + d.ID
				h.element("button", d.Title,
					"type", "button",
					"class", "sidebar__drawer-toggle",
					"aria-expanded", boolString(d.Open),
					"aria-controls", drawerID,
					"data-nav-click", "drawer",
					"data-nav-drawer", d.ID,
				)
				h.open("div",
					"class", "sidebar__drawer",
					"id", drawerID,
					"hidden", boolString(!d.Open),
					"data-nav-click", "drawer-panel",
					"data-nav-drawer", d.ID,
				)
				for _, sec := range d.Sections {
					if sec.Title != "" {
						h.element("p", sec.Title, "class", "sidebar__section-label")
					}
					for _, link := range sec.Links {
						h.element("a", link.Title,
							"class", "sidebar__drawer-link",
							"href", link.URL,
							"target", link.Target(),
							"rel", link.Rel(),
							"data-nav-click", "link",
						)
					}
				}
				h.close("div")
			}
			h.close("div")
		}

		h.close("aside")
		return h.err
	})
}

// SmallScreenToggle renders the header button that opens the rail on narrow viewports.
func SmallScreenToggle(open bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("button",
			"type", "button",
			"class", "small-screen-toggle",
			"aria-label", "Open navigation",
			"aria-pressed", boolString(open),
			"hx-post", SidebarSmallScreenPath,
			"hx-target", "#"+SidebarID,
			"hx-swap", "outerHTML",
		)
		h.element("i", "", "class", "ph-bold ph-list")
		h.close("button")
		return h.err
	})
}
