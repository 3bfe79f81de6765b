package nav

import (
	"net/url"
	"strings"
)

// State is the per-client side rail state. It is never persisted server-side;
// the session cookie carries it between requests of one browser session.
type State struct {
	SidebarExpanded      bool   `json:"e,omitempty"`
	ExpandedDrawer       string `json:"d,omitempty"`
	OpenedOnSmallScreens bool   `json:"s,omitempty"`
}

// ToggleExpandedSidebar flips the expanded flag and nothing else.
func (s State) ToggleExpandedSidebar() State {
	s.SidebarExpanded = !s.SidebarExpanded
	return s
}

// ToggleSmallScreen flips the small-screen open flag.
func (s State) ToggleSmallScreen() State {
	s.OpenedOnSmallScreens = !s.OpenedOnSmallScreens
	return s
}

// OpenDrawer opens drawer id, closing any other.
func (s State) OpenDrawer(id string) State {
	s.ExpandedDrawer = id
	return s
}

// CloseDrawer closes the open drawer, if any.
func (s State) CloseDrawer() State {
	s.ExpandedDrawer = ""
	return s
}

// IsSidebarExpanded reports whether the rail renders expanded. An open drawer
// overlays the rail, so it renders collapsed underneath.
func (s State) IsSidebarExpanded() bool {
	return s.SidebarExpanded && s.ExpandedDrawer == ""
}

// TooltipsDisabled reports whether item tooltips are suppressed.
func (s State) TooltipsDisabled() bool {
	return s.IsSidebarExpanded()
}

// ClickTarget classifies the element a click bubbled up from.
type ClickTarget int

const (
	ClickOther ClickTarget = iota
	ClickLink
	ClickDrawerToggle
	ClickDrawerPanel
)

// ParseClickTarget maps the form value posted by the rail.
func ParseClickTarget(v string) ClickTarget {
	switch v {
	case "link":
		return ClickLink
	case "drawer":
		return ClickDrawerToggle
	case "drawer-panel":
		return ClickDrawerPanel
	default:
		return ClickOther
	}
}

// Click is a click that bubbled up to the rail root.
type Click struct {
	Target ClickTarget
	Drawer string
}

// HandleBubbledClick does the rail's bookkeeping for a click. The clicked
// element has already done its own work; this only adjusts drawers and the
// small-screen overlay. A click anywhere but the open drawer's panel collapses
// that drawer.
func (s State) HandleBubbledClick(c Click) State {
	switch c.Target {
	case ClickOther:
		s.ExpandedDrawer = ""
	case ClickDrawerPanel:
		if c.Drawer != s.ExpandedDrawer {
			s.ExpandedDrawer = ""
		}
	case ClickLink:
		s.ExpandedDrawer = ""
		s.OpenedOnSmallScreens = false
	case ClickDrawerToggle:
		if c.Drawer == "" || s.ExpandedDrawer == c.Drawer {
			s.ExpandedDrawer = ""
		} else {
			s.ExpandedDrawer = c.Drawer
		}
	}
	return s
}

// CurrentPathMatchesRoute reports whether currentPath matches any of routes.
// With exact set the path must equal a route; otherwise a route also matches
// any path below it. Query and fragment are ignored.
func CurrentPathMatchesRoute(currentPath string, routes []string, exact bool) bool {
	p := normalizePath(currentPath)
	for _, route := range routes {
		r := normalizePath(route)
		if p == r {
			return true
		}
		if exact {
			continue
		}
		if r == "/" || strings.HasPrefix(p, r+"/") {
			return true
		}
	}
	return false
}

// IsItemActive applies the rail's precedence: an open drawer clears every
// highlight, otherwise the path decides.
func (s State) IsItemActive(currentPath string, routes []string, exact bool) bool {
	if s.ExpandedDrawer != "" {
		return false
	}
	return CurrentPathMatchesRoute(currentPath, routes, exact)
}

func normalizePath(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// SidebarItem declares one rail entry. Routes empty means the entry is never
// highlighted; external entries always are.
type SidebarItem struct {
	Title      string
	Href       string
	Icon       string
	Routes     []string
	ExactMatch bool
}

// External reports whether the entry leaves the site.
func (i SidebarItem) External() bool {
	return Link{URL: i.Href}.IsExternal()
}

// SidebarSection is a labelled group of rail entries.
type SidebarSection struct {
	Label string
	Grow  bool
	Items []SidebarItem
}

// SidebarSections returns the rail's declared entries. Matching mode is set
// per entry: Home matches exactly, the rest by prefix.
func SidebarSections() []SidebarSection {
	return []SidebarSection{
		{
			Items: []SidebarItem{
				{Title: "Home", Href: "/", Icon: "ph-house", Routes: []string{"/"}, ExactMatch: true},
				{Title: "Documentation", Href: "/documentation", Icon: "ph-book-open-text", Routes: []string{"/documentation"}},
				{Title: "Support", Href: "/contact-us", Icon: "ph-question", Routes: []string{"/contact-us"}},
			},
		},
		{
			Label: "Discover",
			Items: []SidebarItem{
				{Title: "Applications", Href: "/applications", Icon: "ph-shapes", Routes: []string{"/applications"}},
				{Title: "Events", Href: "https://near.org/events", Icon: "ph-calendar"},
				{Title: "News", Href: "/nearweekapp.near/widget/nearweek.com", Icon: "ph-newspaper", Routes: []string{"/nearweekapp.near/widget/nearweek.com"}},
				{Title: "Blog", Href: "https://near.org/blog", Icon: "ph-chat-centered-text"},
			},
		},
		{
			Label: "Resources",
			Grow:  true,
			Items: []SidebarItem{
				{Title: "Standards & Proposals", Href: "https://github.com/near/NEPs", Icon: "ph-file-text"},
				{Title: "GitHub", Href: "https://github.com/near", Icon: "ph-github-logo"},
				{Title: "Careers", Href: "https://careers.near.org/", Icon: "ph-briefcase"},
				{Title: "Get Funding", Href: "/ecosystem/get-funding", Icon: "ph-coin-vertical", Routes: []string{"/ecosystem/get-funding"}},
			},
		},
	}
}

// RenderedSidebarItem is a SidebarItem resolved against a request.
type RenderedSidebarItem struct {
	SidebarItem
	Active bool
	Target string
}

// RenderedSidebarSection is a SidebarSection resolved against a request.
type RenderedSidebarSection struct {
	Label string
	Grow  bool
	Items []RenderedSidebarItem
}

// Drawer is a compact-surface category shown as an overlay.
type Drawer struct {
	ID       string
	Title    string
	Open     bool
	Sections []Section
}

// Sidebar is the view model of the side rail.
type Sidebar struct {
	State            State
	Expanded         bool
	TooltipsDisabled bool
	Sections         []RenderedSidebarSection
	Drawers          []Drawer
}

// BuildSidebar resolves the rail entries and compact drawers for currentPath.
func BuildSidebar(state State, currentPath string, categories []Category) Sidebar {
	sb := Sidebar{
		State:            state,
		Expanded:         state.IsSidebarExpanded(),
		TooltipsDisabled: state.TooltipsDisabled(),
	}
	for _, sec := range SidebarSections() {
		rs := RenderedSidebarSection{Label: sec.Label, Grow: sec.Grow}
		for _, it := range sec.Items {
			ri := RenderedSidebarItem{SidebarItem: it, Target: Link{URL: it.Href}.Target()}
			if len(it.Routes) > 0 && !it.External() {
				ri.Active = state.IsItemActive(currentPath, it.Routes, it.ExactMatch)
			}
			rs.Items = append(rs.Items, ri)
		}
		sb.Sections = append(sb.Sections, rs)
	}
	for _, c := range Filter(categories, SurfaceCompact) {
		id := c.Slug()
		sb.Drawers = append(sb.Drawers, Drawer{
			ID:       id,
			Title:    c.Title,
			Open:     state.ExpandedDrawer == id,
			Sections: c.Sections,
		})
	}
	return sb
}
