package ui

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "near.org/web/internal/httpserver/middleware"
	"near.org/web/internal/nav"
	"near.org/web/internal/platform/requestctx"
	"near.org/web/internal/session"
	"near.org/web/internal/views"
)

// HoverEventName is the analytics event recorded when a desktop menu trigger is hovered.
const HoverEventName = "navigation_menu_hover"

// SidebarToggle flips the expanded rail.
func (h *Handlers) SidebarToggle(w http.ResponseWriter, r *http.Request) {
	h.updateNav(w, r, nav.State.ToggleExpandedSidebar)
}

// SidebarSmallScreen opens or closes the rail overlay on narrow viewports.
func (h *Handlers) SidebarSmallScreen(w http.ResponseWriter, r *http.Request) {
	h.updateNav(w, r, nav.State.ToggleSmallScreen)
}

// SidebarClick applies a click that bubbled up to the rail root.
func (h *Handlers) SidebarClick(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_form", "invalid form body")
		return
	}
	click := nav.Click{
		Target: nav.ParseClickTarget(r.PostForm.Get("target")),
		Drawer: strings.TrimSpace(r.PostForm.Get("drawer")),
	}
	if click.Target == nav.ClickDrawerToggle && !h.knownDrawer(click.Drawer) {
		click = nav.Click{Target: nav.ClickOther}
	}
	h.updateNav(w, r, func(s nav.State) nav.State { return s.HandleBubbledClick(click) })
}

// MenuHover records a hover on a desktop menu trigger. The response carries
// no content; recording never waits on the collector.
func (h *Handlers) MenuHover(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_form", "invalid form body")
		return
	}
	category := strings.TrimSpace(r.PostForm.Get("category"))
	if !h.knownCategory(category) {
		h.writeError(w, r, http.StatusBadRequest, "unknown_category", "unknown menu category")
		return
	}
	data := session.FromContext(r.Context())
	h.recorder.Record(HoverEventName, data.AnonymousID, map[string]any{
		"category": category,
		"path":     custommw.NavigationPath(r.Context()),
	})
	w.WriteHeader(http.StatusNoContent)
}

// updateNav persists the transition and answers htmx with the re-rendered
// rail, or 204 when nothing changed. Plain form posts are sent back to the
// page they came from.
func (h *Handlers) updateNav(w http.ResponseWriter, r *http.Request, transition func(nav.State) nav.State) {
	data := session.FromContext(r.Context())
	next := transition(data.Nav)
	changed := next != data.Nav
	if changed {
		data.Nav = next
		if err := h.sessions.Save(w, data); err != nil {
			requestctx.Logger(r.Context()).Error("save nav state failed", zap.Error(err))
			h.writeError(w, r, http.StatusInternalServerError, "session_unavailable", "navigation state could not be saved")
			return
		}
	}

	if !custommw.WantsFragment(r.Context()) {
		http.Redirect(w, r, backURL(r), http.StatusSeeOther)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sb := nav.BuildSidebar(next, custommw.NavigationPath(r.Context()), h.categories)
	templ.Handler(views.Sidebar(sb)).ServeHTTP(w, r)
}

func (h *Handlers) knownDrawer(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range nav.Filter(h.categories, nav.SurfaceCompact) {
		if c.Slug() == id {
			return true
		}
	}
	return false
}

func (h *Handlers) knownCategory(title string) bool {
	if title == "" {
		return false
	}
	for _, c := range nav.Filter(h.categories, nav.SurfaceDesktop) {
		if c.Title == title {
			return true
		}
	}
	return false
}
