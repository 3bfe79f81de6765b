package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"near.org/web/internal/analytics"
	"near.org/web/internal/components"
	"near.org/web/internal/content"
	custommw "near.org/web/internal/httpserver/middleware"
	"near.org/web/internal/nav"
	"near.org/web/internal/platform/httpx"
	"near.org/web/internal/platform/requestctx"
	"near.org/web/internal/seo"
	"near.org/web/internal/session"
	"near.org/web/internal/views"
)

const papersKind = "papers"

// Dependencies collects the services the UI handlers render from.
type Dependencies struct {
	Resolver         *components.Resolver
	Content          *content.Store
	Sessions         *session.Manager
	Recorder         *analytics.Recorder
	Categories       []nav.Category
	Network          string
	BaseURL          string
	GatewayScriptURL string
}

// Handlers exposes HTTP handlers for site pages and navigation fragments.
type Handlers struct {
	resolver         *components.Resolver
	content          *content.Store
	sessions         *session.Manager
	recorder         *analytics.Recorder
	categories       []nav.Category
	network          string
	baseURL          string
	gatewayScriptURL string
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	categories := deps.Categories
	if categories == nil {
		categories = nav.DefaultCategories()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = analytics.NewRecorder(analytics.Config{})
	}
	return &Handlers{
		resolver:         deps.Resolver,
		content:          deps.Content,
		sessions:         deps.Sessions,
		recorder:         recorder,
		categories:       categories,
		network:          deps.Network,
		baseURL:          deps.BaseURL,
		gatewayScriptURL: deps.GatewayScriptURL,
	}
}

// Page renders the widget page described by spec.
func (h *Handlers) Page(spec PageSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := h.resolver.Resolve(spec.Key)
		if err != nil {
			requestctx.Logger(r.Context()).Error("page component unresolved",
				zap.String("path", spec.Path),
				zap.String("key", string(spec.Key)),
				zap.Error(err),
			)
			h.writeError(w, r, http.StatusBadGateway, "component_unresolved", "This page is temporarily unavailable.")
			return
		}

		meta := seo.New(h.baseURL, r.URL.Path, spec.Title, spec.Description, "")
		var ld []string
		if spec.Path == "/" {
			ld = append(ld,
				seo.JSON(seo.Organization(seo.SiteName, h.baseURL, h.baseURL+"/static/logo.svg",
					"https://twitter.com/NEARProtocol",
					"https://github.com/near",
				)),
				seo.JSON(seo.WebSite(seo.SiteName, h.baseURL)),
			)
		}
		h.render(w, r, http.StatusOK, meta, ld, views.ComponentPage(components.NewMount(ref, spec.Props), h.network))
	}
}

// Widget mounts any "/{account}/widget/{name}" source directly. Query
// parameters become the widget's props.
func (h *Handlers) Widget(w http.ResponseWriter, r *http.Request) {
	src, ok := components.ParseComponentPath(r.URL.Path)
	if !ok {
		h.NotFound(w, r)
		return
	}
	var props components.Props
	if q := r.URL.Query(); len(q) > 0 {
		props = make(components.Props, len(q))
		for k := range q {
			props[k] = q.Get(k)
		}
	}
	meta := seo.New(h.baseURL, r.URL.Path, "", "", "")
	h.render(w, r, http.StatusOK, meta, nil, views.ComponentPage(components.NewMount(components.Reference{Src: src}, props), h.network))
}

// Paper renders a markdown paper from the content store.
func (h *Handlers) Paper(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := h.content.Get(papersKind, slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		requestctx.Logger(r.Context()).Error("paper render failed", zap.String("slug", slug), zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, "content_unavailable", "The paper could not be loaded.")
		return
	}

	title := page.SEO.Title
	if title == "" {
		title = "NEAR | " + page.Title
	}
	description := page.SEO.Description
	if description == "" {
		description = page.Summary
	}
	meta := seo.New(h.baseURL, r.URL.Path, title, description, page.SEO.OGImage)

	crumbs := nav.Breadcrumbs(r.URL.Path, h.categories)
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		items = append(items, seo.BreadcrumbItem{Name: c.Label, Item: seo.Absolute(h.baseURL, c.Href)})
	}
	published := ""
	if !page.Published.IsZero() {
		published = page.Published.Format("2006-01-02")
	}
	ld := []string{
		seo.JSON(seo.ScholarlyArticle(page.Title, meta.Canonical, page.Authors, published)),
		seo.JSON(seo.BreadcrumbList(items)),
	}
	h.render(w, r, http.StatusOK, meta, ld, views.ContentPage(page, crumbs))
}

// NotFound renders the 404 page.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "not_found", "We couldn't find that page.")
}

// MethodNotAllowed renders the 405 page.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "")
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, meta seo.Meta, ld []string, body templ.Component) {
	data := session.FromContext(r.Context())
	page := views.Page{
		Meta:             meta,
		JSONLD:           ld,
		Categories:       h.categories,
		Sidebar:          nav.BuildSidebar(data.Nav, r.URL.Path, h.categories),
		GatewayScriptURL: h.gatewayScriptURL,
		Body:             body,
	}
	templ.Handler(views.Layout(page), templ.WithStatus(status)).ServeHTTP(w, r)
}

// writeError answers htmx callers with the JSON envelope and browsers with
// an error page inside the site layout.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if custommw.WantsFragment(r.Context()) {
		httpx.WriteError(r.Context(), w, httpx.NewError(code, message, status))
		return
	}
	meta := seo.New(h.baseURL, r.URL.Path, "NEAR | "+http.StatusText(status), "", "")
	h.render(w, r, status, meta, nil, views.ErrorPage(status, message))
}

// backURL returns the same-site page a non-htmx form post came from.
func backURL(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
