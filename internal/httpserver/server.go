package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"near.org/web/internal/analytics"
	"near.org/web/internal/components"
	"near.org/web/internal/content"
	custommw "near.org/web/internal/httpserver/middleware"
	"near.org/web/internal/httpserver/ui"
	"near.org/web/internal/nav"
	"near.org/web/internal/platform/observability"
	"near.org/web/internal/routing"
	"near.org/web/internal/selection"
	"near.org/web/internal/session"
	"near.org/web/internal/views"
	"near.org/web/public"
)

// Config holds runtime options and collaborators for the site server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Network          string
	BaseURL          string
	GatewayScriptURL string
	// FilesDir serves /files/*; empty disables the route.
	FilesDir        string
	UpstreamTimeout time.Duration

	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Policy     *routing.Policy
	Resolver   *components.Resolver
	Content    *content.Store
	Sessions   *session.Manager
	Recorder   *analytics.Recorder
	Categories []nav.Category
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.RequestLoggerMiddleware(cfg.Metrics))
	router.Use(observability.RecoveryMiddleware(logger))
	if cfg.Policy != nil {
		router.Use(routing.Middleware(cfg.Policy, routing.NewRewriteProxy(cfg.Policy, cfg.UpstreamTimeout), cfg.Metrics))
	}
	router.Use(custommw.Fragments())
	router.Use(custommw.RequestInfoMiddleware(cfg.Network, cfg.BaseURL))

	router.Get("/healthz", healthz)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}

	staticContent, err := public.StaticFS()
	if err != nil {
		logger.Fatal("embed static", zap.Error(err))
	}
	router.Handle("/static/*", http.StripPrefix("/static", custommw.AssetsWithCache(staticContent, 7*24*time.Hour)))
	if cfg.FilesDir != "" {
		router.Handle("/files/*", http.StripPrefix("/files", custommw.AssetsWithCache(os.DirFS(cfg.FilesDir), 24*time.Hour)))
	}

	handlers := ui.NewHandlers(ui.Dependencies{
		Resolver:         cfg.Resolver,
		Content:          cfg.Content,
		Sessions:         cfg.Sessions,
		Recorder:         cfg.Recorder,
		Categories:       cfg.Categories,
		Network:          cfg.Network,
		BaseURL:          cfg.BaseURL,
		GatewayScriptURL: cfg.GatewayScriptURL,
	})
	mountSiteRoutes(router, handlers, cfg.Sessions)

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}
}

func mountSiteRoutes(router chi.Router, h *ui.Handlers, sessions *session.Manager) {
	router.Group(func(r chi.Router) {
		r.Use(selection.Middleware)
		r.Use(session.Middleware(sessions))

		for _, spec := range ui.Pages() {
			r.Get(spec.Path, h.Page(spec))
		}
		r.Get("/papers/{slug}", h.Paper)
		r.Get("/{account}/widget/*", h.Widget)

		r.Route("/_nav", func(r chi.Router) {
			r.Use(custommw.NoStore())
			r.Use(custommw.VaryHTMX())
			r.Post(trimNav(views.SidebarTogglePath), h.SidebarToggle)
			r.Post(trimNav(views.SidebarClickPath), h.SidebarClick)
			r.Post(trimNav(views.SidebarSmallScreenPath), h.SidebarSmallScreen)
			r.Post(trimNav(views.HoverEventPath), h.MenuHover)
		})

		r.NotFound(h.NotFound)
		r.MethodNotAllowed(h.MethodNotAllowed)
	})
}

func trimNav(path string) string {
	return path[len("/_nav"):]
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
