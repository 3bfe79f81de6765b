package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"near.org/web/internal/analytics"
	"near.org/web/internal/components"
	"near.org/web/internal/content"
	"near.org/web/internal/httpserver"
	"near.org/web/internal/nav"
	"near.org/web/internal/platform/config"
	"near.org/web/internal/platform/observability"
	"near.org/web/internal/routing"
	"near.org/web/internal/session"
)

func runServe(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.Named("near-web")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}

	serverLogger := logger.Named("http").With(zap.String("addr", app.server.Addr))
	serveErr := make(chan error, 1)
	go func() {
		serverLogger.Info("near-web listening",
			zap.String("version", version),
			zap.String("network", cfg.Site.Network),
			zap.String("env", cfg.Site.Environment),
		)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			serverLogger.Error("http server error", zap.Error(err))
			_ = app.close(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received; draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := app.close(shutdownCtx); err != nil {
		logger.Warn("analytics drain incomplete", zap.Error(err))
	}
	return nil
}

// app is the wired site: the HTTP server plus the background work that must
// stop with it.
type app struct {
	server   *http.Server
	metrics  *observability.Metrics
	registry *components.Registry
	recorder *analytics.Recorder
}

func (a *app) close(ctx context.Context) error {
	return a.recorder.Close(ctx)
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics := observability.NewMetrics(version)

	policy, err := loadPolicy(cfg, logger)
	if err != nil {
		return nil, err
	}

	network, err := components.ParseNetwork(cfg.Site.Network)
	if err != nil {
		return nil, err
	}
	base := components.DefaultEntries()[network]
	entries := base
	if path := cfg.Components.RegistryFile; path != "" {
		overrides, err := components.LoadFile(path)
		if err != nil {
			return nil, err
		}
		entries = components.Merge(base, overrides[network])
	}
	registry := components.NewRegistry(network, entries)
	metrics.ComponentEntries.Set(float64(len(entries)))

	sessions, err := newSessionManager(cfg.Session, logger)
	if err != nil {
		return nil, err
	}

	recorder := analytics.NewRecorder(analytics.Config{
		Upstream:   cfg.Routing.AnalyticsUpstream,
		WriteKey:   cfg.Analytics.WriteKey,
		BufferSize: cfg.Analytics.BufferSize,
		Timeout:    cfg.Analytics.ForwardTimeout,
		Logger:     logger,
		Metrics:    metrics,
		Debug:      cfg.Analytics.Debug,
	})
	if !recorder.Enabled() {
		logger.Info("analytics write key not set; hover events are discarded")
	}

	server := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Addr(),
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		Network:          string(network),
		BaseURL:          cfg.Site.BaseURL,
		GatewayScriptURL: cfg.Components.GatewayScriptURL,
		FilesDir:         filepath.Join(cfg.Content.Dir, "files"),
		UpstreamTimeout:  cfg.Analytics.ForwardTimeout,
		Logger:           logger,
		Metrics:          metrics,
		Policy:           policy,
		Resolver:         components.NewResolver(registry, metrics),
		Content:          content.NewStore(cfg.Content.Dir, content.WithCacheTTL(cfg.Content.CacheTTL)),
		Sessions:         sessions,
		Recorder:         recorder,
		Categories:       nav.DefaultCategories(),
	})

	a := &app{server: server, metrics: metrics, registry: registry, recorder: recorder}
	if path := cfg.Components.RegistryFile; path != "" {
		watchLogger := logger.Named("components")
		a.observeRegistry(ctx, watchLogger)
		go func() {
			if err := components.WatchFile(ctx, registry, base, path, watchLogger); err != nil {
				watchLogger.Error("component registry watch stopped", zap.Error(err))
			}
		}()
	}
	return a, nil
}

// observeRegistry logs and counts registry reloads until ctx ends.
func (a *app) observeRegistry(ctx context.Context, logger *zap.Logger) {
	events := a.registry.Watch()
	go func() {
		defer a.registry.Unwatch(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				a.metrics.ComponentEntries.Set(float64(ev.Keys))
				a.metrics.ComponentReloadsTotal.Inc()
				logger.Info("component registry reloaded",
					zap.String("network", string(a.registry.Network())),
					zap.Int("keys", ev.Keys),
					zap.Time("replaced_at", ev.Timestamp),
				)
			}
		}
	}()
}

// loadTable returns the configured routing table, or the built-in one.
func loadTable(cfg config.Config) (routing.Table, error) {
	if cfg.Routing.TableFile != "" {
		return routing.LoadTable(cfg.Routing.TableFile)
	}
	return routing.DefaultTable(cfg.Routing.AnalyticsUpstream, cfg.Routing.ReferrerPolicy), nil
}

func loadPolicy(cfg config.Config, logger *zap.Logger) (*routing.Policy, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return nil, err
	}
	for _, f := range routing.Lint(table) {
		logger.Warn("routing table finding",
			zap.String("severity", f.Severity.String()),
			zap.String("section", f.Section),
			zap.Int("index", f.Index),
			zap.String("message", f.Message),
		)
	}
	return routing.Compile(table, routing.WithPermanentMaxAge(cfg.Routing.PermanentMaxAge))
}

func newSessionManager(cfg config.SessionConfig, logger *zap.Logger) (*session.Manager, error) {
	hashKey := []byte(cfg.HashKey)
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
		logger.Warn("session hash key not set; navigation state resets on restart")
	}
	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey = []byte(cfg.BlockKey)
	}
	return session.NewManager(session.Config{
		CookieName:     cfg.CookieName,
		HashKey:        hashKey,
		BlockKey:       blockKey,
		CookieSecure:   cfg.Secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}
