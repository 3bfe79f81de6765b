package testutil

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"near.org/web/internal/analytics"
	"near.org/web/internal/components"
	"near.org/web/internal/content"
	"near.org/web/internal/httpserver"
	"near.org/web/internal/platform/observability"
	"near.org/web/internal/routing"
	"near.org/web/internal/session"
)

// SessionHashKey signs test session cookies.
const SessionHashKey = "0123456789abcdef0123456789abcdef"

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*serverOptions)

type serverOptions struct {
	cfg               httpserver.Config
	analyticsUpstream string
	entries           components.Entries
	contentDir        string
}

// WithAnalyticsUpstream points the analytics rewrite at url.
func WithAnalyticsUpstream(url string) ServerOption {
	return func(o *serverOptions) {
		o.analyticsUpstream = url
	}
}

// WithEntries replaces the component registry contents.
func WithEntries(entries components.Entries) ServerOption {
	return func(o *serverOptions) {
		o.entries = entries
	}
}

// WithContentDir serves markdown content from dir.
func WithContentDir(dir string) ServerOption {
	return func(o *serverOptions) {
		o.contentDir = dir
	}
}

// WithFilesDir serves /files/* from dir.
func WithFilesDir(dir string) ServerOption {
	return func(o *serverOptions) {
		o.cfg.FilesDir = dir
	}
}

// WithMetrics records into metrics instead of a throwaway instance.
func WithMetrics(metrics *observability.Metrics) ServerOption {
	return func(o *serverOptions) {
		o.cfg.Metrics = metrics
	}
}

// WithRecorder wires an analytics recorder.
func WithRecorder(recorder *analytics.Recorder) ServerOption {
	return func(o *serverOptions) {
		o.cfg.Recorder = recorder
	}
}

// NewServer constructs an httptest server running the site HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	o := serverOptions{
		cfg: httpserver.Config{
			Address:          ":0",
			Network:          string(components.Mainnet),
			BaseURL:          "https://near.org",
			GatewayScriptURL: "https://gateway.example.com/near-bos-webcomponent.js",
			Logger:           zaptest.NewLogger(t),
		},
		analyticsUpstream: "https://collector.example.com",
		entries:           components.DefaultEntries()[components.Mainnet],
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.contentDir == "" {
		o.contentDir = t.TempDir()
	}
	if o.cfg.Metrics == nil {
		o.cfg.Metrics = observability.NewMetrics("test")
	}

	cfg := o.cfg
	cfg.Policy = routing.MustCompile(routing.DefaultTable(o.analyticsUpstream, "strict-origin-when-cross-origin"))
	cfg.Resolver = components.NewResolver(components.NewRegistry(components.Mainnet, o.entries), cfg.Metrics)
	cfg.Content = content.NewStore(o.contentDir)

	sessions, err := session.NewManager(session.Config{HashKey: []byte(SessionHashKey)})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	cfg.Sessions = sessions

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
