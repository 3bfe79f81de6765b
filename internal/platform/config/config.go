package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile           = ".env"
	defaultPort              = "8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultEnvironment       = "local"
	defaultNetwork           = "mainnet"
	defaultBaseURL           = "https://near.org"
	defaultAnalyticsUpstream = "https://near.dataplane.rudderstack.com"
	defaultReferrerPolicy    = "strict-origin-when-cross-origin"
	defaultPermanentMaxAge   = 24 * time.Hour
	defaultGatewayScriptURL  = "https://ipfs.web4.near.page/ipfs/bafybeibbsw5v6glfvd6l5itu6gruzdmmi4xfqmvalyyywn4sxhfopqmjke/near-bos-webcomponent.js"
	defaultContentDir        = "content"
	defaultContentCacheTTL   = 5 * time.Minute
	defaultAnalyticsBuffer   = 256
	defaultAnalyticsTimeout  = 5 * time.Second
	defaultSessionCookie     = "near_nav"
	defaultLogLevel          = "info"
	minSessionKeyLength      = 32
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Site       SiteConfig
	Routing    RoutingConfig
	Components ComponentsConfig
	Content    ContentConfig
	Analytics  AnalyticsConfig
	Session    SessionConfig
	Log        LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address derived from Port.
func (s ServerConfig) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// SiteConfig describes the deployment the site renders for.
type SiteConfig struct {
	Environment string
	Network     string
	BaseURL     string
	DevMode     bool
}

// RoutingConfig controls the redirect/rewrite/header table.
type RoutingConfig struct {
	TableFile         string
	AnalyticsUpstream string
	ReferrerPolicy    string
	PermanentMaxAge   time.Duration
}

// ComponentsConfig points at the component registry overrides.
type ComponentsConfig struct {
	RegistryFile     string
	GatewayScriptURL string
}

// ContentConfig locates markdown content.
type ContentConfig struct {
	Dir      string
	CacheTTL time.Duration
}

// AnalyticsConfig configures the hover-event forwarder.
type AnalyticsConfig struct {
	WriteKey       string
	BufferSize     int
	ForwardTimeout time.Duration
	Debug          bool
}

// SessionConfig configures the navigation state cookie.
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	Secure     bool
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides and
// environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run injects PORT; the prefixed variable wins when both are set.
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "NEAR_WEB_PORT", port)

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     durationWithDefault(lookup, "NEAR_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "NEAR_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "NEAR_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "NEAR_WEB_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Site: SiteConfig{
			Environment: strings.ToLower(stringWithDefault(lookup, "NEAR_WEB_ENV", defaultEnvironment)),
			Network:     strings.ToLower(stringWithDefault(lookup, "NEAR_WEB_NETWORK_ID", defaultNetwork)),
			BaseURL:     strings.TrimRight(stringWithDefault(lookup, "NEAR_WEB_BASE_URL", defaultBaseURL), "/"),
			DevMode:     boolWithDefault(lookup, "NEAR_WEB_DEV", false),
		},
		Routing: RoutingConfig{
			TableFile:         stringWithDefault(lookup, "NEAR_WEB_ROUTING_FILE", ""),
			AnalyticsUpstream: strings.TrimRight(stringWithDefault(lookup, "NEAR_WEB_ANALYTICS_UPSTREAM", defaultAnalyticsUpstream), "/"),
			ReferrerPolicy:    stringWithDefault(lookup, "NEAR_WEB_REFERRER_POLICY", defaultReferrerPolicy),
			PermanentMaxAge:   durationWithDefault(lookup, "NEAR_WEB_PERMANENT_REDIRECT_MAX_AGE", defaultPermanentMaxAge),
		},
		Components: ComponentsConfig{
			RegistryFile:     stringWithDefault(lookup, "NEAR_WEB_COMPONENTS_FILE", ""),
			GatewayScriptURL: stringWithDefault(lookup, "NEAR_WEB_GATEWAY_SCRIPT_URL", defaultGatewayScriptURL),
		},
		Content: ContentConfig{
			Dir:      stringWithDefault(lookup, "NEAR_WEB_CONTENT_DIR", defaultContentDir),
			CacheTTL: durationWithDefault(lookup, "NEAR_WEB_CONTENT_CACHE_TTL", defaultContentCacheTTL),
		},
		Analytics: AnalyticsConfig{
			WriteKey:       stringWithDefault(lookup, "NEAR_WEB_ANALYTICS_WRITE_KEY", ""),
			BufferSize:     intWithDefault(lookup, "NEAR_WEB_ANALYTICS_BUFFER", defaultAnalyticsBuffer),
			ForwardTimeout: durationWithDefault(lookup, "NEAR_WEB_ANALYTICS_TIMEOUT", defaultAnalyticsTimeout),
			Debug:          boolWithDefault(lookup, "NEAR_WEB_ANALYTICS_DEBUG", false),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "NEAR_WEB_SESSION_COOKIE", defaultSessionCookie),
			HashKey:    stringWithDefault(lookup, "NEAR_WEB_SESSION_HASH_KEY", ""),
			BlockKey:   stringWithDefault(lookup, "NEAR_WEB_SESSION_BLOCK_KEY", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
	}
	cfg.Session.Secure = boolWithDefault(lookup, "NEAR_WEB_SESSION_SECURE", cfg.Site.Environment == "prod")

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "Server.WriteTimeout")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		invalid = append(invalid, "Server.ShutdownTimeout")
	}
	switch cfg.Site.Network {
	case "mainnet", "testnet":
	default:
		invalid = append(invalid, "Site.Network")
	}
	if !isAbsoluteURL(cfg.Site.BaseURL) {
		invalid = append(invalid, "Site.BaseURL")
	}
	if !isAbsoluteURL(cfg.Routing.AnalyticsUpstream) {
		invalid = append(invalid, "Routing.AnalyticsUpstream")
	}
	if strings.TrimSpace(cfg.Routing.ReferrerPolicy) == "" {
		invalid = append(invalid, "Routing.ReferrerPolicy")
	}
	if cfg.Routing.PermanentMaxAge < 0 {
		invalid = append(invalid, "Routing.PermanentMaxAge")
	}
	if cfg.Analytics.BufferSize <= 0 {
		invalid = append(invalid, "Analytics.BufferSize")
	}
	if cfg.Analytics.ForwardTimeout <= 0 {
		invalid = append(invalid, "Analytics.ForwardTimeout")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		invalid = append(invalid, "Session.CookieName")
	}
	if cfg.Session.HashKey != "" && len(cfg.Session.HashKey) < minSessionKeyLength {
		invalid = append(invalid, "Session.HashKey")
	}
	if cfg.Session.BlockKey != "" {
		switch len(cfg.Session.BlockKey) {
		case 16, 24, 32:
		default:
			invalid = append(invalid, "Session.BlockKey")
		}
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
