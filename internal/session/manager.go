// Package session keeps the per-browser navigation state in a signed cookie.
// Nothing is stored server-side and the cookie expires with the browser
// session, so every new session starts from the default rail state.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"near.org/web/internal/nav"
	"near.org/web/internal/platform/requestctx"
)

const (
	defaultCookieName = "near_nav"
	defaultCookiePath = "/"
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Data is the cookie payload.
type Data struct {
	Nav         nav.State `json:"nav"`
	AnonymousID string    `json:"aid,omitempty"`
}

// Config controls cookie encoding.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// Manager encodes and decodes Data into cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) < 32 {
		return nil, fmt.Errorf("%w: hash key must be at least 32 bytes", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{cfg: cfg, codec: codec}, nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load decodes the request's cookie. A missing or tampered cookie yields a
// fresh Data and false.
func (m *Manager) Load(r *http.Request) (Data, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return Data{}, false
	}
	var d Data
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &d); err != nil {
		return Data{}, false
	}
	return d, true
}

// Save writes d to the response. Call it before the response header is written.
func (m *Manager) Save(w http.ResponseWriter, d Data) error {
	encoded, err := m.codec.Encode(m.cfg.CookieName, d)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
	return nil
}

type contextKey struct{}

// WithData stores d on ctx.
func WithData(ctx context.Context, d Data) context.Context {
	return context.WithValue(ctx, contextKey{}, d)
}

// FromContext returns the session data loaded by Middleware.
func FromContext(ctx context.Context) Data {
	d, _ := ctx.Value(contextKey{}).(Data)
	return d
}

// Middleware loads the session into the request context. Requests without a
// valid cookie get a new anonymous id, written back immediately so analytics
// events from the same browser share it.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, _ := m.Load(r)
			if d.AnonymousID == "" {
				d.AnonymousID = ulid.Make().String()
				if err := m.Save(w, d); err != nil {
					requestctx.Logger(r.Context()).Warn("save new session failed", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r.WithContext(WithData(r.Context(), d)))
		})
	}
}
