// Package content serves the site's markdown pages (papers and similar long
// form documents) from a directory of files with YAML front matter.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no page exists for a kind and slug.
var ErrNotFound = errors.New("content: not found")

const (
	defaultDir = "content"
	defaultTTL = 5 * time.Minute
)

// Page is a rendered markdown document.
type Page struct {
	Kind        string
	Slug        string
	Title       string
	Summary     string
	Authors     []string
	Published   time.Time
	UpdatedAt   time.Time
	DownloadURL string
	SourceURL   string
	// HTML is the sanitised rendering of the body.
	HTML string
	SEO  SEO
}

// SEO holds optional metadata overrides.
type SEO struct {
	Title       string
	Description string
	OGImage     string
}

type frontMatter struct {
	Title       string   `yaml:"title"`
	Summary     string   `yaml:"summary"`
	Authors     []string `yaml:"authors"`
	Published   string   `yaml:"published"`
	UpdatedAt   string   `yaml:"updated_at"`
	DownloadURL string   `yaml:"download_url"`
	SourceURL   string   `yaml:"source_url"`
	SEO         struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		OGImage     string `yaml:"og_image"`
	} `yaml:"seo"`
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Store reads pages from <dir>/<kind>/<slug>.md and caches the rendered result.
type Store struct {
	dir    string
	ttl    time.Duration
	md     goldmark.Markdown
	policy *bluemonday.Policy
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option customises a Store.
type Option func(*Store)

// WithCacheTTL overrides how long rendered pages are cached. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDir
	}
	s := &Store{
		dir: dir,
		ttl: defaultTTL,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: newHTMLPolicy(),
		now:    time.Now,
		cache:  map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "code")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Dir returns the content root.
func (s *Store) Dir() string { return s.dir }

// Get returns the page for kind and slug.
func (s *Store) Get(kind, slug string) (Page, error) {
	kind = sanitizeSegment(kind)
	slug = sanitizeSegment(slug)
	if kind == "" || slug == "" {
		return Page{}, ErrNotFound
	}

	key := kind + "|" + slug
	if page, ok := s.cached(key); ok {
		return page, nil
	}
	page, err := s.read(kind, slug)
	if err != nil {
		return Page{}, err
	}
	s.store(key, page)
	return clonePage(page), nil
}

// List returns every page of kind, newest first.
func (s *Store) List(kind string) ([]Page, error) {
	kind = sanitizeSegment(kind)
	if kind == "" {
		return nil, ErrNotFound
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("content: list %s: %w", kind, err)
	}
	var pages []Page
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		page, err := s.Get(kind, strings.TrimSuffix(e.Name(), ".md"))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Published.After(pages[j].Published)
	})
	return pages, nil
}

func (s *Store) read(kind, slug string) (Page, error) {
	file := filepath.Join(s.dir, kind, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("content: read %s: %w", file, err)
	}

	fm, body := splitFrontMatter(string(data))
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", file, err)
	}

	page := Page{
		Kind:        kind,
		Slug:        slug,
		Title:       strings.TrimSpace(front.Title),
		Summary:     strings.TrimSpace(front.Summary),
		Authors:     front.Authors,
		Published:   parseDate(front.Published),
		UpdatedAt:   parseDate(front.UpdatedAt),
		DownloadURL: strings.TrimSpace(front.DownloadURL),
		SourceURL:   strings.TrimSpace(front.SourceURL),
		HTML:        s.policy.Sanitize(buf.String()),
		SEO: SEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
			OGImage:     strings.TrimSpace(front.SEO.OGImage),
		},
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	if page.UpdatedAt.IsZero() {
		if info, err := os.Stat(file); err == nil {
			page.UpdatedAt = info.ModTime()
		}
	}
	return page, nil
}

func (s *Store) cached(key string) (Page, bool) {
	if s.ttl == 0 {
		return Page{}, false
	}
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return Page{}, false
	}
	return clonePage(entry.page), true
}

func (s *Store) store(key string, page Page) {
	if s.ttl == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{page: clonePage(page), expires: s.now().Add(s.ttl)}
}

func clonePage(p Page) Page {
	cp := p
	cp.Authors = append([]string(nil), p.Authors...)
	return cp
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func sanitizeSegment(v string) string {
	v = strings.Trim(strings.TrimSpace(strings.ToLower(v)), "/")
	if v == "" || strings.Contains(v, "..") || strings.ContainsAny(v, `/\`) {
		return ""
	}
	return v
}
