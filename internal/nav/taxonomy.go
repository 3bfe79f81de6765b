// Package nav holds the site's navigation taxonomy and the state rules of the
// two surfaces that render it: the desktop menu and the compact side rail.
package nav

import (
	"fmt"
	"strings"
)

// Visibility says which surfaces render a category.
type Visibility int

const (
	VisibleAll Visibility = iota + 1
	VisibleDesktop
	VisibleMobile
)

// ParseVisibility maps a taxonomy tag onto Visibility. Unknown tags are an
// error rather than silently hiding the category everywhere.
func ParseVisibility(tag string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "all":
		return VisibleAll, nil
	case "desktop":
		return VisibleDesktop, nil
	case "mobile":
		return VisibleMobile, nil
	default:
		return 0, fmt.Errorf("nav: unknown visibility %q", tag)
	}
}

func (v Visibility) String() string {
	switch v {
	case VisibleAll:
		return "all"
	case VisibleDesktop:
		return "desktop"
	case VisibleMobile:
		return "mobile"
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) {
	if v < VisibleAll || v > VisibleMobile {
		return nil, fmt.Errorf("nav: invalid visibility %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Visibility) UnmarshalText(text []byte) error {
	parsed, err := ParseVisibility(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Surface is a rendering target for the taxonomy.
type Surface int

const (
	SurfaceDesktop Surface = iota
	SurfaceCompact
)

// Link is a single navigation entry.
type Link struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// IsExternal reports whether the link leaves the site.
func (l Link) IsExternal() bool {
	return strings.HasPrefix(l.URL, "http")
}

// Target returns the anchor target attribute for the link.
func (l Link) Target() string {
	if l.IsExternal() {
		return "_blank"
	}
	return ""
}

// Rel returns the anchor rel attribute for the link.
func (l Link) Rel() string {
	if l.IsExternal() {
		return "noopener noreferrer"
	}
	return ""
}

// Section groups links under an optional title.
type Section struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Links []Link `json:"links" yaml:"links"`
}

// Category is a top-level entry in the taxonomy.
type Category struct {
	Title      string     `json:"title" yaml:"title"`
	Visibility Visibility `json:"visible" yaml:"visible"`
	Sections   []Section  `json:"sections" yaml:"sections"`
}

// VisibleOn reports whether the category renders on surface. The desktop menu
// reads all|desktop; the compact rail reads the complementary all|mobile.
func (c Category) VisibleOn(s Surface) bool {
	switch c.Visibility {
	case VisibleAll:
		return true
	case VisibleDesktop:
		return s == SurfaceDesktop
	case VisibleMobile:
		return s == SurfaceCompact
	default:
		return false
	}
}

// Slug is a stable identifier for the category, used for drawer ids.
func (c Category) Slug() string {
	return slugify(c.Title)
}

// Filter returns the categories visible on surface, in taxonomy order.
func Filter(categories []Category, s Surface) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.VisibleOn(s) {
			out = append(out, c)
		}
	}
	return out
}

// DevelopCategory is the category that hosts the current-component panel.
const DevelopCategory = "Develop"

// DefaultCategories returns the site taxonomy. Each call returns a fresh copy.
func DefaultCategories() []Category {
	return []Category{
		{
			Title:      "Use",
			Visibility: VisibleAll,
			Sections: []Section{
				{
					Links: []Link{
						{Title: "Applications", URL: "/applications"},
						{Title: "Gateways", URL: "/gateways"},
						{Title: "News", URL: "/nearweekapp.near/widget/nearweek.com"},
					},
				},
				{
					Title: "Wallets",
					Links: []Link{
						{Title: "Wallet Selector", URL: "https://wallet.near.org"},
						{Title: "NEAR Explorer", URL: "https://nearblocks.io"},
					},
				},
			},
		},
		{
			Title:      DevelopCategory,
			Visibility: VisibleAll,
			Sections: []Section{
				{
					Title: "Documentation",
					Links: []Link{
						{Title: "Overview", URL: "/documentation"},
						{Title: "Developer Docs", URL: "https://docs.near.org"},
						{Title: "Data Availability", URL: "/data-availability"},
						{Title: "Papers", URL: "/papers"},
					},
				},
				{
					Title: "Tools",
					Links: []Link{
						{Title: "GitHub", URL: "https://github.com/near"},
						{Title: "Standards & Proposals", URL: "https://github.com/near/NEPs"},
						{Title: "Developer Governance", URL: "https://neardevgov.org/"},
					},
				},
			},
		},
		{
			Title:      "Ecosystem",
			Visibility: VisibleDesktop,
			Sections: []Section{
				{
					Links: []Link{
						{Title: "Get Funding", URL: "/ecosystem/get-funding"},
						{Title: "Events", URL: "https://near.org/events"},
						{Title: "ETHDenver", URL: "/ethdenver2024"},
						{Title: "Careers", URL: "https://careers.near.org/"},
					},
				},
			},
		},
		{
			Title:      "Resources",
			Visibility: VisibleMobile,
			Sections: []Section{
				{
					Links: []Link{
						{Title: "Support", URL: "/contact-us"},
						{Title: "Blog", URL: "https://near.org/blog"},
						{Title: "Careers", URL: "https://careers.near.org/"},
					},
				},
			},
		},
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
