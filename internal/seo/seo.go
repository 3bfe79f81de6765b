package seo

import (
	"net/url"
	"strings"
)

const (
	SiteName           = "NEAR"
	DefaultTitle       = "NEAR | Blockchains, Abstracted"
	DefaultDescription = "NEAR is the chain abstraction stack, empowering builders to create apps that scale to billions of users and across all blockchains."
	TwitterSite        = "@NEARProtocol"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}

// New fills in page meta, falling back to site defaults for empty values.
func New(baseURL, path, title, description, image string) Meta {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	canonical := Absolute(baseURL, path)
	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
		},
		Twitter: Twitter{Card: card, Site: TwitterSite, Image: image},
	}
}

// Absolute joins baseURL and path into an absolute URL without query or fragment.
func Absolute(baseURL, path string) string {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return path
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	return base.Scheme + "://" + base.Host + path
}
