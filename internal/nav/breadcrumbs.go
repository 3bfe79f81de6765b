package nav

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Crumb is a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// Breadcrumbs builds breadcrumb entries for currentPath, always starting at
// Home. Segments that match a taxonomy link reuse the link title.
func Breadcrumbs(currentPath string, categories []Category) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", Label: "Home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean("/" + strings.TrimPrefix(currentPath, "/"))
	if clean == "/" {
		crumbs[0].Active = true
		return crumbs
	}
	titles := linkTitles(categories)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	href := ""
	for i, part := range parts {
		href += "/" + part
		label, ok := titles[href]
		if !ok {
			label = titleFromSegment(part)
		}
		crumbs = append(crumbs, Crumb{Href: href, Label: label, Active: i == len(parts)-1})
	}
	return crumbs
}

func linkTitles(categories []Category) map[string]string {
	out := map[string]string{}
	for _, c := range categories {
		for _, s := range c.Sections {
			for _, l := range s.Links {
				if l.IsExternal() {
					continue
				}
				if _, seen := out[l.URL]; !seen {
					out[l.URL] = l.Title
				}
			}
		}
	}
	return out
}

func titleFromSegment(seg string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(s)
}
