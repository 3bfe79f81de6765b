package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"near.org/web/internal/components"
	"near.org/web/internal/nav"
	"near.org/web/internal/selection"
	"near.org/web/internal/seo"
)

func render(t *testing.T, ctx context.Context, c templ.Component) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return doc
}

func TestDesktopMenuTriggersReportHover(t *testing.T) {
	t.Parallel()

	doc := render(t, context.Background(), DesktopMenu(nav.DefaultCategories(), ""))

	triggers := doc.Find("button.desktop-menu__trigger")
	require.Equal(t, 3, triggers.Length(), "mobile-only categories are not rendered")
	triggers.Each(func(_ int, s *goquery.Selection) {
		require.Equal(t, HoverEventPath, s.AttrOr("hx-post", ""))
		require.Equal(t, "mouseenter", s.AttrOr("hx-trigger", ""))
		require.Equal(t, "none", s.AttrOr("hx-swap", ""))
	})
	require.JSONEq(t, `{"category":"Develop"}`, triggers.Eq(1).AttrOr("hx-vals", ""))

	require.Equal(t, 0, doc.Find(".desktop-menu__current-component").Length())
	require.Equal(t, 3, doc.Find(".desktop-menu__panel[hidden]").Length())

	ext := doc.Find(`a[href="https://docs.near.org"]`)
	require.Equal(t, "_blank", ext.AttrOr("target", ""))
	internal := doc.Find(`a[href="/papers"]`)
	_, hasTarget := internal.Attr("target")
	require.False(t, hasTarget)
}

func TestDesktopMenuShowsCurrentComponent(t *testing.T) {
	t.Parallel()

	doc := render(t, context.Background(), DesktopMenu(nav.DefaultCategories(), "near/widget/NearOrg.Papers.Index"))

	current := doc.Find(".desktop-menu__current-component")
	require.Equal(t, 1, current.Length())
	require.Equal(t, "menu-panel-develop", current.Parent().AttrOr("id", ""))
	require.Equal(t, "/near/widget/NearOrg.Papers.Index", current.Find("a").AttrOr("href", ""))
}

func TestDesktopMenuRendersEveryPanelClosed(t *testing.T) {
	t.Parallel()

	doc := render(t, context.Background(), DesktopMenu(nav.DefaultCategories(), ""))

	items := doc.Find("li.desktop-menu__item")
	require.Equal(t, 3, items.Length())
	require.Equal(t, 0, doc.Find(`li[data-state="open"]`).Length())
	require.Equal(t, 0, doc.Find(`button[aria-expanded="true"]`).Length())
	items.Each(func(_ int, s *goquery.Selection) {
		trigger := s.Find(".desktop-menu__trigger")
		panel := s.Find(".desktop-menu__panel")
		require.Equal(t, panel.AttrOr("id", ""), trigger.AttrOr("aria-controls", ""))
		_, hidden := panel.Attr("hidden")
		require.True(t, hidden)
	})
}

func TestLinkURLsAreSanitised(t *testing.T) {
	t.Parallel()

	categories := []nav.Category{{
		Title:      "Develop",
		Visibility: nav.VisibleAll,
		Sections: []nav.Section{{Links: []nav.Link{
			{Title: "Bad", URL: "javascript:alert(1)"},
			{Title: "Docs", URL: "https://docs.near.org"},
		}}},
	}}
	doc := render(t, context.Background(), DesktopMenu(categories, ""))

	links := doc.Find("a.desktop-menu__link")
	require.Equal(t, 2, links.Length())
	require.Equal(t, string(templ.FailedSanitizationURL), links.Eq(0).AttrOr("href", ""))
	require.Equal(t, "https://docs.near.org", links.Eq(1).AttrOr("href", ""))

	rail := render(t, context.Background(), Sidebar(nav.BuildSidebar(nav.State{ExpandedDrawer: "develop"}, "/", categories)))
	require.Equal(t, string(templ.FailedSanitizationURL), rail.Find("#drawer-develop a").First().AttrOr("href", ""))
}

func TestSidebarHighlightAndTooltips(t *testing.T) {
	t.Parallel()

	collapsed := render(t, context.Background(), Sidebar(nav.BuildSidebar(nav.State{}, "/documentation/foo", nav.DefaultCategories())))
	active := collapsed.Find(`a[aria-current="page"]`)
	require.Equal(t, 1, active.Length())
	require.Equal(t, "/documentation", active.AttrOr("href", ""))
	require.Equal(t, "Documentation", active.AttrOr("data-tooltip", ""))
	require.Equal(t, "false", collapsed.Find("aside").AttrOr("data-expanded", ""))

	expanded := render(t, context.Background(), Sidebar(nav.BuildSidebar(nav.State{SidebarExpanded: true}, "/", nil)))
	require.Equal(t, 0, expanded.Find("[data-tooltip]").Length(), "tooltips are off while expanded")
	require.Equal(t, "true", expanded.Find("aside").AttrOr("data-expanded", ""))

	drawer := render(t, context.Background(), Sidebar(nav.BuildSidebar(nav.State{SidebarExpanded: true, ExpandedDrawer: "develop"}, "/documentation", nav.DefaultCategories())))
	require.Equal(t, 0, drawer.Find(`a[aria-current="page"]`).Length())
	require.Equal(t, "false", drawer.Find("aside").AttrOr("data-expanded", ""))
	_, hidden := drawer.Find("#drawer-develop").Attr("hidden")
	require.False(t, hidden)
	_, hidden = drawer.Find("#drawer-use").Attr("hidden")
	require.True(t, hidden)
	panel := drawer.Find("#drawer-develop")
	require.Equal(t, "drawer-panel", panel.AttrOr("data-nav-click", ""))
	require.Equal(t, "develop", panel.AttrOr("data-nav-drawer", ""))

	aside := drawer.Find("aside")
	require.Equal(t, SidebarClickPath, aside.AttrOr("hx-post", ""))
	require.Equal(t, "click consume", drawer.Find(".sidebar__toggle").AttrOr("hx-trigger", ""))
}

func TestLayoutMenuSeesComponentSelection(t *testing.T) {
	t.Parallel()

	ctx := selection.WithCell(context.Background(), selection.NewCell())
	mount := components.NewMount(
		components.Reference{Key: components.PapersPage, Src: "near/widget/NearOrg.Papers.Index"},
		components.Props{"docs": map[string]string{"doomslug": "/papers/doomslug"}},
	)
	doc := render(t, ctx, Layout(Page{
		Meta:       seo.New("https://near.org", "/papers", "NEAR | Papers", "Join us as we dive deep into our technology.", ""),
		JSONLD:     []string{seo.JSON(seo.WebSite("NEAR", "https://near.org"))},
		Categories: nav.DefaultCategories(),
		Sidebar:    nav.BuildSidebar(nav.State{}, "/papers", nav.DefaultCategories()),
		Body:       ComponentPage(mount, "mainnet"),
	}))

	require.Equal(t, "NEAR | Papers", doc.Find("title").Text())
	require.Equal(t, "https://near.org/papers", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	require.Equal(t, 1, doc.Find(`script[type="application/ld+json"]`).Length())

	viewer := doc.Find("near-social-viewer")
	require.Equal(t, "near/widget/NearOrg.Papers.Index", viewer.AttrOr("src", ""))
	require.JSONEq(t, `{"docs":{"doomslug":"/papers/doomslug"}}`, viewer.AttrOr("initialprops", ""))

	require.Equal(t, "/near/widget/NearOrg.Papers.Index", doc.Find(".desktop-menu__current-component a").AttrOr("href", ""))
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	doc := render(t, context.Background(), ErrorPage(502, ""))
	require.Equal(t, "502", doc.Find("h1").Text())
	require.Equal(t, "Bad Gateway", doc.Find("p").Text())
}
