package seo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	m := New("https://near.org/", "/papers?x=1", "", "", "")
	require.Equal(t, DefaultTitle, m.Title)
	require.Equal(t, DefaultDescription, m.Description)
	require.Equal(t, "https://near.org/papers", m.Canonical)
	require.Equal(t, "summary", m.Twitter.Card)

	m = New("https://near.org", "/papers", "NEAR | Papers", "Join us as we dive deep into our technology.", "https://near.org/og.png")
	require.Equal(t, "NEAR | Papers", m.OG.Title)
	require.Equal(t, "summary_large_image", m.Twitter.Card)
}

func TestJSONLD(t *testing.T) {
	t.Parallel()

	require.JSONEq(t, `{"@context":"https://schema.org","@type":"WebSite","name":"NEAR","url":"https://near.org"}`,
		JSON(WebSite("NEAR", "https://near.org")))

	article := ScholarlyArticle("Doomslug", "https://near.org/papers/doomslug", []string{"A", "B"}, "2019-10-01")
	require.JSONEq(t, `{"@context":"https://schema.org","@type":"ScholarlyArticle","headline":"Doomslug","url":"https://near.org/papers/doomslug","author":[{"@type":"Person","name":"A"},{"@type":"Person","name":"B"}],"datePublished":"2019-10-01"}`,
		JSON(article))

	crumbs := BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://near.org/"}})
	require.Contains(t, JSON(crumbs), `"position":1`)

	require.Empty(t, JSON(map[string]any{"bad": make(chan int)}))
}
