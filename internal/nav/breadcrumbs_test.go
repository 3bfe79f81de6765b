package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBreadcrumbs(t *testing.T) {
	t.Parallel()

	crumbs := Breadcrumbs("/", DefaultCategories())
	require.Equal(t, []Crumb{{Href: "/", Label: "Home", Active: true}}, crumbs)

	crumbs = Breadcrumbs("/papers/the-official-near-white-paper", DefaultCategories())
	require.Equal(t, []Crumb{
		{Href: "/", Label: "Home"},
		{Href: "/papers", Label: "Papers"},
		{Href: "/papers/the-official-near-white-paper", Label: "The Official Near White Paper", Active: true},
	}, crumbs)

	crumbs = Breadcrumbs("/ecosystem/get-funding", DefaultCategories())
	require.Equal(t, "Ecosystem", crumbs[1].Label)
	require.Equal(t, "Get Funding", crumbs[2].Label)
}
