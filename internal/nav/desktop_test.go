package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDesktopMenuCurrentComponent(t *testing.T) {
	t.Parallel()

	withSelection := BuildDesktopMenu(DefaultCategories(), "near/widget/NearOrg.HomePage")
	for _, item := range withSelection.Items {
		if item.Title == DevelopCategory {
			require.Equal(t, "near/widget/NearOrg.HomePage", item.CurrentComponent)
		} else {
			require.Empty(t, item.CurrentComponent, item.Title)
		}
	}

	without := BuildDesktopMenu(DefaultCategories(), "")
	for _, item := range without.Items {
		require.Empty(t, item.CurrentComponent, item.Title)
	}
}

func TestBuildDesktopMenuSkipsMobileOnlyCategories(t *testing.T) {
	t.Parallel()

	menu := BuildDesktopMenu(DefaultCategories(), "")
	var titles []string
	for _, item := range menu.Items {
		titles = append(titles, item.Title)
	}
	require.NotContains(t, titles, "Resources")
	require.Len(t, titles, 3)
}
