package nav

// DesktopItem is one trigger plus its panel. Panels render closed; which one
// is open is a single active index kept by the browser as triggers are hovered
// or focused.
type DesktopItem struct {
	Title    string
	Slug     string
	Sections []Section
	// CurrentComponent is the selected component source, set only on the
	// Develop panel and only while a selection exists.
	CurrentComponent string
}

// DesktopMenu is the view model of the wide-viewport menu.
type DesktopMenu struct {
	Items []DesktopItem
}

// BuildDesktopMenu filters categories for the desktop surface. currentSrc is
// the current-component selection; an empty value leaves the Develop panel
// without it.
func BuildDesktopMenu(categories []Category, currentSrc string) DesktopMenu {
	visible := Filter(categories, SurfaceDesktop)
	items := make([]DesktopItem, 0, len(visible))
	for _, c := range visible {
		item := DesktopItem{
			Title:    c.Title,
			Slug:     c.Slug(),
			Sections: c.Sections,
		}
		if c.Title == DevelopCategory && currentSrc != "" {
			item.CurrentComponent = currentSrc
		}
		items = append(items, item)
	}
	return DesktopMenu{Items: items}
}
