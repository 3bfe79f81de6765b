package ui

import "near.org/web/internal/components"

// PageSpec wires a site path to the widget that renders it.
type PageSpec struct {
	Path        string
	Key         components.Key
	Title       string
	Description string
	Props       components.Props
}

// Pages returns the component-backed pages. Empty titles and descriptions
// fall back to the site defaults.
func Pages() []PageSpec {
	return []PageSpec{
		{Path: "/", Key: components.HomePage},
		{
			Path:        "/papers",
			Key:         components.PapersPage,
			Title:       "NEAR | Papers",
			Description: "Join us as we dive deep into our technology.",
			Props: components.Props{
				"docs": map[string]string{
					"doomslug":               "/papers/doomslug",
					"nightshade":             "/papers/nightshade",
					"whitePaperNearProtocol": "/papers/the-official-near-white-paper",
				},
			},
		},
		{Path: "/data-availability", Key: components.DataAvailabilityPage, Title: "NEAR | Data Availability"},
		{Path: "/ethdenver2024", Key: components.EthDenverPage, Title: "NEAR | ETHDenver 2024"},
		{Path: "/applications", Key: components.ApplicationsPage, Title: "NEAR | Applications"},
		{Path: "/documentation", Key: components.DocumentationPage, Title: "NEAR | Documentation"},
		{Path: "/contact-us", Key: components.ContactUsPage, Title: "NEAR | Contact Us"},
		{Path: "/ecosystem/get-funding", Key: components.GetFundingPage, Title: "NEAR | Get Funding"},
		{Path: "/gateways", Key: components.GatewaysPage, Title: "NEAR | Gateways"},
	}
}
