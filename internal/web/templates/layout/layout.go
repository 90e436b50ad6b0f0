// Package layout holds the page shell shared by every web page
package layout

import "github.com/davidwalker2235/hcongame/internal/model"

// FlashMessage represents a one-time notification message
type FlashMessage struct {
	Type    string // "success", "error", "info", "warning"
	Message string
}

// PageData contains common data for all pages
type PageData struct {
	Title   string
	Profile *model.Profile
	Flash   *FlashMessage
	// HideNav is set on pages reachable without a valid session
	HideNav bool
}

// NavItem is one link of the navigation bar
type NavItem struct {
	Href  string
	Label string
}

// NavItems are the links shown to players
var NavItems = []NavItem{
	{Href: "/levels", Label: "Levels"},
	{Href: "/ranking", Label: "Ranking"},
	{Href: "/about", Label: "About"},
}

const siteTitle = "ERNI Challenge"

func documentTitle(title string) string {
	if title == "" {
		return siteTitle
	}
	return title + " | " + siteTitle
}
