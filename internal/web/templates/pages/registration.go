// Package pages holds the full pages of the web interface
package pages

import "github.com/davidwalker2235/hcongame/internal/web/templates/layout"

// RegistrationData is the data for the registration page
type RegistrationData struct {
	layout.PageData
	Nickname    string
	Email       string
	FieldErrors map[string]string
	Error       string
}
