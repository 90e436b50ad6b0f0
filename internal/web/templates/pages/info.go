package pages

import "github.com/davidwalker2235/hcongame/internal/web/templates/layout"

// WrongAccessMessage is shown when a request has no usable session
const WrongAccessMessage = "Incorrect access. A valid ID is required."

// AboutData is the data for the about page
type AboutData struct {
	layout.PageData
	Nickname string
	Email    string
}

// ErrorData is the data for the error page
type ErrorData struct {
	layout.PageData
	Message string
}
