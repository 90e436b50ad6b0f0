package handler

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/templates/layout"
)

// pageData builds the common page data from the request context
func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:   title,
		Profile: middleware.GetSnapshot(r.Context()).Profile,
		Flash:   middleware.GetFlash(r.Context()),
	}
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
