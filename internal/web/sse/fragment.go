package sse

import (
	"bytes"
	"context"
	"html"

	"github.com/a-h/templ"
)

// Fragment renders c inside a wrapper that htmx swaps out-of-band into the
// element with the given id
func Fragment(ctx context.Context, id string, c templ.Component) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div id="` + html.EscapeString(id) + `" hx-swap-oob="true">`)
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	buf.WriteString(`</div>`)
	return buf.String(), nil
}
