package views

import (
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a full HTML page with the given status.
func Render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return component.Render(r.Context(), w)
}
