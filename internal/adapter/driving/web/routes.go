package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
// Every POST form is CSRF protected.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /verify", limitForm(requireCSRF(h.Verify)))
	mux.HandleFunc("POST /share", limitForm(requireCSRF(h.Share)))
	mux.HandleFunc("POST /options", limitForm(requireCSRF(h.Options)))
	mux.HandleFunc("POST /auth/clear", limitForm(requireCSRF(h.ClearAuth)))
}
