package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PreviewGet serves a live preview handle. Revoked or unknown handles are
// indistinguishable: both are gone.
func (a *App) PreviewGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "preview_id")
	data, mime, ok := a.Previews.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "preview not found")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
