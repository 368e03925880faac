package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/rollcall/internal/core"
)

// sessionID returns the curation session attached by the session middleware.
func sessionID(r *http.Request) string {
	return core.SessionIDFromContext(r.Context())
}

// entityParam returns the {entity} route parameter.
func entityParam(r *http.Request) string {
	return chi.URLParam(r, "entity")
}

// fieldParam returns the {field} route parameter.
func fieldParam(r *http.Request) string {
	return chi.URLParam(r, "field")
}

// idParam returns the {id} route parameter.
func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
