package middleware

import (
	"net/http"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/logging"
)

// Session attaches a curation session to the request context, creating one
// and setting the cookie when the visitor has none or theirs expired.
func Session(store *core.SessionStore, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cookieName); err == nil {
				id = c.Value
			}

			sess, created := store.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   r.TLS != nil,
				})
				logging.FromContext(r.Context()).Debug("session started", "session", sess.ID)
			}

			ctx := core.ContextWithSessionID(r.Context(), sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
