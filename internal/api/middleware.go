package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
	"github.com/olugbengaakindele/handyhubclean/internal/db"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

type contextKey struct {
	name string
}

// UserContextKey carries the authenticated models.User through the request.
var UserContextKey = &contextKey{"User"}

// CurrentUser pulls the authenticated user from the request context.
func CurrentUser(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(models.User)
	return user, ok
}

// AuthMiddleware resolves the session cookie to a user, stores the user in
// the request context, and runs the post-request presence hook after the
// handler finishes. Unauthenticated requests get a 401.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(constants.SESSION_COOKIE_NAME)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, ok := a.Sessions.Resolve(cookie.Value)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "Session expired")
			return
		}

		user, err := db.GetUserByID(userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("AuthMiddleware: session user not found.")
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))

		// Post-request presence hook: stamp last_seen_at at most once per
		// write window. The response has already been sent; a failed write
		// only costs presence freshness.
		now := time.Now()
		if a.Sessions.ShouldWriteLastSeen(user.ID, now) {
			if err := db.UpdateLastSeen(user.ID, now); err != nil {
				log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last_seen_at.")
			}
		}
	})
}

// RoleMiddleware gates a subtree on the user's account role.
func (a *API) RoleMiddleware(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			if user.Role != requiredRole {
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
