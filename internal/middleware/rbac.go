package middleware

import (
	"log/slog"
	"net/http"

	"participa/internal/models"
)

// RequireRole rejects citizens whose token role ranks below role.
// Admins satisfy organizer routes.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			citizenID, ok := GetCitizenID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Citizen not authenticated")
				return
			}

			current, ok := GetRole(r)
			if !ok || !current.Satisfies(role) {
				slog.Warn("Insufficient role",
					"citizen_id", citizenID,
					"role", current,
					"required", role,
					"path", r.URL.Path,
				)
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
