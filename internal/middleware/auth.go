package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"participa/internal/auth"
	"participa/internal/models"
)

type contextKey string

const (
	CitizenIDKey contextKey = "citizen_id"
	RoleKey      contextKey = "role"
)

// AuthMiddleware validates bearer tokens issued by the auth subsystem
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the JWT token and adds the citizen to the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, WithCitizen(r, claims.CitizenID, claims.Role))
	})
}

// WithCitizen returns a copy of r carrying the authenticated citizen
func WithCitizen(r *http.Request, citizenID uint, role models.Role) *http.Request {
	ctx := context.WithValue(r.Context(), CitizenIDKey, citizenID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return r.WithContext(ctx)
}

// GetCitizenID retrieves the citizen ID from the request context
func GetCitizenID(r *http.Request) (uint, bool) {
	citizenID, ok := r.Context().Value(CitizenIDKey).(uint)
	return citizenID, ok && citizenID > 0
}

// GetRole retrieves the citizen's role from the request context
func GetRole(r *http.Request) (models.Role, bool) {
	role, ok := r.Context().Value(RoleKey).(models.Role)
	return role, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(code),
		"message": message,
	})
}
