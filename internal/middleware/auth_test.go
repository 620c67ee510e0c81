package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/auth"
	"participa/internal/config"
	"participa/internal/models"
)

func newAuthService(t *testing.T, expiration time.Duration) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(&config.JWTConfig{Expiration: expiration})
	require.NoError(t, err)
	return svc
}

func echoCitizen(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetCitizenID(r)
		require.True(t, ok)
		role, ok := GetRole(r)
		require.True(t, ok)
		w.Header().Set("X-Citizen", string(role))
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, id)
	})
}

func TestAuthenticate(t *testing.T) {
	svc := newAuthService(t, time.Hour)
	other := newAuthService(t, time.Hour)
	pemKey, err := svc.EncodePrivateKey()
	require.NoError(t, err)
	expired, err := auth.NewServiceFromPEM(pemKey, &config.JWTConfig{Expiration: -time.Minute})
	require.NoError(t, err)

	valid, err := svc.GenerateToken(3, models.RoleOrganizer)
	require.NoError(t, err)
	foreign, err := other.GenerateToken(3, models.RoleOrganizer)
	require.NoError(t, err)
	stale, err := expired.GenerateToken(3, models.RoleOrganizer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"signed by another key", "Bearer " + foreign, http.StatusUnauthorized},
		{"expired", "Bearer " + stale, http.StatusUnauthorized},
	}

	mw := NewAuthMiddleware(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/processes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(echoCitizen(t)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "3", rec.Body.String())
				assert.Equal(t, "organizer", rec.Header().Get("X-Citizen"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		required models.Role
		want     int
	}{
		{"citizen on citizen route", models.RoleCitizen, models.RoleCitizen, http.StatusOK},
		{"citizen on organizer route", models.RoleCitizen, models.RoleOrganizer, http.StatusForbidden},
		{"organizer on organizer route", models.RoleOrganizer, models.RoleOrganizer, http.StatusOK},
		{"admin on organizer route", models.RoleAdmin, models.RoleOrganizer, http.StatusOK},
		{"organizer on admin route", models.RoleOrganizer, models.RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := WithCitizen(httptest.NewRequest(http.MethodPost, "/", nil), 1, tt.role)
			rec := httptest.NewRecorder()
			RequireRole(tt.required)(echoCitizen(t)).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireRole(models.RoleCitizen)(echoCitizen(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
