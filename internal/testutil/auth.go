package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"participa/internal/auth"
	"participa/internal/config"
	"participa/internal/models"
)

// AuthHelper signs bearer tokens for tests
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates an auth helper with an ephemeral signing key
func NewAuthHelper(t *testing.T) *AuthHelper {
	t.Helper()

	svc, err := auth.NewService(&config.JWTConfig{Expiration: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	return &AuthHelper{Service: svc}
}

// Token signs a token for the citizen
func (h *AuthHelper) Token(t *testing.T, citizen *models.Citizen) string {
	t.Helper()

	token, err := h.Service.GenerateToken(citizen.ID, citizen.Role)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// AddAuthHeader adds an authorization header to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, citizen *models.Citizen) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+h.Token(t, citizen))
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}
