package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/models"
	"participa/internal/service"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []service.AuditEntry
}

func (a *recordingAuditor) Log(_ context.Context, entry service.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func TestAuditMiddlewareRecordsSuccess(t *testing.T) {
	auditor := &recordingAuditor{}
	mw := NewAuditMiddleware(auditor)

	handler := mw.Log(service.ActionVoteCast)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/api/v1/proposals/5/my-vote")
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/votes", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "test-agent")
	req = WithCitizen(req, 11, models.RoleCitizen)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Len(t, auditor.entries, 1)
	entry := auditor.entries[0]
	assert.Equal(t, service.ActionVoteCast, entry.Action)
	assert.Equal(t, "/api/v1/votes", entry.Resource)
	require.NotNil(t, entry.CitizenID)
	assert.Equal(t, uint(11), *entry.CitizenID)
	assert.Equal(t, "203.0.113.9", entry.IP)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.Contains(t, entry.Details, "status=201")
	assert.Contains(t, entry.Details, "location=/api/v1/proposals/5/my-vote")
}

func TestAuditMiddlewareSkipsFailures(t *testing.T) {
	auditor := &recordingAuditor{}
	handler := NewAuditMiddleware(auditor).Log(service.ActionVoteCast)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, WithCitizen(httptest.NewRequest(http.MethodPost, "/api/v1/votes", nil), 11, models.RoleCitizen))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, auditor.entries)
}
