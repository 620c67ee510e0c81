package middleware

import (
	"context"
	"fmt"
	"net/http"

	"participa/internal/service"
)

// Auditor records audit entries
type Auditor interface {
	Log(ctx context.Context, entry service.AuditEntry)
}

// AuditMiddleware records successful ledger writes in the audit trail
type AuditMiddleware struct {
	auditor Auditor
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditor Auditor) *AuditMiddleware {
	return &AuditMiddleware{
		auditor: auditor,
	}
}

// Log audits action after the wrapped handler succeeds. It must run inside
// Authenticate so the acting citizen is known.
func (m *AuditMiddleware) Log(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w, false)
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 400 {
				return
			}

			var citizenID *uint
			if id, ok := GetCitizenID(r); ok {
				citizenID = &id
			}

			details := fmt.Sprintf("method=%s status=%d", r.Method, wrapped.statusCode)
			if location := wrapped.Header().Get("Location"); location != "" {
				details += " location=" + location
			}
			if requestID := GetRequestID(r.Context()); requestID != "" {
				details += " request_id=" + requestID
			}

			// The response is already sent; a client disconnect must not drop the entry
			m.auditor.Log(context.WithoutCancel(r.Context()), service.AuditEntry{
				CitizenID: citizenID,
				Action:    action,
				Resource:  r.URL.Path,
				Details:   details,
				IP:        getIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}
