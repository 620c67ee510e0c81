package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"participa/internal/models"
	"participa/internal/repository"
)

// Audit actions
const (
	ActionVoteCast          = "vote.cast"
	ActionVoteChanged       = "vote.changed"
	ActionAllocationSubmit  = "budget.allocation_submitted"
	ActionProcessCreated    = "process.created"
	ActionProcessStatus     = "process.status_changed"
	ActionProposalCreated   = "proposal.created"
	ActionProposalStatus    = "proposal.status_changed"
	ActionBudgetCreated     = "budget.created"
	ActionBudgetCategory    = "budget.category_added"
	ActionBudgetStatus      = "budget.status_changed"
	ActionCommentCreated    = "comment.created"
	ActionDiscussionCreated = "discussion.created"
)

// AuditEntry is an audit event before the client IP is hashed
type AuditEntry struct {
	CitizenID *uint
	Action    string
	Resource  string
	Details   string
	IP        string
	UserAgent string
}

// AuditService handles audit logging. Client IPs are never stored in clear;
// they are replaced by a keyed BLAKE2b-256 digest.
type AuditService struct {
	auditRepo *repository.AuditRepository
	ipHashKey []byte
}

// NewAuditService creates a new audit service. ipHashKey may be empty in
// development and must be at most 64 bytes.
func NewAuditService(auditRepo *repository.AuditRepository, ipHashKey string) (*AuditService, error) {
	if len(ipHashKey) > blake2b.Size {
		return nil, fmt.Errorf("ip hash key must be at most %d bytes", blake2b.Size)
	}
	return &AuditService{
		auditRepo: auditRepo,
		ipHashKey: []byte(ipHashKey),
	}, nil
}

// HashIP returns the hex digest of ip, or "" for an empty ip
func (s *AuditService) HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	h, err := blake2b.New256(s.ipHashKey)
	if err != nil {
		// key length is checked in NewAuditService
		panic(err)
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// Log creates an audit log entry, ignoring errors so the audited operation
// never fails because of the audit trail
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) {
	if err := s.LogError(ctx, entry); err != nil {
		slog.Warn("Failed to write audit log", "action", entry.Action, "resource", entry.Resource, "error", err)
	}
}

// LogError creates an audit log entry and returns any error
func (s *AuditService) LogError(ctx context.Context, entry AuditEntry) error {
	return s.auditRepo.Create(ctx, &models.AuditLog{
		CitizenID: entry.CitizenID,
		Action:    entry.Action,
		Resource:  entry.Resource,
		Details:   entry.Details,
		IPHash:    s.HashIP(entry.IP),
		UserAgent: entry.UserAgent,
	})
}

// List returns audit logs, newest first
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.auditRepo.List(ctx, filter, limit, offset)
}
