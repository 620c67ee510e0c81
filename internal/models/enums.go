package models

import (
	"fmt"
	"slices"
	"strings"

	"participa/internal/apperrors"
)

// ParticipationKind is the closed set of ways a citizen takes part in a process
type ParticipationKind string

const (
	ParticipationView     ParticipationKind = "view"
	ParticipationProposal ParticipationKind = "proposal"
	ParticipationVote     ParticipationKind = "vote"
	ParticipationComment  ParticipationKind = "comment"
)

// ParticipationKinds lists every kind in display order
var ParticipationKinds = []ParticipationKind{
	ParticipationView, ParticipationProposal, ParticipationVote, ParticipationComment,
}

func (k ParticipationKind) Valid() bool { return slices.Contains(ParticipationKinds, k) }

// ParseParticipationKind rejects anything outside the closed set
func ParseParticipationKind(s string) (ParticipationKind, error) {
	return parseEnum("participation_type", s, ParticipationKinds)
}

// VoteType is a citizen's stance on a proposal
type VoteType string

const (
	VoteSupport VoteType = "support"
	VoteOppose  VoteType = "oppose"
	VoteNeutral VoteType = "neutral"
)

var VoteTypes = []VoteType{VoteSupport, VoteOppose, VoteNeutral}

func (v VoteType) Valid() bool { return slices.Contains(VoteTypes, v) }

func ParseVoteType(s string) (VoteType, error) {
	return parseEnum("vote_type", s, VoteTypes)
}

// Role controls access to organizer and admin routes
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

var Roles = []Role{RoleCitizen, RoleOrganizer, RoleAdmin}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

func ParseRole(s string) (Role, error) {
	return parseEnum("role", s, Roles)
}

// Satisfies reports whether r grants at least the privileges of required.
func (r Role) Satisfies(required Role) bool {
	return slices.Index(Roles, r) >= slices.Index(Roles, required) && r.Valid()
}

// ProcessStatus follows draft -> active -> closed -> completed
type ProcessStatus string

const (
	ProcessDraft     ProcessStatus = "draft"
	ProcessActive    ProcessStatus = "active"
	ProcessClosed    ProcessStatus = "closed"
	ProcessCompleted ProcessStatus = "completed"
)

var ProcessStatuses = []ProcessStatus{ProcessDraft, ProcessActive, ProcessClosed, ProcessCompleted}

var processTransitions = map[ProcessStatus][]ProcessStatus{
	ProcessDraft:  {ProcessActive},
	ProcessActive: {ProcessClosed},
	ProcessClosed: {ProcessCompleted},
}

func (s ProcessStatus) Valid() bool { return slices.Contains(ProcessStatuses, s) }

func (s ProcessStatus) CanTransitionTo(next ProcessStatus) bool {
	return slices.Contains(processTransitions[s], next)
}

func ParseProcessStatus(s string) (ProcessStatus, error) {
	return parseEnum("status", s, ProcessStatuses)
}

// ProposalStatus follows pending -> under_review -> approved|rejected, and
// approved -> implemented
type ProposalStatus string

const (
	ProposalPending     ProposalStatus = "pending"
	ProposalUnderReview ProposalStatus = "under_review"
	ProposalApproved    ProposalStatus = "approved"
	ProposalRejected    ProposalStatus = "rejected"
	ProposalImplemented ProposalStatus = "implemented"
)

var ProposalStatuses = []ProposalStatus{
	ProposalPending, ProposalUnderReview, ProposalApproved, ProposalRejected, ProposalImplemented,
}

var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalPending:     {ProposalUnderReview},
	ProposalUnderReview: {ProposalApproved, ProposalRejected},
	ProposalApproved:    {ProposalImplemented},
}

func (s ProposalStatus) Valid() bool { return slices.Contains(ProposalStatuses, s) }

func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	return slices.Contains(proposalTransitions[s], next)
}

func ParseProposalStatus(s string) (ProposalStatus, error) {
	return parseEnum("status", s, ProposalStatuses)
}

// BudgetStatus follows draft -> active -> voting -> closed -> approved
type BudgetStatus string

const (
	BudgetDraft    BudgetStatus = "draft"
	BudgetActive   BudgetStatus = "active"
	BudgetVoting   BudgetStatus = "voting"
	BudgetClosed   BudgetStatus = "closed"
	BudgetApproved BudgetStatus = "approved"
)

var BudgetStatuses = []BudgetStatus{BudgetDraft, BudgetActive, BudgetVoting, BudgetClosed, BudgetApproved}

func (s BudgetStatus) Valid() bool { return slices.Contains(BudgetStatuses, s) }

// CanTransitionTo allows only the next step of the linear lifecycle
func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	i := slices.Index(BudgetStatuses, s)
	return i >= 0 && i+1 < len(BudgetStatuses) && BudgetStatuses[i+1] == next
}

// AcceptsCategories reports whether categories may still be added
func (s BudgetStatus) AcceptsCategories() bool {
	return s == BudgetDraft || s == BudgetActive
}

func ParseBudgetStatus(s string) (BudgetStatus, error) {
	return parseEnum("status", s, BudgetStatuses)
}

func parseEnum[T ~string](field, s string, allowed []T) (T, error) {
	v := T(strings.TrimSpace(s))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	var zero T
	return zero, apperrors.Validation(field, fmt.Sprintf("must be one of %s, got %q", strings.Join(names, ", "), s))
}
