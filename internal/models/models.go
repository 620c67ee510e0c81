package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Citizen is an authenticated participant. Rows are provisioned by the auth
// subsystem.
type Citizen struct {
	ID          uint      `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        Role      `json:"role" db:"role"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Process is a time-boxed consultation containing proposals and discussions
type Process struct {
	ID          uint          `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Status      ProcessStatus `json:"status" db:"status"`
	OrganizerID uint          `json:"organizer_id" db:"organizer_id"`
	EndDate     *time.Time    `json:"end_date,omitempty" db:"end_date"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Proposal is a citizen-authored idea within a process
type Proposal struct {
	ID          uint           `json:"id" db:"id"`
	ProcessID   uint           `json:"process_id" db:"process_id"`
	AuthorID    uint           `json:"author_id" db:"author_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Status      ProposalStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Discussion is an open thread attached to a process
type Discussion struct {
	ID        uint      `json:"id" db:"id"`
	ProcessID uint      `json:"process_id" db:"process_id"`
	AuthorID  uint      `json:"author_id" db:"author_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Comment belongs to a process and optionally to a proposal or discussion
type Comment struct {
	ID           uint      `json:"id" db:"id"`
	CitizenID    uint      `json:"citizen_id" db:"citizen_id"`
	ProcessID    uint      `json:"process_id" db:"process_id"`
	ProposalID   *uint     `json:"proposal_id,omitempty" db:"proposal_id"`
	DiscussionID *uint     `json:"discussion_id,omitempty" db:"discussion_id"`
	Content      string    `json:"content" db:"content"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Participation records that a citizen interacted with a process in one way.
// At most one row exists per (citizen, process, kind).
type Participation struct {
	ID        uint              `json:"id" db:"id"`
	CitizenID uint              `json:"citizen_id" db:"citizen_id"`
	ProcessID uint              `json:"process_id" db:"process_id"`
	Type      ParticipationKind `json:"participation_type" db:"participation_type"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// ParticipationSummary counts distinct citizens per participation kind
type ParticipationSummary struct {
	ProcessID uint `json:"process_id"`
	View      int  `json:"view"`
	Proposal  int  `json:"proposal"`
	Vote      int  `json:"vote"`
	Comment   int  `json:"comment"`
}

// Vote is a citizen's stance on a proposal
type Vote struct {
	ID         uint      `json:"id" db:"id"`
	CitizenID  uint      `json:"citizen_id" db:"citizen_id"`
	ProposalID uint      `json:"proposal_id" db:"proposal_id"`
	VoteType   VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// VoteTally holds per-type vote counts read from one snapshot
type VoteTally struct {
	ProposalID uint `json:"proposal_id"`
	Support    int  `json:"support"`
	Oppose     int  `json:"oppose"`
	Neutral    int  `json:"neutral"`
	Total      int  `json:"total"`
}

// Budget is a participatory budget open to citizen allocation
type Budget struct {
	ID          uint            `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency    string          `json:"currency" db:"currency"`
	FiscalYear  int             `json:"fiscal_year" db:"fiscal_year"`
	StartDate   *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" db:"end_date"`
	Status      BudgetStatus    `json:"status" db:"status"`
	CreatedBy   uint            `json:"created_by" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// BudgetCategory is one spending line of a budget. MinAmount and MaxAmount
// bound a non-zero allocation when set.
type BudgetCategory struct {
	ID              uint                `json:"id" db:"id"`
	BudgetID        uint                `json:"budget_id" db:"budget_id"`
	Name            string              `json:"name" db:"name"`
	Description     string              `json:"description" db:"description"`
	SuggestedAmount decimal.Decimal     `json:"suggested_amount" db:"suggested_amount"`
	MinAmount       decimal.NullDecimal `json:"min_amount" db:"min_amount"`
	MaxAmount       decimal.NullDecimal `json:"max_amount" db:"max_amount"`
	DisplayOrder    int                 `json:"display_order" db:"display_order"`
}

// BudgetVote is a citizen's ballot for a budget. Its allocations are
// replaced as a whole on resubmission.
type BudgetVote struct {
	ID          uint                   `json:"id" db:"id"`
	CitizenID   uint                   `json:"citizen_id" db:"citizen_id"`
	BudgetID    uint                   `json:"budget_id" db:"budget_id"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
	Allocations []BudgetVoteAllocation `json:"allocations,omitempty"`
}

// BudgetVoteAllocation is a strictly positive amount assigned to a category
type BudgetVoteAllocation struct {
	ID         uint            `json:"id" db:"id"`
	VoteID     uint            `json:"vote_id" db:"vote_id"`
	CategoryID uint            `json:"category_id" db:"category_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
}

// AllocationSummary is derived per category on every read and never stored
type AllocationSummary struct {
	CategoryID        uint            `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	VoteCount         int             `json:"vote_count"`
	AverageAllocation decimal.Decimal `json:"average_allocation"`
}

// BudgetDetail bundles a budget with its categories and current aggregates
type BudgetDetail struct {
	Budget
	Categories        []BudgetCategory    `json:"categories"`
	AllocationSummary []AllocationSummary `json:"allocation_summary"`
	TotalBallots      int                 `json:"total_ballots"`
}

// AuditLog represents an audit log entry. Client IPs are stored only as a
// keyed hash.
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	CitizenID *uint     `json:"citizen_id,omitempty" db:"citizen_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details,omitempty" db:"details"`
	IPHash    string    `json:"ip_hash,omitempty" db:"ip_hash"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
