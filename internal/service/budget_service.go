package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"participa/internal/apperrors"
	"participa/internal/database"
	"participa/internal/models"
	"participa/internal/repository"
)

// BudgetService aggregates citizens' budget allocations. A citizen holds one
// ballot per budget; resubmitting replaces its allocations as a whole.
type BudgetService struct {
	db         *sql.DB
	budgetRepo *repository.BudgetRepository
}

// NewBudgetService creates a new budget service
func NewBudgetService(db *sql.DB, budgetRepo *repository.BudgetRepository) *BudgetService {
	return &BudgetService{db: db, budgetRepo: budgetRepo}
}

// CreateBudget stores a new draft budget
func (s *BudgetService) CreateBudget(ctx context.Context, b *models.Budget) error {
	if strings.TrimSpace(b.Title) == "" {
		return apperrors.Validation("title", "is required")
	}
	if err := checkAmount("total_amount", b.TotalAmount); err != nil {
		return err
	}
	switch {
	case b.FiscalYear <= 0:
		return apperrors.Validation("fiscal_year", "must be positive")
	case b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate):
		return apperrors.Validation("end_date", "must not be before start_date")
	}

	if err := s.budgetRepo.Create(ctx, b); err != nil {
		return err
	}
	slog.Info("Budget created", "budget_id", b.ID, "created_by", b.CreatedBy)
	return nil
}

// AddCategory adds a category to a budget that is still being prepared
func (s *BudgetService) AddCategory(ctx context.Context, c *models.BudgetCategory) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.Validation("name", "is required")
	}
	for _, field := range []struct {
		name   string
		amount decimal.NullDecimal
	}{
		{"suggested_amount", decimal.NewNullDecimal(c.SuggestedAmount)},
		{"min_amount", c.MinAmount},
		{"max_amount", c.MaxAmount},
	} {
		if !field.amount.Valid {
			continue
		}
		if err := checkAmount(field.name, field.amount.Decimal); err != nil {
			return err
		}
	}
	if c.MinAmount.Valid && c.MaxAmount.Valid && c.MinAmount.Decimal.GreaterThan(c.MaxAmount.Decimal) {
		return apperrors.InvalidAmount("min_amount", "must not exceed max_amount")
	}

	return database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		budgets := s.budgetRepo.WithTx(tx)
		budget, err := budgets.GetByID(ctx, c.BudgetID)
		if err != nil {
			return err
		}
		if !budget.Status.AcceptsCategories() {
			return apperrors.Validation("status", fmt.Sprintf("categories cannot be added to a %s budget", budget.Status))
		}
		return budgets.CreateCategory(ctx, c)
	})
}

// TransitionStatus moves a budget one step along its lifecycle
func (s *BudgetService) TransitionStatus(ctx context.Context, budgetID uint, to models.BudgetStatus) (*models.Budget, error) {
	if !to.Valid() {
		return nil, apperrors.Validation("status", "unknown budget status "+string(to))
	}
	budget, err := s.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !budget.Status.CanTransitionTo(to) {
		return nil, apperrors.Validation("status", fmt.Sprintf("cannot move budget from %s to %s", budget.Status, to))
	}
	ok, err := s.budgetRepo.UpdateStatus(ctx, budgetID, budget.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validation("status", "budget status changed concurrently")
	}

	slog.Info("Budget status changed", "budget_id", budgetID, "from", budget.Status, "to", to)
	return s.budgetRepo.GetByID(ctx, budgetID)
}

// List returns all budgets
func (s *BudgetService) List(ctx context.Context) ([]models.Budget, error) {
	return s.budgetRepo.List(ctx)
}

// SubmitAllocation validates the ballot against the budget and replaces the
// citizen's previous allocations in one transaction. Zero amounts are
// dropped; readers see either the old or the new full set.
func (s *BudgetService) SubmitAllocation(ctx context.Context, citizenID, budgetID uint, allocations map[uint]decimal.Decimal) (*models.BudgetVote, error) {
	var ballot *models.BudgetVote

	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		budgets := s.budgetRepo.WithTx(tx)

		budget, err := budgets.GetByID(ctx, budgetID)
		if err != nil {
			return err
		}
		categories, err := budgets.ListCategories(ctx, budgetID)
		if err != nil {
			return err
		}
		if err := ValidateAllocations(budget, categories, allocations); err != nil {
			return err
		}

		ballot, err = budgets.UpsertBallot(ctx, citizenID, budgetID)
		if err != nil {
			return err
		}
		if err := budgets.DeleteAllocations(ctx, ballot.ID); err != nil {
			return err
		}

		for _, categoryID := range sortedKeys(allocations) {
			amount := allocations[categoryID]
			if amount.IsZero() {
				continue
			}
			a := models.BudgetVoteAllocation{VoteID: ballot.ID, CategoryID: categoryID, Amount: amount}
			if err := budgets.InsertAllocation(ctx, &a); err != nil {
				return err
			}
			ballot.Allocations = append(ballot.Allocations, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Budget allocation submitted",
		"budget_vote_id", ballot.ID,
		"citizen_id", citizenID,
		"budget_id", budgetID,
		"allocations", len(ballot.Allocations),
	)
	return ballot, nil
}

// GetCitizenAllocation returns the citizen's current ballot, or nil
func (s *BudgetService) GetCitizenAllocation(ctx context.Context, citizenID, budgetID uint) (*models.BudgetVote, error) {
	return s.budgetRepo.GetBallot(ctx, citizenID, budgetID)
}

// Summarize computes per-category statistics from the stored allocations
func (s *BudgetService) Summarize(ctx context.Context, budgetID uint) ([]models.AllocationSummary, error) {
	detail, err := s.GetBudgetDetail(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	return detail.AllocationSummary, nil
}

// GetBudgetDetail reads the budget, its categories and the current
// aggregates from a single snapshot
func (s *BudgetService) GetBudgetDetail(ctx context.Context, budgetID uint) (*models.BudgetDetail, error) {
	var detail models.BudgetDetail

	err := database.WithTx(ctx, s.db, database.ReadSnapshot, func(tx *sql.Tx) error {
		budgets := s.budgetRepo.WithTx(tx)

		budget, err := budgets.GetByID(ctx, budgetID)
		if err != nil {
			return err
		}
		detail.Budget = *budget

		if detail.Categories, err = budgets.ListCategories(ctx, budgetID); err != nil {
			return err
		}
		allocations, err := budgets.ListAllocations(ctx, budgetID)
		if err != nil {
			return err
		}
		if detail.TotalBallots, err = budgets.CountBallots(ctx, budgetID); err != nil {
			return err
		}

		detail.AllocationSummary = SummarizeAllocations(detail.Categories, allocations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ValidateAllocations checks a ballot against the budget's categories and
// bounds. Categories are checked in id order so the reported key is stable.
func ValidateAllocations(budget *models.Budget, categories []models.BudgetCategory, allocations map[uint]decimal.Decimal) error {
	byID := make(map[uint]models.BudgetCategory, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	sum := decimal.Zero
	for _, categoryID := range sortedKeys(allocations) {
		amount := allocations[categoryID]
		key := fmt.Sprint(categoryID)

		category, ok := byID[categoryID]
		if !ok {
			return &apperrors.Error{
				Kind:    apperrors.ErrReferenceNotFound,
				Entity:  "budget_category",
				Key:     key,
				Message: fmt.Sprintf("not a category of budget %d", budget.ID),
			}
		}

		if err := checkAmount(key, amount); err != nil {
			return err
		}
		switch {
		case amount.IsZero():
			continue
		case category.MinAmount.Valid && amount.LessThan(category.MinAmount.Decimal):
			return apperrors.InvalidAmount(key, "below minimum of "+category.MinAmount.Decimal.StringFixed(2))
		case category.MaxAmount.Valid && amount.GreaterThan(category.MaxAmount.Decimal):
			return apperrors.InvalidAmount(key, "above maximum of "+category.MaxAmount.Decimal.StringFixed(2))
		}
		sum = sum.Add(amount)
	}

	if sum.GreaterThan(budget.TotalAmount) {
		return &apperrors.Error{
			Kind:    apperrors.ErrInvalidAmount,
			Entity:  "budget",
			Key:     fmt.Sprint(budget.ID),
			Message: fmt.Sprintf("allocations total %s exceeds budget total %s", sum.StringFixed(2), budget.TotalAmount.StringFixed(2)),
		}
	}
	return nil
}

// SummarizeAllocations groups allocations by category. Every category is
// present, in the given order; averages are rounded to cents and are zero
// for categories nobody allocated to.
func SummarizeAllocations(categories []models.BudgetCategory, allocations []models.BudgetVoteAllocation) []models.AllocationSummary {
	type acc struct {
		count int
		sum   decimal.Decimal
	}
	totals := make(map[uint]*acc, len(categories))
	for _, a := range allocations {
		if !a.Amount.IsPositive() {
			continue
		}
		t, ok := totals[a.CategoryID]
		if !ok {
			t = &acc{sum: decimal.Zero}
			totals[a.CategoryID] = t
		}
		t.count++
		t.sum = t.sum.Add(a.Amount)
	}

	summary := make([]models.AllocationSummary, 0, len(categories))
	for _, c := range categories {
		s := models.AllocationSummary{
			CategoryID:        c.ID,
			CategoryName:      c.Name,
			AverageAllocation: decimal.Zero,
		}
		if t, ok := totals[c.ID]; ok {
			s.VoteCount = t.count
			s.AverageAllocation = t.sum.Div(decimal.NewFromInt(int64(t.count))).Round(2)
		}
		summary = append(summary, s)
	}
	return summary
}

// maxAmount is the first value NUMERIC(15,2) cannot hold
var maxAmount = decimal.New(1, 13)

// checkAmount rejects amounts the store cannot hold exactly
func checkAmount(key string, d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return apperrors.InvalidAmount(key, "must not be negative")
	case !hasCents(d):
		return apperrors.InvalidAmount(key, "must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		return apperrors.InvalidAmount(key, "must be less than "+maxAmount.String())
	}
	return nil
}

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
