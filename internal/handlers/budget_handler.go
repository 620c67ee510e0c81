package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/service"
	"participa/pkg/validator"
)

// BudgetHandler handles participatory budget requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
	}
}

// CreateBudgetRequest is the body of a new budget
type CreateBudgetRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=10000"`
	TotalAmount decimal.Decimal `json:"total_amount" swaggertype:"string" example:"100000.00"`
	Currency    string          `json:"currency" validate:"max=3"`
	FiscalYear  int             `json:"fiscal_year" validate:"gt=0"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
}

// AddCategoryRequest is the body of a new budget category
type AddCategoryRequest struct {
	Name            string           `json:"name" validate:"required,max=255"`
	Description     string           `json:"description" validate:"max=10000"`
	SuggestedAmount decimal.Decimal  `json:"suggested_amount" swaggertype:"string" example:"250.00"`
	MinAmount       *decimal.Decimal `json:"min_amount,omitempty" swaggertype:"string"`
	MaxAmount       *decimal.Decimal `json:"max_amount,omitempty" swaggertype:"string"`
	DisplayOrder    int              `json:"display_order"`
}

// SubmitAllocationRequest maps category ids to amounts. Categories left out
// or set to zero receive nothing.
type SubmitAllocationRequest struct {
	BudgetID    uint                     `json:"budget_id" validate:"required,gt=0"`
	Allocations map[uint]decimal.Decimal `json:"allocations" validate:"required" swaggertype:"object,string"`
}

// SubmitAllocationResponse is returned after a ballot is stored
type SubmitAllocationResponse struct {
	BudgetVoteID uint                          `json:"budget_vote_id"`
	Allocations  []models.BudgetVoteAllocation `json:"allocations"`
}

// ListBudgets lists all budgets
// @Summary List budgets
// @Tags Budgets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Budget
// @Router /budgets [get]
func (h *BudgetHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.budgetService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, budgets)
}

// GetBudget returns a budget with its categories and allocation summary
// @Summary Get budget
// @Description Budget, categories, per-category allocation summary and ballot count, read from one snapshot.
// @Tags Budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 200 {object} models.BudgetDetail
// @Failure 404 {object} ErrorResponse "Budget not found"
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidBudgetID)
		return
	}

	detail, err := h.budgetService.GetBudgetDetail(r.Context(), budgetID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// GetBudgetSummary returns only the per-category allocation summary
// @Summary Budget allocation summary
// @Tags Budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 200 {array} models.AllocationSummary
// @Failure 404 {object} ErrorResponse "Budget not found"
// @Router /budgets/{id}/summary [get]
func (h *BudgetHandler) GetBudgetSummary(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidBudgetID)
		return
	}

	summary, err := h.budgetService.Summarize(r.Context(), budgetID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// CreateBudget creates a draft budget
// @Summary Create budget
// @Tags Budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBudgetRequest true "Budget"
// @Success 201 {object} models.Budget
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Organizer only"
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	budget := &models.Budget{
		Title:       validator.SanitizeString(req.Title),
		Description: validator.SanitizeString(req.Description),
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		FiscalYear:  req.FiscalYear,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   citizenID,
	}
	if err := h.budgetService.CreateBudget(r.Context(), budget); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", APIBasePath+"/budgets/"+uintString(budget.ID))
	respondWithJSON(w, http.StatusCreated, budget)
}

// AddCategory adds a category to a draft or active budget
// @Summary Add budget category
// @Tags Budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Param request body AddCategoryRequest true "Category"
// @Success 201 {object} models.BudgetCategory
// @Failure 400 {object} ErrorResponse "Invalid input or budget no longer accepts categories"
// @Failure 404 {object} ErrorResponse "Budget not found"
// @Router /budgets/{id}/categories [post]
func (h *BudgetHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidBudgetID)
		return
	}

	var req AddCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	category := &models.BudgetCategory{
		BudgetID:        budgetID,
		Name:            validator.SanitizeString(req.Name),
		Description:     validator.SanitizeString(req.Description),
		SuggestedAmount: req.SuggestedAmount,
		MinAmount:       nullDecimal(req.MinAmount),
		MaxAmount:       nullDecimal(req.MaxAmount),
		DisplayOrder:    req.DisplayOrder,
	}
	if err := h.budgetService.AddCategory(r.Context(), category); err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, category)
}

// UpdateBudgetStatus moves a budget along its lifecycle
// @Summary Update budget status
// @Description draft → active → voting → closed → approved (organizer only)
// @Tags Budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} models.Budget
// @Failure 400 {object} ErrorResponse "Transition not allowed"
// @Failure 404 {object} ErrorResponse "Budget not found"
// @Router /budgets/{id}/status [put]
func (h *BudgetHandler) UpdateBudgetStatus(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidBudgetID)
		return
	}

	status, ok := decodeStatus(w, r, models.ParseBudgetStatus)
	if !ok {
		return
	}

	budget, err := h.budgetService.TransitionStatus(r.Context(), budgetID, status)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, budget)
}

// SubmitAllocation stores the caller's budget ballot, replacing any earlier one
// @Summary Submit budget allocation
// @Description Validates every amount against its category bounds and the budget total, then replaces the caller's previous allocations atomically.
// @Tags Budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitAllocationRequest true "Allocations by category id"
// @Success 201 {object} SubmitAllocationResponse
// @Failure 400 {object} ErrorResponse "Unknown budget or category, or invalid amount"
// @Router /budget-votes [post]
func (h *BudgetHandler) SubmitAllocation(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req SubmitAllocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	ballot, err := h.budgetService.SubmitAllocation(r.Context(), citizenID, req.BudgetID, req.Allocations)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", APIBasePath+"/budgets/"+uintString(req.BudgetID)+"/my-allocation")
	respondWithJSON(w, http.StatusCreated, SubmitAllocationResponse{
		BudgetVoteID: ballot.ID,
		Allocations:  ballot.Allocations,
	})
}

// GetMyAllocation returns the caller's current ballot
// @Summary Get own allocation
// @Tags Budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 200 {object} models.BudgetVote
// @Failure 404 {object} ErrorResponse "No ballot"
// @Router /budgets/{id}/my-allocation [get]
func (h *BudgetHandler) GetMyAllocation(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	budgetID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidBudgetID)
		return
	}

	ballot, err := h.budgetService.GetCitizenAllocation(r.Context(), citizenID, budgetID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	if ballot == nil {
		respondWithError(w, http.StatusNotFound, "No allocation submitted for this budget")
		return
	}

	respondWithJSON(w, http.StatusOK, ballot)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
