package handlers

import (
	"net/http"

	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/service"
	"participa/pkg/validator"
)

// ProposalHandler handles proposal requests
type ProposalHandler struct {
	proposalService *service.ProposalService
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(proposalService *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
	}
}

// CreateProposalRequest is the body of a new proposal
type CreateProposalRequest struct {
	ProcessID   uint   `json:"process_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
}

// StatusRequest is the body of every status transition
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateProposal submits a proposal to an active process
// @Summary Create proposal
// @Description Submits a proposal and records the author's proposal participation in the same transaction.
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProposalRequest true "Proposal"
// @Success 201 {object} models.Proposal
// @Failure 400 {object} ErrorResponse "Unknown or inactive process"
// @Router /proposals [post]
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	proposal, err := h.proposalService.Create(r.Context(), citizenID, req.ProcessID,
		validator.SanitizeString(req.Title), validator.SanitizeString(req.Description))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", APIBasePath+"/proposals/"+uintString(proposal.ID))
	respondWithJSON(w, http.StatusCreated, proposal)
}

// GetProposal returns a proposal
// @Summary Get proposal
// @Tags Proposals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proposal ID"
// @Success 200 {object} models.Proposal
// @Failure 404 {object} ErrorResponse "Proposal not found"
// @Router /proposals/{id} [get]
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProposalID)
		return
	}

	proposal, err := h.proposalService.Get(r.Context(), proposalID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, proposal)
}

// ListProcessProposals lists the proposals of a process
// @Summary List proposals of a process
// @Tags Proposals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Success 200 {array} models.Proposal
// @Router /processes/{id}/proposals [get]
func (h *ProposalHandler) ListProcessProposals(w http.ResponseWriter, r *http.Request) {
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	proposals, err := h.proposalService.ListByProcess(r.Context(), processID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, proposals)
}

// UpdateProposalStatus moves a proposal along its review lifecycle
// @Summary Update proposal status
// @Description pending → under_review → approved|rejected, approved → implemented (organizer only)
// @Tags Proposals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proposal ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} models.Proposal
// @Failure 400 {object} ErrorResponse "Transition not allowed"
// @Failure 403 {object} ErrorResponse "Organizer only"
// @Failure 404 {object} ErrorResponse "Proposal not found"
// @Router /proposals/{id}/status [put]
func (h *ProposalHandler) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProposalID)
		return
	}

	status, ok := decodeStatus(w, r, models.ParseProposalStatus)
	if !ok {
		return
	}

	proposal, err := h.proposalService.TransitionStatus(r.Context(), proposalID, status)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, proposal)
}

// decodeStatus reads a StatusRequest and parses its status with parse
func decodeStatus[T any](w http.ResponseWriter, r *http.Request, parse func(string) (T, error)) (T, bool) {
	var zero T

	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return zero, false
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return zero, false
	}

	status, err := parse(req.Status)
	if err != nil {
		respondWithServiceError(w, r, err)
		return zero, false
	}
	return status, true
}
