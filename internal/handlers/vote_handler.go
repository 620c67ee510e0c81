package handlers

import (
	"net/http"

	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/service"
	"participa/pkg/validator"
)

// VoteHandler serves the vote ledger
type VoteHandler struct {
	voteService *service.VoteService
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(voteService *service.VoteService) *VoteHandler {
	return &VoteHandler{
		voteService: voteService,
	}
}

// VoteRequest is the body of cast and change vote requests
type VoteRequest struct {
	ProposalID uint   `json:"proposal_id" validate:"required,gt=0"`
	VoteType   string `json:"vote_type" validate:"required,oneof=support oppose neutral"`
}

// VoteResponse is returned after a vote is cast or changed
type VoteResponse struct {
	VoteID   uint            `json:"vote_id"`
	VoteType models.VoteType `json:"vote_type"`
}

// CastVote records the caller's vote on a proposal
// @Summary Cast a vote
// @Description Records one vote per citizen and proposal. A second vote is rejected with 409; use PUT to change it.
// @Tags Votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VoteRequest true "Vote"
// @Success 201 {object} VoteResponse
// @Failure 400 {object} ErrorResponse "Unknown proposal or invalid vote type"
// @Failure 409 {object} ErrorResponse "Citizen already voted"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /votes [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	citizenID, req, ok := h.decodeVote(w, r)
	if !ok {
		return
	}

	vote, err := h.voteService.CastVote(r.Context(), citizenID, req.ProposalID, models.VoteType(req.VoteType))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", APIBasePath+"/proposals/"+uintString(vote.ProposalID)+"/my-vote")
	respondWithJSON(w, http.StatusCreated, VoteResponse{VoteID: vote.ID, VoteType: vote.VoteType})
}

// ChangeVote replaces the vote type of the caller's existing vote
// @Summary Change a vote
// @Description Changes the type of the caller's existing vote on a proposal.
// @Tags Votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VoteRequest true "New vote"
// @Success 200 {object} VoteResponse
// @Failure 400 {object} ErrorResponse "Invalid vote type"
// @Failure 404 {object} ErrorResponse "No vote to change"
// @Router /votes [put]
func (h *VoteHandler) ChangeVote(w http.ResponseWriter, r *http.Request) {
	citizenID, req, ok := h.decodeVote(w, r)
	if !ok {
		return
	}

	vote, err := h.voteService.ChangeVote(r.Context(), citizenID, req.ProposalID, models.VoteType(req.VoteType))
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, VoteResponse{VoteID: vote.ID, VoteType: vote.VoteType})
}

func (h *VoteHandler) decodeVote(w http.ResponseWriter, r *http.Request) (uint, VoteRequest, bool) {
	var req VoteRequest

	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return 0, req, false
	}

	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return 0, req, false
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return 0, req, false
	}
	return citizenID, req, true
}

// CountVotes returns the vote tally of a proposal
// @Summary Count votes
// @Description Returns support, oppose and neutral counts from one consistent snapshot.
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proposal ID"
// @Success 200 {object} models.VoteTally
// @Failure 404 {object} ErrorResponse "Proposal not found"
// @Router /proposals/{id}/votes [get]
func (h *VoteHandler) CountVotes(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProposalID)
		return
	}

	tally, err := h.voteService.CountVotesByType(r.Context(), proposalID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tally)
}

// GetMyVote returns the caller's vote on a proposal
// @Summary Get own vote
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proposal ID"
// @Success 200 {object} models.Vote
// @Failure 404 {object} ErrorResponse "No vote"
// @Router /proposals/{id}/my-vote [get]
func (h *VoteHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	proposalID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProposalID)
		return
	}

	vote, err := h.voteService.GetCitizenVote(r.Context(), citizenID, proposalID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}
	if vote == nil {
		respondWithError(w, http.StatusNotFound, "No vote on this proposal")
		return
	}

	respondWithJSON(w, http.StatusOK, vote)
}
