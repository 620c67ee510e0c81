package handlers

import (
	"net/http"

	"participa/internal/middleware"
	"participa/internal/repository"
	"participa/internal/service"
	"participa/pkg/validator"
)

type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{
		discussionService: discussionService,
	}
}

type CreateDiscussionRequest struct {
	ProcessID uint   `json:"process_id" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required,max=255"`
	Content   string `json:"content" validate:"required,max=10000"`
}

type CreateCommentRequest struct {
	Content      string `json:"content" validate:"required,max=5000"`
	ProcessID    *uint  `json:"process_id,omitempty" validate:"omitempty,gt=0"`
	ProposalID   *uint  `json:"proposal_id,omitempty" validate:"omitempty,gt=0"`
	DiscussionID *uint  `json:"discussion_id,omitempty" validate:"omitempty,gt=0"`
}

// CreateDiscussion opens a discussion thread in a process
// @Summary Create discussion
// @Tags Discussions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDiscussionRequest true "Discussion"
// @Success 201 {object} models.Discussion
// @Failure 400 {object} ErrorResponse "Unknown process or invalid input"
// @Router /discussions [post]
func (h *DiscussionHandler) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateDiscussionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	discussion, err := h.discussionService.CreateDiscussion(r.Context(), citizenID, req.ProcessID,
		validator.SanitizeString(req.Title), validator.SanitizeString(req.Content))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, discussion)
}

// ListProcessDiscussions lists the discussions of a process
// @Summary List discussions of a process
// @Tags Discussions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Success 200 {array} models.Discussion
// @Router /processes/{id}/discussions [get]
func (h *DiscussionHandler) ListProcessDiscussions(w http.ResponseWriter, r *http.Request) {
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	discussions, err := h.discussionService.ListDiscussions(r.Context(), processID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, discussions)
}

// AddComment comments on a process, proposal or discussion
// @Summary Add comment
// @Description The process is resolved from proposal_id or discussion_id when given; otherwise process_id is required.
// @Tags Discussions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse "Unknown parent or invalid input"
// @Router /comments [post]
func (h *DiscussionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	comment, err := h.discussionService.AddComment(r.Context(), citizenID, service.CommentInput{
		Content:      validator.SanitizeString(req.Content),
		ProcessID:    req.ProcessID,
		ProposalID:   req.ProposalID,
		DiscussionID: req.DiscussionID,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

// ListComments lists comments of one parent
// @Summary List comments
// @Tags Discussions
// @Produce json
// @Security BearerAuth
// @Param process_id query int false "Process ID"
// @Param proposal_id query int false "Proposal ID"
// @Param discussion_id query int false "Discussion ID"
// @Success 200 {array} models.Comment
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Router /comments [get]
func (h *DiscussionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	var filter repository.CommentFilter
	var ok bool
	for name, dst := range map[string]**uint{
		"process_id":    &filter.ProcessID,
		"proposal_id":   &filter.ProposalID,
		"discussion_id": &filter.DiscussionID,
	} {
		if *dst, ok = queryID(r, name); !ok {
			respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQueryParam+": "+name)
			return
		}
	}

	comments, err := h.discussionService.ListComments(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, comments)
}
