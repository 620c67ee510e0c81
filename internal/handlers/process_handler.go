package handlers

import (
	"net/http"
	"time"

	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/service"
	"participa/pkg/validator"
)

// ProcessHandler handles participation process requests
type ProcessHandler struct {
	processService       *service.ProcessService
	participationService *service.ParticipationService
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(processService *service.ProcessService, participationService *service.ParticipationService) *ProcessHandler {
	return &ProcessHandler{
		processService:       processService,
		participationService: participationService,
	}
}

// CreateProcessRequest is the body of a new process
type CreateProcessRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=10000"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// ListProcesses lists processes
// @Summary List processes
// @Tags Processes
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (draft, active, closed, completed)"
// @Success 200 {array} models.Process
// @Failure 400 {object} ErrorResponse "Unknown status"
// @Router /processes [get]
func (h *ProcessHandler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	var status *models.ProcessStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseProcessStatus(raw)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		status = &parsed
	}

	processes, err := h.processService.List(r.Context(), status)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, processes)
}

// GetProcess returns a process and records the caller's view
// @Summary Get process
// @Tags Processes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Success 200 {object} models.Process
// @Failure 404 {object} ErrorResponse "Process not found"
// @Router /processes/{id} [get]
func (h *ProcessHandler) GetProcess(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	process, err := h.processService.Get(r.Context(), citizenID, processID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, process)
}

// CreateProcess opens a new draft process
// @Summary Create process
// @Description Creates a draft process owned by the caller (organizer only).
// @Tags Processes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProcessRequest true "Process"
// @Success 201 {object} models.Process
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Organizer only"
// @Router /processes [post]
func (h *ProcessHandler) CreateProcess(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	process, err := h.processService.Create(r.Context(), citizenID,
		validator.SanitizeString(req.Title), validator.SanitizeString(req.Description), req.EndDate)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", APIBasePath+"/processes/"+uintString(process.ID))
	respondWithJSON(w, http.StatusCreated, process)
}

// UpdateProcessStatus moves a process along its lifecycle
// @Summary Update process status
// @Description draft → active → closed → completed (organizer only)
// @Tags Processes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} models.Process
// @Failure 400 {object} ErrorResponse "Transition not allowed"
// @Failure 404 {object} ErrorResponse "Process not found"
// @Router /processes/{id}/status [put]
func (h *ProcessHandler) UpdateProcessStatus(w http.ResponseWriter, r *http.Request) {
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	status, ok := decodeStatus(w, r, models.ParseProcessStatus)
	if !ok {
		return
	}

	process, err := h.processService.TransitionStatus(r.Context(), processID, status)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, process)
}

// GetParticipationSummary counts participating citizens per kind
// @Summary Participation summary
// @Tags Processes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Success 200 {object} models.ParticipationSummary
// @Router /processes/{id}/participation [get]
func (h *ProcessHandler) GetParticipationSummary(w http.ResponseWriter, r *http.Request) {
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	summary, err := h.participationService.Summary(r.Context(), processID)
	if err != nil {
		respondWithLookupError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetMyParticipation reports which kinds of participation the caller has in a process
// @Summary Own participation
// @Tags Processes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Process ID"
// @Success 200 {object} map[string]bool
// @Router /processes/{id}/my-participation [get]
func (h *ProcessHandler) GetMyParticipation(w http.ResponseWriter, r *http.Request) {
	citizenID, ok := middleware.GetCitizenID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	processID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidProcessID)
		return
	}

	result := make(map[string]bool, len(models.ParticipationKinds))
	for _, kind := range models.ParticipationKinds {
		has, err := h.participationService.HasParticipated(r.Context(), citizenID, processID, kind)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		result[string(kind)] = has
	}

	respondWithJSON(w, http.StatusOK, result)
}
