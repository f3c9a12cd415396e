package handlers

import (
	"net/http"

	"resume-optimizer/internal/auth"
	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
)

type jobDescriptionRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Content string `json:"content" validate:"required,min=50,max=50000"`
}

// HandleCreateJobDescription stores a job posting to optimize against
// @Summary Add job description
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body jobDescriptionRequest true "Job description"
// @Success 201 {object} database.JobDescription
// @Failure 400 {object} map[string]string
// @Router /api/job-descriptions [post]
func (h *Handlers) HandleCreateJobDescription(w http.ResponseWriter, r *http.Request) {
	var req jobDescriptionRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	jd := &database.JobDescription{
		UserID:  auth.UserID(r),
		Title:   req.Title,
		Company: req.Company,
		Content: req.Content,
	}
	if err := h.db.CreateJobDescription(jd); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create job description", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, jd)
}

// HandleListJobDescriptions lists stored job postings
// @Summary List job descriptions
// @Tags jobs
// @Produce json
// @Success 200 {array} database.JobDescription
// @Router /api/job-descriptions [get]
func (h *Handlers) HandleListJobDescriptions(w http.ResponseWriter, r *http.Request) {
	jds, err := h.db.GetJobDescriptions(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list job descriptions", err))
		return
	}
	if jds == nil {
		jds = []*database.JobDescription{}
	}
	h.writeJSON(w, http.StatusOK, jds)
}

// HandleGetJobDescription fetches one job posting
// @Summary Get job description
// @Tags jobs
// @Produce json
// @Param id path int true "Job description ID"
// @Success 200 {object} database.JobDescription
// @Failure 404 {object} map[string]string
// @Router /api/job-descriptions/{id} [get]
func (h *Handlers) HandleGetJobDescription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	jd, err := h.db.GetJobDescription(id, auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to get job description", err))
		return
	}
	if jd == nil {
		h.writeError(w, apperrors.NotFoundError("job description"))
		return
	}

	h.writeJSON(w, http.StatusOK, jd)
}

// HandleDeleteJobDescription removes a job posting
// @Summary Delete job description
// @Tags jobs
// @Param id path int true "Job description ID"
// @Success 204 {string} string ""
// @Failure 404 {object} map[string]string
// @Router /api/job-descriptions/{id} [delete]
func (h *Handlers) HandleDeleteJobDescription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteJobDescription(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("job description"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
