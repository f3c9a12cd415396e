package handlers

import (
	"net/http"

	"resume-optimizer/internal/auth"
	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
)

type feedbackRequest struct {
	Type        string `json:"type" validate:"required,oneof=bug feature"`
	Title       string `json:"title" validate:"required,max=200"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Description string `json:"description" validate:"required,max=5000"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// HandleCreateFeedback records a bug report or feature request
// @Summary Submit feedback
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body feedbackRequest true "Feedback"
// @Success 201 {object} database.Feedback
// @Failure 400 {object} map[string]string
// @Router /api/feedback [post]
func (h *Handlers) HandleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.Priority == "" {
		req.Priority = "medium"
	}

	fb := &database.Feedback{
		UserID:       auth.UserID(r),
		Type:         req.Type,
		Title:        req.Title,
		Priority:     req.Priority,
		Description:  req.Description,
		ContactEmail: req.Email,
	}
	if err := h.db.CreateFeedback(fb); err != nil {
		h.writeError(w, apperrors.InternalError("failed to store feedback", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, fb)
}

// HandleListFeedback lists the user's submitted feedback
// @Summary List feedback
// @Tags feedback
// @Produce json
// @Success 200 {array} database.Feedback
// @Router /api/feedback [get]
func (h *Handlers) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.GetFeedback(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list feedback", err))
		return
	}
	if entries == nil {
		entries = []*database.Feedback{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}
