package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"resume-optimizer/internal/auth"
	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/middleware"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/pdf"
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	db        *database.DB
	auth      *auth.Auth
	optimizer *optimizer.Service
	pdf       pdf.Renderer
	validate  *validator.Validate
	logger    logging.Logger

	redisHealth func(ctx context.Context) error
}

func New(db *database.DB, authService *auth.Auth, optimizerService *optimizer.Service, pdfRenderer pdf.Renderer) *Handlers {
	return &Handlers{
		db:        db,
		auth:      authService,
		optimizer: optimizerService,
		pdf:       pdfRenderer,
		validate:  validator.New(),
		logger:    logging.GetGlobalLogger(),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// writeError maps application errors onto HTTP status codes. Unknown errors
// become opaque 500s so internals never leak to clients.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch apperrors.GetType(err) {
	case apperrors.ErrTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrTypeAuth:
		status = http.StatusUnauthorized
	case apperrors.ErrTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrTypeConflict:
		status = http.StatusConflict
	case apperrors.ErrTypeRateLimit:
		status = http.StatusTooManyRequests
	case apperrors.ErrTypeTimeout:
		status = http.StatusGatewayTimeout
	case apperrors.ErrTypeUpstream, apperrors.ErrTypeStoreUnavailable, apperrors.ErrTypeConnection:
		status = http.StatusBadGateway
	}

	if appErr, ok := err.(*apperrors.AppError); ok && status != http.StatusInternalServerError {
		message = appErr.Message
	}

	if status >= 500 {
		h.logger.Error("Request failed", err)
	}

	h.writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate parses a JSON request body and runs struct validation.
// The body is capped at MaxRequestBytes as a second line of defense behind
// the security middleware.
func (h *Handlers) decodeAndValidate(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, middleware.MaxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.ValidationError("request body too large")
		}
		return apperrors.ValidationError("invalid request body")
	}

	if err := h.validate.Struct(dest); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
			field := validationErrors[0]
			return apperrors.ValidationError(fmt.Sprintf("field %q failed validation (%s)", field.Field(), field.Tag()))
		}
		return apperrors.ValidationError("invalid request")
	}

	return nil
}

// pathID extracts a numeric path parameter.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id < 1 {
		return 0, apperrors.ValidationError(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// currentUser resolves the authenticated user from the request.
func (h *Handlers) currentUser(r *http.Request) (*database.User, error) {
	userID := auth.UserID(r)
	if userID == 0 {
		return nil, apperrors.AuthError("authentication required")
	}

	user, err := h.db.GetUserByID(userID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.AuthError("account no longer exists")
	}

	return user, nil
}
