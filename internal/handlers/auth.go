package handlers

import (
	"net/http"

	"resume-optimizer/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// HandleSignup creates a new account
// @Summary Sign up
// @Description Creates an account and returns an auth token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Account details"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/signup [post]
func (h *Handlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.auth.Signup(req.Email, req.Password, req.FullName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setTokenCookie(w, token)
	h.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// HandleLogin authenticates a user
// @Summary Log in
// @Description Verifies credentials and returns an auth token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setTokenCookie(w, token)
	h.writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// HandleLogout clears the auth cookie
// @Summary Log out
// @Tags auth
// @Success 204 {string} string ""
// @Router /api/auth/logout [post]
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} database.User
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenTTL.Seconds()),
	})
}
