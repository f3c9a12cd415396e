package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"resume-optimizer/internal/middleware"
	"resume-optimizer/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes for the application. The returned
// handler wraps the router in the CORS/security-header middleware so that
// preflight requests are answered even when no route matches the method.
func (app *App) SetupRoutes(router *mux.Router) (http.Handler, error) {
	h := app.Handlers

	// Add logging middleware to all routes
	router.Use(middleware.LoggingMiddleware)

	defaultLimiter, err := app.newLimiter(app.defaultPolicy())
	if err != nil {
		return nil, err
	}
	authLimiter, err := app.newLimiter(app.authPolicy())
	if err != nil {
		return nil, err
	}
	optimizeLimiter, err := app.newLimiter(app.optimizePolicy())
	if err != nil {
		return nil, err
	}

	// Credential endpoints are rate limited per endpoint so login attempts
	// cannot drain the signup budget and vice versa
	signup := http.HandlerFunc(h.HandleSignup)
	login := http.HandlerFunc(h.HandleLogin)
	if authLimiter != nil {
		limit := authLimiter.HTTPMiddleware(ratelimit.KeyForScope(authLimiter.Policy().Scope))
		router.Handle("/api/auth/signup", limit(signup)).Methods("POST")
		router.Handle("/api/auth/login", limit(login)).Methods("POST")
	} else {
		router.Handle("/api/auth/signup", signup).Methods("POST")
		router.Handle("/api/auth/login", login).Methods("POST")
	}
	router.HandleFunc("/api/auth/logout", h.HandleLogout).Methods("POST")

	// Health check (no auth required)
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Swagger UI (no auth required)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Protected routes - require authentication and rate limiting
	protected := router.NewRoute().Subrouter()
	protected.Use(app.Auth.RequireAuth)
	if defaultLimiter != nil {
		protected.Use(defaultLimiter.HTTPMiddleware(ratelimit.UserBasedKey))
	}

	api := protected.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/me", h.HandleMe).Methods("GET")

	// Profile endpoints (protected)
	api.HandleFunc("/profile", h.HandleGetProfile).Methods("GET")
	api.HandleFunc("/profile", h.HandleSaveProfile).Methods("PUT")
	api.HandleFunc("/profile/contact", h.HandleUpdateContact).Methods("PUT")
	api.HandleFunc("/profile/status", h.HandleCompletionStatus).Methods("GET")
	api.HandleFunc("/profile/experiences", h.HandleListExperiences).Methods("GET")
	api.HandleFunc("/profile/experiences", h.HandleCreateExperience).Methods("POST")
	api.HandleFunc("/profile/experiences/{id}", h.HandleUpdateExperience).Methods("PUT")
	api.HandleFunc("/profile/experiences/{id}", h.HandleDeleteExperience).Methods("DELETE")
	api.HandleFunc("/profile/education", h.HandleListEducation).Methods("GET")
	api.HandleFunc("/profile/education", h.HandleCreateEducation).Methods("POST")
	api.HandleFunc("/profile/education/{id}", h.HandleDeleteEducation).Methods("DELETE")
	api.HandleFunc("/profile/skills", h.HandleListSkills).Methods("GET")
	api.HandleFunc("/profile/skills", h.HandleCreateSkill).Methods("POST")
	api.HandleFunc("/profile/skills/{id}", h.HandleDeleteSkill).Methods("DELETE")
	api.HandleFunc("/profile/projects", h.HandleListProjects).Methods("GET")
	api.HandleFunc("/profile/projects", h.HandleCreateProject).Methods("POST")
	api.HandleFunc("/profile/projects/{id}", h.HandleDeleteProject).Methods("DELETE")
	api.HandleFunc("/profile/certifications", h.HandleListCertifications).Methods("GET")
	api.HandleFunc("/profile/certifications", h.HandleCreateCertification).Methods("POST")
	api.HandleFunc("/profile/certifications/{id}", h.HandleDeleteCertification).Methods("DELETE")

	// Job description endpoints (protected)
	api.HandleFunc("/job-descriptions", h.HandleListJobDescriptions).Methods("GET")
	api.HandleFunc("/job-descriptions", h.HandleCreateJobDescription).Methods("POST")
	api.HandleFunc("/job-descriptions/{id}", h.HandleGetJobDescription).Methods("GET")
	api.HandleFunc("/job-descriptions/{id}", h.HandleDeleteJobDescription).Methods("DELETE")

	// Optimization runs and resume imports burn AI quota, so they share a
	// budget of their own on top of the default API limit
	optimize := http.HandlerFunc(h.HandleOptimize)
	importResume := http.HandlerFunc(h.HandleProcessResume)
	if optimizeLimiter != nil {
		// Prefix keeps the AI budget separate from the default API budget
		// in the shared counter store
		limit := optimizeLimiter.HTTPMiddleware(func(r *http.Request) string {
			if key := ratelimit.UserBasedKey(r); key != "" {
				return "optimize|" + key
			}
			return ""
		})
		api.Handle("/resumes/optimize", limit(optimize)).Methods("POST")
		api.Handle("/profile/import", limit(importResume)).Methods("POST")
	} else {
		api.Handle("/resumes/optimize", optimize).Methods("POST")
		api.Handle("/profile/import", importResume).Methods("POST")
	}

	// Resume endpoints (protected)
	api.HandleFunc("/resumes", h.HandleListResumes).Methods("GET")
	api.HandleFunc("/resumes/{id}", h.HandleGetResume).Methods("GET")
	api.HandleFunc("/resumes/{id}/export", h.HandleExportPDF).Methods("POST")

	// Feedback endpoints (protected)
	api.HandleFunc("/feedback", h.HandleListFeedback).Methods("GET")
	api.HandleFunc("/feedback", h.HandleCreateFeedback).Methods("POST")

	return middleware.SecurityMiddleware(app.Config.CORSAllowedOrigin)(router), nil
}
