package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// SetRedisHealth registers an optional Redis health check. When Redis is not
// configured the health endpoint simply omits it.
func (h *Handlers) SetRedisHealth(check func(ctx context.Context) error) {
	h.redisHealth = check
}

// HandleHealth reports service health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := healthResponse{
		Status:     "healthy",
		Components: map[string]string{"database": "ok"},
	}

	if err := h.db.PingContext(ctx); err != nil {
		response.Status = "unhealthy"
		response.Components["database"] = err.Error()
	}

	if h.redisHealth != nil {
		response.Components["redis"] = "ok"
		if err := h.redisHealth(ctx); err != nil {
			response.Status = "unhealthy"
			response.Components["redis"] = err.Error()
		}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, response)
}
