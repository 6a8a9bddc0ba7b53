package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

// CounterHandler exposes the session counter as JSON for the React frontend
type CounterHandler struct {
	counters *services.CounterService
}

// NewCounterHandler creates a new counter handler
func NewCounterHandler(counters *services.CounterService) *CounterHandler {
	return &CounterHandler{
		counters: counters,
	}
}

// GetCounter handles GET /api/counter
// @Summary Get the counter
// @Description Returns the counter value of the current session. A new session starts at 0.
// @Tags counter
// @Produce json
// @Success 200 {object} models.CounterResponse "Current value"
// @Failure 500 {object} models.ErrorResponse "Counter store unavailable"
// @Router /api/counter [get]
func (h *CounterHandler) GetCounter(c *gin.Context) {
	session, err := currentSession(c)
	if err != nil {
		respondError(c, err, "Internal server error")
		return
	}

	count, err := h.counters.Value(c.Request.Context(), session.ID)
	if err != nil {
		respondError(c, err, "Failed to read counter")
		return
	}

	c.JSON(http.StatusOK, models.CounterResponse{Count: count})
}

// IncrementCounter handles POST /api/counter/increment
// @Summary Increment the counter
// @Description Adds one to the counter of the current session and returns the new value.
// @Tags counter
// @Produce json
// @Success 200 {object} models.CounterResponse "Value after increment"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Counter store unavailable"
// @Router /api/counter/increment [post]
func (h *CounterHandler) IncrementCounter(c *gin.Context) {
	session, err := currentSession(c)
	if err != nil {
		respondError(c, err, "Internal server error")
		return
	}

	count, err := h.counters.Increment(c.Request.Context(), session.ID)
	if err != nil {
		respondError(c, err, "Failed to increment counter")
		return
	}

	c.JSON(http.StatusOK, models.CounterResponse{Count: count})
}
