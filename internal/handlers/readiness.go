package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dgtt-autoecole/api-backend/internal/database"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

const readinessTimeout = 2 * time.Second

// ReadinessHandler reports whether the backend can serve session routes
type ReadinessHandler struct {
	db        *gorm.DB
	counters  *services.CounterService
	startedAt time.Time
}

// NewReadinessHandler creates a new readiness handler
func NewReadinessHandler(db *gorm.DB, counters *services.CounterService, startedAt time.Time) *ReadinessHandler {
	return &ReadinessHandler{
		db:        db,
		counters:  counters,
		startedAt: startedAt,
	}
}

// Ready handles GET /ready
// @Summary Readiness check
// @Description Pings the session database and the counter store.
// @Tags health
// @Produce json
// @Success 200 {object} models.ReadinessResponse "All dependencies reachable"
// @Failure 503 {object} models.ReadinessResponse "At least one dependency is down"
// @Router /ready [get]
func (h *ReadinessHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	response := models.ReadinessResponse{
		Status:   models.ReadinessReady,
		Services: make(map[string]models.DependencyStatus, 2),
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	}

	response.Services["database"] = check(database.Ping(ctx, h.db), h.db.Dialector.Name()+" reachable")
	response.Services["counter_store"] = check(h.counters.Ping(ctx), h.counters.StoreName()+" reachable")

	statusCode := http.StatusOK
	for _, dep := range response.Services {
		if dep.Status != models.DependencyOK {
			response.Status = models.ReadinessNotReady
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, response)
}

func check(err error, okDetails string) models.DependencyStatus {
	if err != nil {
		return models.DependencyStatus{Status: models.DependencyDown, Details: err.Error()}
	}
	return models.DependencyStatus{Status: models.DependencyOK, Details: okDetails}
}
