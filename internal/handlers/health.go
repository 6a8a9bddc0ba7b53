package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dgtt-autoecole/api-backend/internal/models"
)

// HealthHandler handles the /health and /api/health endpoints.
// It consults no request data and no dependencies.
// @Summary Liveness check
// @Description Reports that the process is up. Always returns 200 with a static payload and the current timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse "Service is alive"
// @Router /health [get]
// @Router /api/health [get]
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewHealthResponse(time.Now()))
}
