package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/services"
	"github.com/dgtt-autoecole/api-backend/internal/templates"
)

// WelcomeHandler serves the server-rendered counter page
type WelcomeHandler struct {
	counters *services.CounterService
}

// NewWelcomeHandler creates a new welcome handler
func NewWelcomeHandler(counters *services.CounterService) *WelcomeHandler {
	return &WelcomeHandler{
		counters: counters,
	}
}

// Show handles GET /
func (h *WelcomeHandler) Show(c *gin.Context) {
	session, err := currentSession(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	count, err := h.counters.Value(c.Request.Context(), session.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, templates.WelcomeTemplate, templates.NewWelcomeData(count))
}

// Increment handles POST /counter/increment and redirects back to the page
func (h *WelcomeHandler) Increment(c *gin.Context) {
	session, err := currentSession(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.counters.Increment(c.Request.Context(), session.ID); err != nil {
		h.fail(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WelcomeHandler) fail(c *gin.Context, err error) {
	logging.Error("Welcome view failed", "error", err)
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "Counter unavailable")
}
