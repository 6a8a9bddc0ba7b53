package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dgtt-autoecole/api-backend/internal/cache"
	"github.com/dgtt-autoecole/api-backend/internal/middleware"
	"github.com/dgtt-autoecole/api-backend/internal/models"
)

// errMissingSession is returned when a session route runs without the session middleware
var errMissingSession = errors.New("no session bound to request")

// determineErrorStatusCode maps error types to HTTP status codes
func determineErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, cache.ErrEmptySessionID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as JSON and records it on the gin context
func respondError(c *gin.Context, err error, title string) {
	_ = c.Error(err)
	c.JSON(determineErrorStatusCode(err), models.ErrorResponse{
		Error:   title,
		Message: err.Error(),
	})
}

// currentSession returns the session bound by the session middleware
func currentSession(c *gin.Context) (*models.Session, error) {
	session, ok := middleware.GetSession(c)
	if !ok {
		return nil, errMissingSession
	}
	return session, nil
}
