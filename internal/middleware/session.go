package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

const (
	sessionKey        = "session"
	sessionCreatedKey = "session_created"
)

// CookieConfig controls how the session cookie is written
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionMiddleware binds every request to a session.
// Requests without a usable cookie get a new session and a fresh cookie;
// known sessions are refreshed and their cookie re-issued.
func SessionMiddleware(sessionService *services.SessionService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookie.Name)

		resolved, err := sessionService.Resolve(c.Request.Context(), token, services.ClientInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		if err != nil {
			logging.Error("Failed to resolve session", "request_id", GetRequestID(c), "error", err)
			_ = c.Error(err)
			abortInternal(c, "Session storage unavailable")
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookie.Name,
			Value:    resolved.Token,
			Path:     "/",
			Expires:  resolved.ExpiresAt,
			MaxAge:   int(sessionService.Lifetime().Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		SetSession(c, resolved.Session)
		c.Set(sessionCreatedKey, resolved.Created)
		c.Next()
	}
}

// SetSession binds a session to the request
func SetSession(c *gin.Context, session *models.Session) {
	c.Set(sessionKey, session)
}

// GetSession returns the session bound by SessionMiddleware
func GetSession(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.Session)
	return session, ok && session != nil
}

// SessionCreated reports whether the session was started by this request
func SessionCreated(c *gin.Context) bool {
	return c.GetBool(sessionCreatedKey)
}

// isAPIRequest reports whether the client expects JSON
func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func abortInternal(c *gin.Context, message string) {
	abortWithError(c, http.StatusInternalServerError, "Internal server error", message)
}

// abortWithError answers JSON on API routes and plain text elsewhere
func abortWithError(c *gin.Context, status int, title, message string) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(status, models.ErrorResponse{
			Error:   title,
			Message: message,
		})
		return
	}
	c.Abort()
	c.String(status, message)
}
