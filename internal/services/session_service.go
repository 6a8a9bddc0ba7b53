package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgtt-autoecole/api-backend/internal/crypto"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
	"github.com/dgtt-autoecole/api-backend/internal/validators"
)

var (
	// ErrSessionExpired is returned when a session has been idle longer than its lifetime
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound is returned when the cookie names a session that no longer exists
	ErrSessionNotFound = repositories.ErrSessionNotFound
)

// SessionService handles the business logic for browser sessions
type SessionService struct {
	repo     *repositories.SessionRepository
	metrics  *metrics.Registry
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// SessionConfig holds configuration for sessions
type SessionConfig struct {
	// Key signs the session cookie (32 bytes)
	Key []byte
	// Lifetime is the idle lifetime of a session
	Lifetime time.Duration
}

// ClientInfo describes the client making the request
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// ResolvedSession is the session bound to the current request
type ResolvedSession struct {
	Session   *models.Session
	Token     string
	ExpiresAt time.Time
	// Created is true when the request did not carry a usable session
	Created bool
}

// NewSessionService creates a new session service instance
func NewSessionService(repo *repositories.SessionRepository, reg *metrics.Registry, config *SessionConfig) (*SessionService, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("metrics registry is required")
	}
	if config == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if len(config.Key) != crypto.AppKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", crypto.ErrInvalidAppKey, len(config.Key))
	}
	if config.Lifetime <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive")
	}

	return &SessionService{
		repo:     repo,
		metrics:  reg,
		key:      config.Key,
		lifetime: config.Lifetime,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Lifetime returns the idle lifetime of sessions
func (s *SessionService) Lifetime() time.Duration {
	return s.lifetime
}

// Resolve binds a request to a session.
// A valid token naming a live session resumes it; anything else starts a new
// session. Only storage failures are returned as errors.
func (s *SessionService) Resolve(ctx context.Context, token string, client ClientInfo) (*ResolvedSession, error) {
	if token != "" {
		resolved, err := s.resume(ctx, token, client)
		if err == nil {
			return resolved, nil
		}
		if !errors.Is(err, crypto.ErrInvalidSessionToken) &&
			!errors.Is(err, ErrSessionNotFound) &&
			!errors.Is(err, ErrSessionExpired) {
			return nil, err
		}
		logging.Debug("Discarding unusable session cookie", "reason", err.Error())
	}

	return s.Start(ctx, client)
}

// Start creates a new session and signs its cookie token
func (s *SessionService) Start(ctx context.Context, client ClientInfo) (*ResolvedSession, error) {
	ip, ua := clientFields(client)
	session := &models.Session{
		ID:           uuid.NewString(),
		IPAddress:    ip,
		UserAgent:    ua,
		LastActivity: s.now(),
	}

	if errs := (&validators.SessionValidator{}).ValidateSessionCreation(session.ID, deref(ip), deref(ua)); len(errs) > 0 {
		return nil, fmt.Errorf("invalid session: %w", errors.Join(errs...))
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, expiresAt, err := crypto.GenerateSessionJWT(session.ID, s.key, s.lifetime)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsStartedTotal.Inc()
	logging.Debug("Session started", "session_id", session.ID)

	return &ResolvedSession{
		Session:   session,
		Token:     token,
		ExpiresAt: expiresAt,
		Created:   true,
	}, nil
}

// resume validates the token, checks idle expiry and refreshes the session
func (s *SessionService) resume(ctx context.Context, token string, client ClientInfo) (*ResolvedSession, error) {
	claims, err := crypto.VerifySessionJWT(token, s.key)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if session.IsExpired(s.lifetime, now) {
		return nil, ErrSessionExpired
	}

	ip, ua := clientFields(client)
	if err := s.repo.Touch(ctx, session.ID, ip, ua, now); err != nil {
		return nil, err
	}
	session.LastActivity = now
	session.IPAddress = ip
	session.UserAgent = ua

	// Sliding expiration: every response re-issues the cookie
	newToken, expiresAt, err := crypto.GenerateSessionJWT(session.ID, s.key, s.lifetime)
	if err != nil {
		return nil, err
	}

	return &ResolvedSession{
		Session:   session,
		Token:     newToken,
		ExpiresAt: expiresAt,
	}, nil
}

func clientFields(client ClientInfo) (ip, ua *string) {
	if client.IPAddress != "" {
		v := client.IPAddress
		ip = &v
	}
	if v := validators.SanitizeUserAgent(client.UserAgent); v != "" {
		ua = &v
	}
	return ip, ua
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
