package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dgtt-autoecole/api-backend/internal/models"
)

// ErrSessionNotFound is returned when no session row matches the ID
var ErrSessionNotFound = errors.New("session not found")

// cleanupBatchSize bounds the IN (...) list of a single delete
const cleanupBatchSize = 500

// SessionRepository handles database operations for sessions
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// FindByID retrieves a session by its ID
// Returns ErrSessionNotFound if the session doesn't exist
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

// Touch refreshes last activity and client details of a session
func (r *SessionRepository) Touch(ctx context.Context, id string, ipAddress, userAgent *string, at time.Time) error {
	if id == "" {
		return fmt.Errorf("session ID is required")
	}

	at = at.UTC()
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity": at,
			"ip_address":    ipAddress,
			"user_agent":    userAgent,
			"updated_at":    at,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to touch session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// ListExpiredIDs returns the IDs of sessions idle since before the cutoff
func (r *SessionRepository) ListExpiredIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("last_activity < ?", cutoff.UTC()).
		Order("last_activity ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	return ids, nil
}

// DeleteByIDs removes the given sessions and returns the number of deleted rows
func (r *SessionRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	var total int64
	for start := 0; start < len(ids); start += cleanupBatchSize {
		end := min(start+cleanupBatchSize, len(ids))

		result := r.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Delete(&models.Session{})
		if result.Error != nil {
			return total, fmt.Errorf("failed to delete sessions: %w", result.Error)
		}
		total += result.RowsAffected
	}

	return total, nil
}

// CountActive returns the number of sessions active since the cutoff
func (r *SessionRepository) CountActive(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("last_activity >= ?", cutoff.UTC()).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

// Count returns the total number of sessions
func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Session{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}
