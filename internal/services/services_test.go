package services

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dgtt-autoecole/api-backend/internal/cache"
	"github.com/dgtt-autoecole/api-backend/internal/crypto"
	"github.com/dgtt-autoecole/api-backend/internal/database"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
)

type fixture struct {
	db       *gorm.DB
	repo     *repositories.SessionRepository
	reg      *metrics.Registry
	sessions *SessionService
	counters *CounterService
	key      []byte
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := database.InitDB(database.TestConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	encoded, err := crypto.GenerateAppKey()
	require.NoError(t, err)
	key, err := crypto.DecodeAppKey(encoded)
	require.NoError(t, err)

	repo := repositories.NewSessionRepository(db)
	reg := metrics.NewRegistry()

	sessions, err := NewSessionService(repo, reg, &SessionConfig{Key: key, Lifetime: 2 * time.Hour})
	require.NoError(t, err)

	return &fixture{
		db:       db,
		repo:     repo,
		reg:      reg,
		sessions: sessions,
		counters: NewCounterService(cache.NewMemoryCounterStore(2*time.Hour, time.Hour), reg),
		key:      key,
	}
}

var client = ClientInfo{IPAddress: "192.0.2.10", UserAgent: "Mozilla/5.0"}

func TestNewSessionService_Validation(t *testing.T) {
	f := setup(t)

	_, err := NewSessionService(nil, f.reg, &SessionConfig{Key: f.key, Lifetime: time.Hour})
	assert.Error(t, err)
	_, err = NewSessionService(f.repo, f.reg, &SessionConfig{Key: []byte("short"), Lifetime: time.Hour})
	assert.ErrorIs(t, err, crypto.ErrInvalidAppKey)
	_, err = NewSessionService(f.repo, f.reg, &SessionConfig{Key: f.key})
	assert.Error(t, err)
	_, err = NewSessionService(f.repo, f.reg, nil)
	assert.Error(t, err)
}

func TestResolve_NoCookieStartsSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resolved, err := f.sessions.Resolve(ctx, "", client)
	require.NoError(t, err)
	assert.True(t, resolved.Created)
	assert.NotEmpty(t, resolved.Token)

	stored, err := f.repo.FindByID(ctx, resolved.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.IPAddress)
	assert.Equal(t, "192.0.2.10", *stored.IPAddress)

	claims, err := crypto.VerifySessionJWT(resolved.Token, f.key)
	require.NoError(t, err)
	assert.Equal(t, resolved.Session.ID, claims.SessionID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.SessionsStartedTotal))
}

func TestResolve_ValidCookieResumesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.sessions.Resolve(ctx, "", client)
	require.NoError(t, err)

	later := time.Now().UTC().Add(30 * time.Minute)
	f.sessions.now = func() time.Time { return later }

	second, err := f.sessions.Resolve(ctx, first.Token, ClientInfo{IPAddress: "198.51.100.7"})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Session.ID, second.Session.ID)

	stored, err := f.repo.FindByID(ctx, first.Session.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, later, stored.LastActivity, time.Second)
	require.NotNil(t, stored.IPAddress)
	assert.Equal(t, "198.51.100.7", *stored.IPAddress)
	assert.Nil(t, stored.UserAgent)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.SessionsStartedTotal))
}

func TestResolve_UnusableCookieStartsFreshSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	original, err := f.sessions.Resolve(ctx, "", client)
	require.NoError(t, err)

	otherKey, err := crypto.GenerateAppKey()
	require.NoError(t, err)
	foreignKey, err := crypto.DecodeAppKey(otherKey)
	require.NoError(t, err)
	forged, _, err := crypto.GenerateSessionJWT(original.Session.ID, foreignKey, time.Hour)
	require.NoError(t, err)

	ghost, _, err := crypto.GenerateSessionJWT("550e8400-e29b-41d4-a716-446655440000", f.key, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "garbage"},
		{"forged signature", forged},
		{"deleted session", ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := f.sessions.Resolve(ctx, tt.token, client)
			require.NoError(t, err)
			assert.True(t, resolved.Created)
			assert.NotEqual(t, original.Session.ID, resolved.Session.ID)
		})
	}
}

func TestResolve_IdleSessionExpires(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.sessions.Resolve(ctx, "", client)
	require.NoError(t, err)

	// Cookie is still signed and unexpired, but the row has been idle too long
	f.sessions.now = func() time.Time { return time.Now().UTC().Add(2*time.Hour + time.Minute) }
	_, err = f.sessions.resume(ctx, first.Token, client)
	assert.ErrorIs(t, err, ErrSessionExpired)

	second, err := f.sessions.Resolve(ctx, first.Token, client)
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
}

func TestResolve_StorageFailure(t *testing.T) {
	f := setup(t)
	require.NoError(t, database.Close(f.db))

	_, err := f.sessions.Resolve(context.Background(), "", client)
	assert.Error(t, err)
}

func TestStart_TruncatesUserAgent(t *testing.T) {
	f := setup(t)
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}

	resolved, err := f.sessions.Start(context.Background(), ClientInfo{UserAgent: string(long)})
	require.NoError(t, err)
	require.NotNil(t, resolved.Session.UserAgent)
	assert.Len(t, *resolved.Session.UserAgent, 512)
}

func TestStart_CleansShortInvalidUserAgent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resolved, err := f.sessions.Start(ctx, ClientInfo{IPAddress: "192.0.2.10", UserAgent: "curl/8.0\xff\x00"})
	require.NoError(t, err)
	require.NotNil(t, resolved.Session.UserAgent)
	assert.Equal(t, "curl/8.0", *resolved.Session.UserAgent)

	stored, err := f.repo.FindByID(ctx, resolved.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UserAgent)
	assert.True(t, utf8.ValidString(*stored.UserAgent))
	assert.Equal(t, "curl/8.0", *stored.UserAgent)

	// A user agent made only of garbage is stored as NULL
	resolved, err = f.sessions.Start(ctx, ClientInfo{UserAgent: "\xff\xfe"})
	require.NoError(t, err)
	assert.Nil(t, resolved.Session.UserAgent)
}

func TestCounterService(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	count, err := f.counters.Value(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	for n := int64(1); n <= 3; n++ {
		got, err := f.counters.Increment(ctx, "session-a")
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}

	count, err = f.counters.Value(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.reg.CounterIncrementsTotal))

	_, err = f.counters.Increment(ctx, "")
	assert.ErrorIs(t, err, cache.ErrEmptySessionID)

	assert.NoError(t, f.counters.Ping(ctx))
	assert.Equal(t, "memory", f.counters.StoreName())
}

func TestCleanupService_RemovesOnlyExpired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := &models.Session{ID: "550e8400-e29b-41d4-a716-000000000001", LastActivity: now.Add(-3 * time.Hour)}
	active := &models.Session{ID: "550e8400-e29b-41d4-a716-000000000002", LastActivity: now.Add(-time.Hour)}
	require.NoError(t, f.repo.Create(ctx, expired))
	require.NoError(t, f.repo.Create(ctx, active))

	_, err := f.counters.Increment(ctx, expired.ID)
	require.NoError(t, err)
	_, err = f.counters.Increment(ctx, active.ID)
	require.NoError(t, err)

	cleanup := NewCleanupService(f.repo, f.counters, f.reg, 2*time.Hour, time.Hour)
	assert.Equal(t, int64(1), cleanup.RunCleanupNow())

	_, err = f.repo.FindByID(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.repo.FindByID(ctx, active.ID)
	assert.NoError(t, err)

	gone, _ := f.counters.Value(ctx, expired.ID)
	kept, _ := f.counters.Value(ctx, active.ID)
	assert.Equal(t, int64(0), gone)
	assert.Equal(t, int64(1), kept)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.SessionsCleanedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.SessionsActive))

	require.NoError(t, f.repo.Create(ctx, &models.Session{ID: "550e8400-e29b-41d4-a716-000000000003", LastActivity: now}))
	assert.Equal(t, int64(0), cleanup.RunCleanupNow())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.reg.SessionsActive), "active gauge is refreshed even when nothing expired")
}

func TestCleanupService_StartStop(t *testing.T) {
	f := setup(t)

	cleanup := NewCleanupService(f.repo, f.counters, f.reg, 2*time.Hour, time.Hour)
	cleanup.Start()
	cleanup.Stop()
	cleanup.Stop() // idempotent
}
