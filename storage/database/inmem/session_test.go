package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core/teacher"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	teacher.NowFunc = func() time.Time { return now }
	defer func() { teacher.NowFunc = time.Now }()

	db := Open()
	store := NewSessionStore(db)

	old := teacher.Session{Token: "old", Username: "mrodriguez", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	live := teacher.Session{Token: "live", Username: "mrodriguez", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	db.sessions.table[old.Token] = old

	// saving sweeps expired sessions
	require.NoError(t, store.SaveSession(ctx, live))
	_, err := store.GetSession(ctx, old.Token)
	assert.Equal(t, teacher.ErrSessionNotFound, err)

	got, err := store.GetSession(ctx, live.Token)
	require.NoError(t, err)
	assert.Equal(t, live, got)

	require.NoError(t, store.DeleteSession(ctx, live.Token))
	require.NoError(t, store.DeleteSession(ctx, live.Token)) // no-op
	_, err = store.GetSession(ctx, live.Token)
	assert.Equal(t, teacher.ErrSessionNotFound, err)
}
