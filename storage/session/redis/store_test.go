package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/teacher"
)

func setup(t *testing.T) (*miniredis.Miniredis, teacher.SessionStore) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), core.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSessionStore(client, "roster:")
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	mr, store := setup(t)

	now := time.Now().UTC().Truncate(time.Second)
	sess := teacher.Session{
		Token:     "abc",
		Username:  "mrodriguez",
		Role:      teacher.RoleAdmin,
		Name:      "Ms. Rodriguez",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveSession(ctx, sess))
	assert.True(t, mr.Exists("roster:session:abc"))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("roster:session:abc").Seconds(), 5)

	got, err := store.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = store.GetSession(ctx, "unknown")
	assert.Equal(t, teacher.ErrSessionNotFound, err)

	require.NoError(t, store.DeleteSession(ctx, "abc"))
	require.NoError(t, store.DeleteSession(ctx, "abc"))
	_, err = store.GetSession(ctx, "abc")
	assert.Equal(t, teacher.ErrSessionNotFound, err)
}

func TestSessionStore_expiry(t *testing.T) {
	ctx := context.Background()
	mr, store := setup(t)

	now := time.Now().UTC()
	require.NoError(t, store.SaveSession(ctx, teacher.Session{Token: "abc", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err := store.GetSession(ctx, "abc")
	assert.Equal(t, teacher.ErrSessionNotFound, err)

	// already expired sessions are never written
	require.NoError(t, store.SaveSession(ctx, teacher.Session{Token: "old", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}))
	assert.False(t, mr.Exists("roster:session:old"))

	// sub-millisecond TTLs would round to no expiry at all
	teacher.NowFunc = func() time.Time { return now }
	defer func() { teacher.NowFunc = time.Now }()
	require.NoError(t, store.SaveSession(ctx, teacher.Session{Token: "brief", CreatedAt: now, ExpiresAt: now.Add(400 * time.Microsecond)}))
	assert.False(t, mr.Exists("roster:session:brief"))

	require.NoError(t, store.SaveSession(ctx, teacher.Session{Token: "short", CreatedAt: now, ExpiresAt: now.Add(time.Millisecond)}))
	assert.True(t, mr.Exists("roster:session:short"))
	assert.Equal(t, time.Millisecond, mr.TTL("roster:session:short"))
}

func TestNewClient_unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), core.RedisConfig{Address: addr})
	assert.Error(t, err)
}
