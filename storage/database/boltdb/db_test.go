package boltdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database/boltdb"
	"github.com/mergington/roster/tests"
)

func TestRosterRepository(t *testing.T) {
	testutil.RunRosterRepositoryTests(t, testutil.Backends["bolt"])
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.bolt")

	db, err := boltdb.Open(path)
	require.NoError(t, err)
	repo := boltdb.NewRosterRepository(db)
	act := testutil.CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu")
	require.NoError(t, repo.AddFeedback(ctx, activity.Feedback{ID: "1", Email: "michael@mergington.edu", Type: activity.FeedbackGeneral, Message: "Hi"}))
	require.NoError(t, db.Close())

	db, err = boltdb.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	repo = boltdb.NewRosterRepository(db)

	got, err := repo.GetActivity(ctx, "Chess Club")
	require.NoError(t, err)
	assert.Equal(t, act, got)

	fbs, err := repo.QueryFeedback(ctx, "michael@mergington.edu")
	require.NoError(t, err)
	assert.Len(t, fbs, 1)
}

func TestCorruptStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.bolt")

	db, err := boltdb.Open(path)
	require.NoError(t, err)
	testutil.CreateActivity(t, boltdb.NewRosterRepository(db), "Chess Club", 12)
	require.NoError(t, db.Close())

	raw, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, raw.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte("activities")).Put([]byte("Chess Club"), []byte("{not json"))
	}))
	require.NoError(t, raw.Close())

	db, err = boltdb.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = boltdb.NewRosterRepository(db).QueryActivities(ctx)
	require.Error(t, err)
	assert.True(t, core.IsShutdown(err), "want a shutdown error, got %v", err)
}
