package sqlxrepos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database"
)

func openDB(t *testing.T) *sqlx.DB {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	insertActivity := `INSERT INTO activities (name, description, schedule, max_participants) VALUES ('Chess Club', 'd', 's', 12)`
	_, err := db.ExecContext(ctx, insertActivity)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insertActivity)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "duplicate primary key: %v", err)

	insertMember := `INSERT INTO participants (activity_name, email, position) VALUES ('Chess Club', 'emma@mergington.edu', ?)`
	_, err = db.ExecContext(ctx, insertMember, 1)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insertMember, 2)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "duplicate composite key: %v", err)
	assert.True(t, isUniqueViolation(errors.Wrap(err, "inserting")))

	_, err = db.ExecContext(ctx, `INSERT INTO participants (activity_name, email, position) VALUES ('Chess Club', NULL, 3)`)
	require.Error(t, err)
	assert.False(t, isUniqueViolation(err), "not null: %v", err)

	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: "23505"}, "inserting")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestAppendMemberDuplicate(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo := NewRosterRepository(db)

	require.NoError(t, repo.CreateActivity(ctx, activity.Activity{
		Name: "Chess Club", Description: "d", Schedule: "s", MaxParticipants: 12,
		Participants: []string{"emma@mergington.edu"},
	}))

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = appendMember(ctx, tx, participantsTable, "Chess Club", "emma@mergington.edu", activity.ErrAlreadySignedUp)
	assert.Equal(t, activity.ErrAlreadySignedUp, err)

	err = appendMember(ctx, tx, adminsTable, "Chess Club", "emma@mergington.edu", activity.ErrAlreadyAdmin)
	require.NoError(t, err)
	err = appendMember(ctx, tx, adminsTable, "Chess Club", "emma@mergington.edu", activity.ErrAlreadyAdmin)
	assert.Equal(t, activity.ErrAlreadyAdmin, err)
}
