package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core/activity"
)

// RunRosterRepositoryTests checks the activity.Repository contract against fresh repositories built by newRepo.
func RunRosterRepositoryTests(t *testing.T, newRepo func(t *testing.T) activity.Repository) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)
		want := CreateActivity(t, repo, "Chess Club", 12)

		got, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Empty(t, got.Participants)
		assert.NotNil(t, got.Participants)

		err = repo.CreateActivity(ctx, want)
		assert.Equal(t, activity.ErrExists, errors.Cause(err))
	})

	t.Run("get unknown", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetActivity(ctx, "Nope")
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
	})

	t.Run("query", func(t *testing.T) {
		repo := newRepo(t)
		acts, err := repo.QueryActivities(ctx)
		require.NoError(t, err)
		assert.Empty(t, acts)

		chess := CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu", "daniel@mergington.edu")
		art := CreateActivity(t, repo, "Art Club", 15)

		acts, err = repo.QueryActivities(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]activity.Activity{"Chess Club": chess, "Art Club": art}, acts)
	})

	t.Run("signup", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu", "daniel@mergington.edu")

		require.NoError(t, repo.AddParticipant(ctx, "Chess Club", "new@x.edu"))
		err := repo.AddParticipant(ctx, "Chess Club", "new@x.edu")
		assert.Equal(t, activity.ErrAlreadySignedUp, errors.Cause(err))

		act, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu", "new@x.edu"}, act.Participants)

		err = repo.AddParticipant(ctx, "Nope", "new@x.edu")
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
	})

	t.Run("unregister", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu", "daniel@mergington.edu", "new@x.edu")

		require.NoError(t, repo.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu"))
		err := repo.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu")
		assert.Equal(t, activity.ErrNotSignedUp, errors.Cause(err))

		act, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, []string{"daniel@mergington.edu", "new@x.edu"}, act.Participants)

		err = repo.RemoveParticipant(ctx, "Nope", "daniel@mergington.edu")
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
	})

	t.Run("admins", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12)

		require.NoError(t, repo.AddAdmin(ctx, "Chess Club", "mr.chen@mergington.edu"))
		assert.Equal(t, activity.ErrAlreadyAdmin, errors.Cause(repo.AddAdmin(ctx, "Chess Club", "mr.chen@mergington.edu")))
		assert.Equal(t, activity.ErrNotFound, errors.Cause(repo.AddAdmin(ctx, "Nope", "mr.chen@mergington.edu")))

		act, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, []string{"mr.chen@mergington.edu"}, act.Admins)

		require.NoError(t, repo.RemoveAdmin(ctx, "Chess Club", "mr.chen@mergington.edu"))
		assert.Equal(t, activity.ErrNotAdmin, errors.Cause(repo.RemoveAdmin(ctx, "Chess Club", "mr.chen@mergington.edu")))
	})

	t.Run("replace keeps members", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu", "daniel@mergington.edu")
		require.NoError(t, repo.AddAdmin(ctx, "Chess Club", "mr.chen@mergington.edu"))

		saved, err := repo.ReplaceActivity(ctx, activity.Activity{
			Name:            "Chess Club",
			Description:     "Updated",
			Schedule:        "Mondays",
			MaxParticipants: 20,
		})
		require.NoError(t, err)

		got, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
		assert.Equal(t, "Updated", got.Description)
		assert.Equal(t, 20, got.MaxParticipants)
		assert.ElementsMatch(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, got.Participants)
		assert.Equal(t, []string{"mr.chen@mergington.edu"}, got.Admins)

		got, err = repo.ReplaceActivity(ctx, activity.Activity{
			Name:            "Chess Club",
			Description:     "Again",
			Schedule:        "Mondays",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"emma@mergington.edu"}, got.Participants)

		_, err = repo.ReplaceActivity(ctx, activity.Activity{Name: "Nope", MaxParticipants: 1})
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
	})

	t.Run("delete removes assignment", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12, "michael@mergington.edu")
		require.NoError(t, repo.Assign(ctx, activity.Assignment{
			ActivityName: "Chess Club",
			AssignedTo:   "mr.chen@mergington.edu",
			AssignedBy:   "principal@mergington.edu",
			AssignedAt:   time.Now().UTC(),
		}))

		require.NoError(t, repo.DeleteActivity(ctx, "Chess Club"))
		assert.Equal(t, activity.ErrNotFound, errors.Cause(repo.DeleteActivity(ctx, "Chess Club")))

		_, err := repo.GetActivity(ctx, "Chess Club")
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
		asgs, err := repo.QueryAssignments(ctx)
		require.NoError(t, err)
		assert.Empty(t, asgs)

		// the name is free again, without stale members
		act := CreateActivity(t, repo, "Chess Club", 5)
		got, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, act, got)
	})

	t.Run("assignments", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12)
		at := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

		err := repo.Assign(ctx, activity.Assignment{ActivityName: "Nope", AssignedTo: "a@x.edu", AssignedBy: "b@x.edu", AssignedAt: at})
		assert.Equal(t, activity.ErrNotFound, errors.Cause(err))

		first := activity.Assignment{ActivityName: "Chess Club", AssignedTo: "a@x.edu", AssignedBy: "b@x.edu", AssignedAt: at}
		second := activity.Assignment{ActivityName: "Chess Club", AssignedTo: "c@x.edu", AssignedBy: "b@x.edu", AssignedAt: at.Add(time.Hour)}
		require.NoError(t, repo.Assign(ctx, first))
		require.NoError(t, repo.Assign(ctx, second))

		asgs, err := repo.QueryAssignments(ctx)
		require.NoError(t, err)
		require.Len(t, asgs, 1)
		got := asgs["Chess Club"]
		assert.Equal(t, second.AssignedTo, got.AssignedTo)
		assert.True(t, second.AssignedAt.Equal(got.AssignedAt))

		require.NoError(t, repo.Unassign(ctx, "Chess Club"))
		assert.Equal(t, activity.ErrAssignmentNotFound, errors.Cause(repo.Unassign(ctx, "Chess Club")))
	})

	t.Run("feedback", func(t *testing.T) {
		repo := newRepo(t)
		at := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
		fbs := []activity.Feedback{
			{ID: "1", Email: "emma@mergington.edu", ActivityName: "Chess Club", Type: activity.FeedbackComplaint, Message: "Too loud", SubmittedAt: at, Status: activity.StatusOpen},
			{ID: "2", Email: "emma@mergington.edu", ActivityName: "Art Club", Type: activity.FeedbackGeneral, Message: "Great", SubmittedAt: at.Add(time.Minute), Status: activity.StatusOpen},
			{ID: "3", Email: "liam@mergington.edu", ActivityName: "Art Club", Type: activity.FeedbackGeneral, Message: "Fun", SubmittedAt: at.Add(2 * time.Minute), Status: activity.StatusOpen},
		}
		for _, fb := range fbs {
			require.NoError(t, repo.AddFeedback(ctx, fb))
		}

		got, err := repo.QueryFeedback(ctx, "emma@mergington.edu")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "2", got[1].ID)
		assert.True(t, at.Equal(got[0].SubmittedAt))

		got, err = repo.QueryFeedback(ctx, "nobody@mergington.edu")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("feedback with equal timestamps", func(t *testing.T) {
		repo := newRepo(t)
		at := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
		for _, id := range []string{"c", "a", "d", "b"} {
			require.NoError(t, repo.AddFeedback(ctx, activity.Feedback{
				ID: id, Email: "emma@mergington.edu", ActivityName: "Chess Club", Type: activity.FeedbackGeneral,
				Message: "Msg " + id, SubmittedAt: at, Status: activity.StatusOpen,
			}))
		}

		got, err := repo.QueryFeedback(ctx, "emma@mergington.edu")
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, fb := range got {
			ids = append(ids, fb.ID)
		}
		assert.Equal(t, []string{"c", "a", "d", "b"}, ids)
	})

	t.Run("concurrent signups", func(t *testing.T) {
		repo := newRepo(t)
		CreateActivity(t, repo, "Chess Club", 12)

		const n = 8
		var (
			wg        sync.WaitGroup
			mutex     sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.AddParticipant(ctx, "Chess Club", "race@x.edu")
				mutex.Lock()
				defer mutex.Unlock()
				switch errors.Cause(err) {
				case nil:
					successes++
				case activity.ErrAlreadySignedUp:
					conflicts++
				default:
					t.Errorf("AddParticipant() unexpected error = %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, conflicts)
		act, err := repo.GetActivity(ctx, "Chess Club")
		require.NoError(t, err)
		assert.Equal(t, []string{"race@x.edu"}, act.Participants)
	})
}
