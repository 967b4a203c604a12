// Package snapshot implements activity.Repository over stores that keep the roster as one document.
package snapshot

import (
	"context"

	"github.com/mergington/roster/core/activity"
)

// Backend loads and saves a whole activity.Roster.
// Update must persist the Roster only when fn returns nil.
type Backend interface {
	View(ctx context.Context, fn func(r *activity.Roster) error) error
	Update(ctx context.Context, fn func(r *activity.Roster) error) error
}

type rosterRepository struct {
	b Backend
}

var _ activity.Repository = (*rosterRepository)(nil)

func NewRosterRepository(b Backend) activity.Repository {
	return &rosterRepository{b: b}
}

func (repo *rosterRepository) QueryActivities(ctx context.Context) (acts map[string]activity.Activity, err error) {
	err = repo.b.View(ctx, func(r *activity.Roster) error {
		acts = r.List()
		return nil
	})
	return acts, err
}

func (repo *rosterRepository) GetActivity(ctx context.Context, name string) (act activity.Activity, err error) {
	err = repo.b.View(ctx, func(r *activity.Roster) error {
		act, err = r.Get(name)
		return err
	})
	return act, err
}

func (repo *rosterRepository) CreateActivity(ctx context.Context, act activity.Activity) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.Create(act)
	})
}

func (repo *rosterRepository) ReplaceActivity(ctx context.Context, act activity.Activity) (saved activity.Activity, err error) {
	err = repo.b.Update(ctx, func(r *activity.Roster) error {
		saved, err = r.Replace(act)
		return err
	})
	return saved, err
}

func (repo *rosterRepository) DeleteActivity(ctx context.Context, name string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.Delete(name)
	})
}

func (repo *rosterRepository) AddParticipant(ctx context.Context, name, email string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.AddParticipant(name, email)
	})
}

func (repo *rosterRepository) RemoveParticipant(ctx context.Context, name, email string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.RemoveParticipant(name, email)
	})
}

func (repo *rosterRepository) AddAdmin(ctx context.Context, name, email string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.AddAdmin(name, email)
	})
}

func (repo *rosterRepository) RemoveAdmin(ctx context.Context, name, email string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.RemoveAdmin(name, email)
	})
}

func (repo *rosterRepository) QueryAssignments(ctx context.Context) (asgs map[string]activity.Assignment, err error) {
	err = repo.b.View(ctx, func(r *activity.Roster) error {
		asgs = r.ListAssignments()
		return nil
	})
	return asgs, err
}

func (repo *rosterRepository) Assign(ctx context.Context, asg activity.Assignment) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.Assign(asg)
	})
}

func (repo *rosterRepository) Unassign(ctx context.Context, name string) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		return r.Unassign(name)
	})
}

func (repo *rosterRepository) AddFeedback(ctx context.Context, fb activity.Feedback) error {
	return repo.b.Update(ctx, func(r *activity.Roster) error {
		r.AddFeedback(fb)
		return nil
	})
}

func (repo *rosterRepository) QueryFeedback(ctx context.Context, email string) (fbs []activity.Feedback, err error) {
	err = repo.b.View(ctx, func(r *activity.Roster) error {
		fbs = r.FeedbackFor(email)
		return nil
	})
	return fbs, err
}
