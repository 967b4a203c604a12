package inmemdb

import (
	"context"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database/snapshot"
)

var _ snapshot.Backend = (*rosterTable)(nil)

func NewRosterRepository(db *DB) activity.Repository {
	return snapshot.NewRosterRepository(db.roster)
}

func (t *rosterTable) View(_ context.Context, fn func(r *activity.Roster) error) error {
	t.RLock()
	defer t.RUnlock()
	return fn(t.roster)
}

// Update runs fn on the live Roster. Roster methods leave it untouched when they fail.
func (t *rosterTable) Update(_ context.Context, fn func(r *activity.Roster) error) error {
	t.Lock()
	defer t.Unlock()
	return fn(t.roster)
}
