package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core/activity"
)

// member tables
const (
	participantsTable = "participants"
	adminsTable       = "activity_admins"
)

type (
	activityRow struct {
		Name            string `db:"name"`
		Description     string `db:"description"`
		Schedule        string `db:"schedule"`
		MaxParticipants int    `db:"max_participants"`
	}

	memberRow struct {
		ActivityName string `db:"activity_name"`
		Email        string `db:"email"`
	}

	assignmentRow struct {
		ActivityName string    `db:"activity_name"`
		AssignedTo   string    `db:"assigned_to"`
		AssignedBy   string    `db:"assigned_by"`
		AssignedAt   time.Time `db:"assigned_at"`
	}

	feedbackRow struct {
		ID           string    `db:"id"`
		Email        string    `db:"email"`
		ActivityName string    `db:"activity_name"`
		Type         string    `db:"feedback_type"`
		Message      string    `db:"message"`
		SubmittedAt  time.Time `db:"submitted_at"`
		Status       string    `db:"status"`
	}
)

func (r activityRow) activity() activity.Activity {
	return activity.Activity{
		Name:            r.Name,
		Description:     r.Description,
		Schedule:        r.Schedule,
		MaxParticipants: r.MaxParticipants,
		Participants:    []string{},
		Admins:          []string{},
	}
}

func (r assignmentRow) assignment() activity.Assignment {
	return activity.Assignment{
		ActivityName: r.ActivityName,
		AssignedTo:   r.AssignedTo,
		AssignedBy:   r.AssignedBy,
		AssignedAt:   r.AssignedAt.UTC(),
	}
}

func (r feedbackRow) feedback() activity.Feedback {
	return activity.Feedback{
		ID:           r.ID,
		Email:        r.Email,
		ActivityName: r.ActivityName,
		Type:         r.Type,
		Message:      r.Message,
		SubmittedAt:  r.SubmittedAt.UTC(),
		Status:       r.Status,
	}
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

type rosterRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db *sqlx.DB) activity.Repository {
	return &rosterRepository{db: db}
}

// withTx runs fn in a transaction, committed only when fn succeeds.
func (repo *rosterRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func getActivity(ctx context.Context, q queryer, name string) (activity.Activity, error) {
	var row activityRow
	query := q.Rebind(`SELECT name, description, schedule, max_participants FROM activities WHERE name = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, name); err != nil {
		if err == sql.ErrNoRows {
			return activity.Activity{}, activity.ErrNotFound
		}
		return activity.Activity{}, errors.Wrap(err, "selecting activity")
	}

	act := row.activity()
	var err error
	if act.Participants, err = getMembers(ctx, q, participantsTable, name); err != nil {
		return activity.Activity{}, err
	}
	if act.Admins, err = getMembers(ctx, q, adminsTable, name); err != nil {
		return activity.Activity{}, err
	}
	return act, nil
}

func getMembers(ctx context.Context, q queryer, table, name string) ([]string, error) {
	emails := make([]string, 0)
	query := q.Rebind(`SELECT email FROM ` + table + ` WHERE activity_name = ? ORDER BY position`)
	if err := sqlx.SelectContext(ctx, q, &emails, query, name); err != nil {
		return nil, errors.Wrapf(err, "selecting %s", table)
	}
	return emails, nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, table, name string, emails []string) error {
	query := tx.Rebind(`INSERT INTO ` + table + ` (activity_name, email, position) VALUES (?, ?, ?)`)
	for i, email := range emails {
		if _, err := tx.ExecContext(ctx, query, name, email, i+1); err != nil {
			return errors.Wrapf(err, "inserting into %s", table)
		}
	}
	return nil
}

func deleteMembers(ctx context.Context, tx *sqlx.Tx, table, name string) error {
	query := tx.Rebind(`DELETE FROM ` + table + ` WHERE activity_name = ?`)
	_, err := tx.ExecContext(ctx, query, name)
	return errors.Wrapf(err, "deleting from %s", table)
}

func (repo *rosterRepository) QueryActivities(ctx context.Context) (map[string]activity.Activity, error) {
	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT name, description, schedule, max_participants FROM activities`); err != nil {
		return nil, errors.Wrap(err, "selecting activities")
	}
	acts := make(map[string]activity.Activity, len(rows))
	for _, row := range rows {
		acts[row.Name] = row.activity()
	}

	for _, table := range []string{participantsTable, adminsTable} {
		var members []memberRow
		query := `SELECT activity_name, email FROM ` + table + ` ORDER BY activity_name, position`
		if err := repo.db.SelectContext(ctx, &members, query); err != nil {
			return nil, errors.Wrapf(err, "selecting %s", table)
		}
		for _, m := range members {
			act, ok := acts[m.ActivityName]
			if !ok {
				continue
			}
			if table == participantsTable {
				act.Participants = append(act.Participants, m.Email)
			} else {
				act.Admins = append(act.Admins, m.Email)
			}
			acts[m.ActivityName] = act
		}
	}
	return acts, nil
}

func (repo *rosterRepository) GetActivity(ctx context.Context, name string) (activity.Activity, error) {
	return getActivity(ctx, repo.db, name)
}

func (repo *rosterRepository) CreateActivity(ctx context.Context, act activity.Activity) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getActivity(ctx, tx, act.Name); err == nil {
			return activity.ErrExists
		} else if errors.Cause(err) != activity.ErrNotFound {
			return err
		}

		query := tx.Rebind(`INSERT INTO activities (name, description, schedule, max_participants) VALUES (?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query, act.Name, act.Description, act.Schedule, act.MaxParticipants); err != nil {
			if isUniqueViolation(err) {
				return activity.ErrExists
			}
			return errors.Wrap(err, "inserting activity")
		}
		if err := insertMembers(ctx, tx, participantsTable, act.Name, act.Participants); err != nil {
			return err
		}
		return insertMembers(ctx, tx, adminsTable, act.Name, act.Admins)
	})
}

func (repo *rosterRepository) ReplaceActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	err := repo.withTx(ctx, func(tx *sqlx.Tx) error {
		prev, err := getActivity(ctx, tx, act.Name)
		if err != nil {
			return err
		}
		act.KeepMembers(prev)
		act = act.Clone()

		query := tx.Rebind(`UPDATE activities SET description = ?, schedule = ?, max_participants = ? WHERE name = ?`)
		if _, err = tx.ExecContext(ctx, query, act.Description, act.Schedule, act.MaxParticipants, act.Name); err != nil {
			return errors.Wrap(err, "updating activity")
		}
		for table, emails := range map[string][]string{participantsTable: act.Participants, adminsTable: act.Admins} {
			if err = deleteMembers(ctx, tx, table, act.Name); err != nil {
				return err
			}
			if err = insertMembers(ctx, tx, table, act.Name, emails); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return activity.Activity{}, err
	}
	return act, nil
}

func (repo *rosterRepository) DeleteActivity(ctx context.Context, name string) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getActivity(ctx, tx, name); err != nil {
			return err
		}
		for _, query := range []string{
			`DELETE FROM participants WHERE activity_name = ?`,
			`DELETE FROM activity_admins WHERE activity_name = ?`,
			`DELETE FROM assignments WHERE activity_name = ?`,
			`DELETE FROM activities WHERE name = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), name); err != nil {
				return errors.Wrap(err, "deleting activity")
			}
		}
		return nil
	})
}

// addMember appends email to a member table, failing with errExists when it is already there.
func (repo *rosterRepository) addMember(ctx context.Context, table, name, email string, errExists error) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getActivity(ctx, tx, name); err != nil {
			return err
		}

		var count int
		query := tx.Rebind(`SELECT COUNT(*) FROM ` + table + ` WHERE activity_name = ? AND email = ?`)
		if err := tx.GetContext(ctx, &count, query, name, email); err != nil {
			return errors.Wrapf(err, "counting %s", table)
		}
		if count > 0 {
			return errExists
		}

		return appendMember(ctx, tx, table, name, email, errExists)
	})
}

// appendMember inserts email after the last member of the table.
// A concurrent insert of the same member surfaces as errExists.
func appendMember(ctx context.Context, tx *sqlx.Tx, table, name, email string, errExists error) error {
	query := tx.Rebind(`INSERT INTO ` + table + ` (activity_name, email, position) ` +
		`SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM ` + table + ` WHERE activity_name = ?`)
	if _, err := tx.ExecContext(ctx, query, name, email, name); err != nil {
		if isUniqueViolation(err) {
			return errExists
		}
		return errors.Wrapf(err, "inserting into %s", table)
	}
	return nil
}

// removeMember deletes email from a member table, failing with errMissing when it is not there.
func (repo *rosterRepository) removeMember(ctx context.Context, table, name, email string, errMissing error) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getActivity(ctx, tx, name); err != nil {
			return err
		}

		query := tx.Rebind(`DELETE FROM ` + table + ` WHERE activity_name = ? AND email = ?`)
		res, err := tx.ExecContext(ctx, query, name, email)
		if err != nil {
			return errors.Wrapf(err, "deleting from %s", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "getting affected rows")
		}
		if n == 0 {
			return errMissing
		}
		return nil
	})
}

func (repo *rosterRepository) AddParticipant(ctx context.Context, name, email string) error {
	return repo.addMember(ctx, participantsTable, name, email, activity.ErrAlreadySignedUp)
}

func (repo *rosterRepository) RemoveParticipant(ctx context.Context, name, email string) error {
	return repo.removeMember(ctx, participantsTable, name, email, activity.ErrNotSignedUp)
}

func (repo *rosterRepository) AddAdmin(ctx context.Context, name, email string) error {
	return repo.addMember(ctx, adminsTable, name, email, activity.ErrAlreadyAdmin)
}

func (repo *rosterRepository) RemoveAdmin(ctx context.Context, name, email string) error {
	return repo.removeMember(ctx, adminsTable, name, email, activity.ErrNotAdmin)
}

func (repo *rosterRepository) QueryAssignments(ctx context.Context) (map[string]activity.Assignment, error) {
	var rows []assignmentRow
	query := `SELECT activity_name, assigned_to, assigned_by, assigned_at FROM assignments`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	asgs := make(map[string]activity.Assignment, len(rows))
	for _, row := range rows {
		asgs[row.ActivityName] = row.assignment()
	}
	return asgs, nil
}

func (repo *rosterRepository) Assign(ctx context.Context, asg activity.Assignment) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM activities WHERE name = ?`), asg.ActivityName); err != nil {
			return errors.Wrap(err, "counting activities")
		}
		if count == 0 {
			return activity.ErrNotFound
		}

		query := tx.Rebind(`INSERT INTO assignments (activity_name, assigned_to, assigned_by, assigned_at) VALUES (?, ?, ?, ?) ` +
			`ON CONFLICT (activity_name) DO UPDATE SET ` +
			`assigned_to = excluded.assigned_to, assigned_by = excluded.assigned_by, assigned_at = excluded.assigned_at`)
		_, err := tx.ExecContext(ctx, query, asg.ActivityName, asg.AssignedTo, asg.AssignedBy, asg.AssignedAt.UTC())
		return errors.Wrap(err, "upserting assignment")
	})
}

func (repo *rosterRepository) Unassign(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM assignments WHERE activity_name = ?`), name)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return activity.ErrAssignmentNotFound
	}
	return nil
}

// AddFeedback numbers entries in submission order so that equal timestamps keep their order.
func (repo *rosterRepository) AddFeedback(ctx context.Context, fb activity.Feedback) error {
	return repo.withTx(ctx, func(tx *sqlx.Tx) error {
		var seq int64
		if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM feedback`); err != nil {
			return errors.Wrap(err, "numbering feedback")
		}
		query := tx.Rebind(`INSERT INTO feedback (id, seq, email, activity_name, feedback_type, message, submitted_at, status) ` +
			`VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, query, fb.ID, seq, fb.Email, fb.ActivityName, fb.Type, fb.Message, fb.SubmittedAt.UTC(), fb.Status)
		return errors.Wrap(err, "inserting feedback")
	})
}

func (repo *rosterRepository) QueryFeedback(ctx context.Context, email string) ([]activity.Feedback, error) {
	var rows []feedbackRow
	query := repo.db.Rebind(`SELECT id, email, activity_name, feedback_type, message, submitted_at, status ` +
		`FROM feedback WHERE email = ? ORDER BY submitted_at, seq`)
	if err := repo.db.SelectContext(ctx, &rows, query, email); err != nil {
		return nil, errors.Wrap(err, "selecting feedback")
	}
	fbs := make([]activity.Feedback, 0, len(rows))
	for _, row := range rows {
		fbs = append(fbs, row.feedback())
	}
	return fbs, nil
}
