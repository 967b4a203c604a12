package activity

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = core.NewError(core.KindNotFound, "Activity not found")
	ErrExists             = core.NewError(core.KindConflict, "Activity already exists")
	ErrAlreadySignedUp    = core.NewError(core.KindConflict, "Student is already signed up")
	ErrNotSignedUp        = core.NewError(core.KindInvalidState, "Student is not signed up for this activity")
	ErrAlreadyAdmin       = core.NewError(core.KindConflict, "User is already an admin")
	ErrNotAdmin           = core.NewError(core.KindInvalidState, "User is not an admin")
	ErrAssignmentNotFound = core.NewError(core.KindNotFound, "Assignment not found")
)

type (
	// Repository persists the roster. Every mutating method is durable before it returns
	// and leaves the store unchanged when it fails.
	Repository interface {
		QueryActivities(ctx context.Context) (map[string]Activity, error)
		GetActivity(ctx context.Context, name string) (Activity, error)
		CreateActivity(ctx context.Context, act Activity) error
		// ReplaceActivity keeps the stored participants/admins when act has none.
		ReplaceActivity(ctx context.Context, act Activity) (Activity, error)
		// DeleteActivity also deletes the activity's assignment.
		DeleteActivity(ctx context.Context, name string) error

		AddParticipant(ctx context.Context, name, email string) error
		RemoveParticipant(ctx context.Context, name, email string) error
		AddAdmin(ctx context.Context, name, email string) error
		RemoveAdmin(ctx context.Context, name, email string) error

		QueryAssignments(ctx context.Context) (map[string]Assignment, error)
		// Assign overwrites any previous assignment of the activity.
		Assign(ctx context.Context, asg Assignment) error
		Unassign(ctx context.Context, name string) error

		AddFeedback(ctx context.Context, fb Feedback) error
		QueryFeedback(ctx context.Context, email string) ([]Feedback, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context) (map[string]Activity, error) {
	return svc.repo.QueryActivities(ctx)
}

func (svc *Service) Get(ctx context.Context, name string) (Activity, error) {
	return svc.repo.GetActivity(ctx, core.CleanString(name))
}

func (svc *Service) Create(ctx context.Context, na NewActivity) (Activity, error) {
	act := na.Activity()
	if err := svc.repo.CreateActivity(ctx, act); err != nil {
		return Activity{}, err
	}
	return act, nil
}

func (svc *Service) Update(ctx context.Context, name string, ua UpdateActivity) (Activity, error) {
	return svc.repo.ReplaceActivity(ctx, Activity{
		Name:            core.CleanString(name),
		Description:     ua.Description,
		Schedule:        ua.Schedule,
		MaxParticipants: ua.MaxParticipants,
		Participants:    ua.Participants,
		Admins:          ua.Admins,
	})
}

func (svc *Service) Delete(ctx context.Context, name string) error {
	return svc.repo.DeleteActivity(ctx, core.CleanString(name))
}

func (svc *Service) Signup(ctx context.Context, name, email string) error {
	return svc.repo.AddParticipant(ctx, core.CleanString(name), core.CleanString(email, true /* lower */))
}

func (svc *Service) Unregister(ctx context.Context, name, email string) error {
	return svc.repo.RemoveParticipant(ctx, core.CleanString(name), core.CleanString(email, true /* lower */))
}

func (svc *Service) AssignAdmin(ctx context.Context, name, email string) error {
	return svc.repo.AddAdmin(ctx, core.CleanString(name), core.CleanString(email, true /* lower */))
}

func (svc *Service) RemoveAdmin(ctx context.Context, name, email string) error {
	return svc.repo.RemoveAdmin(ctx, core.CleanString(name), core.CleanString(email, true /* lower */))
}

// Import signs every email up for the activity, skipping the ones already signed up.
func (svc *Service) Import(ctx context.Context, name string, emails []string) (imported, skipped int, err error) {
	name = core.CleanString(name)
	if _, err = svc.repo.GetActivity(ctx, name); err != nil {
		return 0, 0, err
	}
	for _, email := range emails {
		err = svc.repo.AddParticipant(ctx, name, core.CleanString(email, true /* lower */))
		switch {
		case err == nil:
			imported++
		case errors.Cause(err) == ErrAlreadySignedUp:
			skipped++
		default:
			return imported, skipped, errors.Wrapf(err, "signing up %s", email)
		}
	}
	return imported, skipped, nil
}

func (svc *Service) Assignments(ctx context.Context) (map[string]Assignment, error) {
	return svc.repo.QueryAssignments(ctx)
}

func (svc *Service) Assign(ctx context.Context, na NewAssignment) (Assignment, error) {
	asg := Assignment{
		ActivityName: na.ActivityName,
		AssignedTo:   na.AssignedTo,
		AssignedBy:   na.AssignedBy,
		AssignedAt:   NowFunc().UTC(),
	}
	if err := svc.repo.Assign(ctx, asg); err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *Service) Unassign(ctx context.Context, name string) error {
	return svc.repo.Unassign(ctx, core.CleanString(name))
}

func (svc *Service) SubmitFeedback(ctx context.Context, name string, nf NewFeedback) (Feedback, error) {
	fb := Feedback{
		ID:           uuid.New().String(),
		Email:        nf.Email,
		ActivityName: core.CleanString(name),
		Type:         nf.Type,
		Message:      nf.Message,
		SubmittedAt:  NowFunc().UTC(),
		Status:       StatusOpen,
	}
	if err := svc.repo.AddFeedback(ctx, fb); err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// Dashboard joins what the store knows about email. It is recomputed on every call.
func (svc *Service) Dashboard(ctx context.Context, email string) (Dashboard, error) {
	email = core.CleanString(email, true /* lower */)
	dash := Dashboard{
		Email:             email,
		Signups:           []string{},
		ManagedActivities: []Assignment{},
	}

	acts, err := svc.repo.QueryActivities(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying activities")
	}
	for name, act := range acts {
		if act.HasParticipant(email) {
			dash.Signups = append(dash.Signups, name)
		}
	}
	sort.Strings(dash.Signups)

	if dash.Feedback, err = svc.repo.QueryFeedback(ctx, email); err != nil {
		return Dashboard{}, errors.Wrap(err, "querying feedback")
	}
	if dash.Feedback == nil {
		dash.Feedback = []Feedback{}
	}

	asgs, err := svc.repo.QueryAssignments(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying assignments")
	}
	for _, asg := range asgs {
		if asg.AssignedTo == email {
			dash.ManagedActivities = append(dash.ManagedActivities, asg)
		}
	}
	sort.Slice(dash.ManagedActivities, func(i, j int) bool {
		return dash.ManagedActivities[i].ActivityName < dash.ManagedActivities[j].ActivityName
	})
	return dash, nil
}

// Seed creates acts when the store holds no activity yet. It returns the number of created activities.
func (svc *Service) Seed(ctx context.Context, acts []Activity) (int, error) {
	existing, err := svc.repo.QueryActivities(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying activities")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, act := range acts {
		if err = svc.repo.CreateActivity(ctx, act); err != nil {
			return 0, errors.Wrapf(err, "seeding %q", act.Name)
		}
	}
	return len(acts), nil
}
