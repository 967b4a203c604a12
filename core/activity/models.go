package activity

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mergington/roster/core"
)

// Feedback types & statuses
const (
	FeedbackComplaint = "complaint"
	FeedbackGeneral   = "feedback"

	StatusOpen = "open"
)

type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"` // advisory, signups are never capped
	Participants    []string `json:"participants"`
	Admins          []string `json:"admins"`
}

func (a Activity) HasParticipant(email string) bool {
	return contains(a.Participants, email)
}

func (a Activity) HasAdmin(email string) bool {
	return contains(a.Admins, email)
}

// Clone returns a deep copy of a; nil member lists become empty lists.
func (a Activity) Clone() Activity {
	a.Participants = append(make([]string, 0, len(a.Participants)), a.Participants...)
	a.Admins = append(make([]string, 0, len(a.Admins)), a.Admins...)
	return a
}

// KeepMembers copies prev's participants and admins into a wherever a has none.
func (a *Activity) KeepMembers(prev Activity) {
	if len(a.Participants) == 0 {
		a.Participants = prev.Participants
	}
	if len(a.Admins) == 0 {
		a.Admins = prev.Admins
	}
}

type Assignment struct {
	ActivityName string    `json:"activity_name"`
	AssignedTo   string    `json:"assigned_to"`
	AssignedBy   string    `json:"assigned_by"`
	AssignedAt   time.Time `json:"assigned_at"` // UTC
}

type Feedback struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	ActivityName string    `json:"activity_name"`
	Type         string    `json:"feedback_type"`
	Message      string    `json:"message"`
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
	Status       string    `json:"status"`
}

type Dashboard struct {
	Email             string       `json:"email"`
	Signups           []string     `json:"signups"`
	Feedback          []Feedback   `json:"feedback"`
	ManagedActivities []Assignment `json:"managed_activities"`
}

// NewActivity contains information needed to create a new Activity.
type NewActivity struct {
	Name            string   `json:"name" validate:"required,notblank"`
	Description     string   `json:"description" validate:"required"`
	Schedule        string   `json:"schedule" validate:"required"`
	MaxParticipants int      `json:"max_participants" validate:"required,gt=0"`
	Participants    []string `json:"participants" validate:"omitempty,unique,dive,email"`
	Admins          []string `json:"admins" validate:"omitempty,unique,dive,email"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)
	na.Schedule = core.CleanString(na.Schedule)
	na.Participants = cleanEmails(na.Participants)
	na.Admins = cleanEmails(na.Admins)
	return validate.Struct(na)
}

func (na NewActivity) Activity() Activity {
	return Activity{
		Name:            na.Name,
		Description:     na.Description,
		Schedule:        na.Schedule,
		MaxParticipants: na.MaxParticipants,
		Participants:    na.Participants,
		Admins:          na.Admins,
	}.Clone()
}

// UpdateActivity replaces an Activity's details.
// Empty Participants or Admins keep the stored ones.
type UpdateActivity struct {
	Description     string   `json:"description" validate:"required"`
	Schedule        string   `json:"schedule" validate:"required"`
	MaxParticipants int      `json:"max_participants" validate:"required,gt=0"`
	Participants    []string `json:"participants" validate:"omitempty,unique,dive,email"`
	Admins          []string `json:"admins" validate:"omitempty,unique,dive,email"`
}

func (ua *UpdateActivity) Validate(validate *validator.Validate) error {
	ua.Description = core.CleanString(ua.Description)
	ua.Schedule = core.CleanString(ua.Schedule)
	ua.Participants = cleanEmails(ua.Participants)
	ua.Admins = cleanEmails(ua.Admins)
	return validate.Struct(ua)
}

// Member identifies a student or admin by email.
type Member struct {
	Email string `query:"email" validate:"required,email"`
}

func (m *Member) Validate(validate *validator.Validate) error {
	m.Email = core.CleanString(m.Email, true /* lower */)
	return validate.Struct(m)
}

type NewAssignment struct {
	ActivityName string `json:"activity_name" validate:"required,notblank"`
	AssignedTo   string `json:"assigned_to" validate:"required,email"`
	AssignedBy   string `json:"assigned_by" validate:"required,email"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.ActivityName = core.CleanString(na.ActivityName)
	na.AssignedTo = core.CleanString(na.AssignedTo, true /* lower */)
	na.AssignedBy = core.CleanString(na.AssignedBy, true /* lower */)
	return validate.Struct(na)
}

type NewFeedback struct {
	Email   string `json:"email" validate:"required,email"`
	Type    string `json:"feedback_type" validate:"required,oneof=complaint feedback"`
	Message string `json:"message" validate:"required,notblank"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Email = core.CleanString(nf.Email, true /* lower */)
	nf.Type = core.CleanString(nf.Type, true /* lower */)
	nf.Message = core.CleanString(nf.Message)
	return validate.Struct(nf)
}

func cleanEmails(emails []string) []string {
	for i, email := range emails {
		emails[i] = core.CleanString(email, true /* lower */)
	}
	return emails
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
