package activity

import "sort"

// Roster is the whole roster state as a single document.
// Stores that persist the state as one unit (memory, JSON file, bbolt) load a Roster,
// apply one of its methods and save it back. Methods either succeed or leave the Roster untouched.
type Roster struct {
	Activities  map[string]*Activity  `json:"activities"`
	Assignments map[string]Assignment `json:"assignments"`
	Feedback    map[string][]Feedback `json:"feedback"` // by email, in submission order
}

func NewRoster() *Roster {
	r := new(Roster)
	r.Init()
	return r
}

// Init allocates missing maps and restores activity names from their keys.
// Call it after decoding a Roster.
func (r *Roster) Init() {
	if r.Activities == nil {
		r.Activities = make(map[string]*Activity)
	}
	if r.Assignments == nil {
		r.Assignments = make(map[string]Assignment)
	}
	if r.Feedback == nil {
		r.Feedback = make(map[string][]Feedback)
	}
	for name, act := range r.Activities {
		if act == nil {
			delete(r.Activities, name)
			continue
		}
		act.Name = name
	}
}

func (r *Roster) get(name string) (*Activity, error) {
	if act, ok := r.Activities[name]; ok {
		return act, nil
	}
	return nil, ErrNotFound
}

func (r *Roster) List() map[string]Activity {
	acts := make(map[string]Activity, len(r.Activities))
	for name, act := range r.Activities {
		acts[name] = act.Clone()
	}
	return acts
}

func (r *Roster) Get(name string) (Activity, error) {
	act, err := r.get(name)
	if err != nil {
		return Activity{}, err
	}
	return act.Clone(), nil
}

func (r *Roster) Create(act Activity) error {
	if _, ok := r.Activities[act.Name]; ok {
		return ErrExists
	}
	act = act.Clone()
	r.Activities[act.Name] = &act
	return nil
}

func (r *Roster) Replace(act Activity) (Activity, error) {
	prev, err := r.get(act.Name)
	if err != nil {
		return Activity{}, err
	}
	act.KeepMembers(*prev)
	act = act.Clone()
	r.Activities[act.Name] = &act
	return act.Clone(), nil
}

// Delete removes the activity and its assignment.
func (r *Roster) Delete(name string) error {
	if _, err := r.get(name); err != nil {
		return err
	}
	delete(r.Activities, name)
	delete(r.Assignments, name)
	return nil
}

func (r *Roster) AddParticipant(name, email string) error {
	act, err := r.get(name)
	if err != nil {
		return err
	}
	if act.HasParticipant(email) {
		return ErrAlreadySignedUp
	}
	act.Participants = append(act.Participants, email)
	return nil
}

func (r *Roster) RemoveParticipant(name, email string) error {
	act, err := r.get(name)
	if err != nil {
		return err
	}
	if !act.HasParticipant(email) {
		return ErrNotSignedUp
	}
	act.Participants = remove(act.Participants, email)
	return nil
}

func (r *Roster) AddAdmin(name, email string) error {
	act, err := r.get(name)
	if err != nil {
		return err
	}
	if act.HasAdmin(email) {
		return ErrAlreadyAdmin
	}
	act.Admins = append(act.Admins, email)
	return nil
}

func (r *Roster) RemoveAdmin(name, email string) error {
	act, err := r.get(name)
	if err != nil {
		return err
	}
	if !act.HasAdmin(email) {
		return ErrNotAdmin
	}
	act.Admins = remove(act.Admins, email)
	return nil
}

func (r *Roster) ListAssignments() map[string]Assignment {
	asgs := make(map[string]Assignment, len(r.Assignments))
	for name, asg := range r.Assignments {
		asgs[name] = asg
	}
	return asgs
}

// Assign overwrites any previous assignment of the activity.
func (r *Roster) Assign(asg Assignment) error {
	if _, err := r.get(asg.ActivityName); err != nil {
		return err
	}
	r.Assignments[asg.ActivityName] = asg
	return nil
}

func (r *Roster) Unassign(name string) error {
	if _, ok := r.Assignments[name]; !ok {
		return ErrAssignmentNotFound
	}
	delete(r.Assignments, name)
	return nil
}

func (r *Roster) AddFeedback(fb Feedback) {
	r.Feedback[fb.Email] = append(r.Feedback[fb.Email], fb)
}

func (r *Roster) FeedbackFor(email string) []Feedback {
	return append(make([]Feedback, 0, len(r.Feedback[email])), r.Feedback[email]...)
}

// ActivityNames returns the roster's activity names in sorted order.
func (r *Roster) ActivityNames() []string {
	names := make([]string, 0, len(r.Activities))
	for name := range r.Activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
