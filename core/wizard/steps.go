package wizard

import (
	"github.com/parishdesk/parishdesk/core/member"
)

// Step ids, in wizard order.
const (
	StepPersonal = iota + 1
	StepContact
	StepOccupation
	StepFamily
	StepEmergency
	StepMedical
	StepSacraments
	StepSocieties
	StepSkills
	StepReview

	FirstStep = StepPersonal
	LastStep  = StepReview
)

var stepTitles = [...]string{
	StepPersonal:   "Personal Information",
	StepContact:    "Contact Information",
	StepOccupation: "Occupation",
	StepFamily:     "Family Background",
	StepEmergency:  "Emergency Contacts",
	StepMedical:    "Medical Condition",
	StepSacraments: "Sacraments",
	StepSocieties:  "Societal Memberships",
	StepSkills:     "Skills",
	StepReview:     "Review & Submit",
}

// Title returns the title of step `id`, or "" for unknown ids.
func Title(id int) string {
	if !ValidStep(id) {
		return ""
	}
	return stepTitles[id]
}

func ValidStep(id int) bool {
	return id >= FirstStep && id <= LastStep
}

type Kind string

const (
	KindForm        Kind = "form"
	KindReview      Kind = "review"
	KindPlaceholder Kind = "placeholder"
)

// Actions offered by placeholder steps.
const (
	ActionReview = "review"
	ActionBack   = "back"
	ActionNext   = "next"
)

// Step describes how a wizard step is rendered & submitted.
type Step struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Kind        Kind     `json:"kind"`
	Implemented bool     `json:"implemented"`
	Actions     []string `json:"actions,omitempty"`

	newForm func(st *State) member.Form
}

// NewForm returns the step form seeded with the step data of `st`.
// ok is false for steps without a form.
func (s Step) NewForm(st *State) (form member.Form, ok bool) {
	if s.newForm == nil {
		return nil, false
	}
	return s.newForm(st), true
}

// Placeholder is the step variant of any id without a registered step.
func Placeholder(id int) Step {
	return Step{
		ID:      id,
		Title:   Title(id),
		Kind:    KindPlaceholder,
		Actions: []string{ActionReview, ActionBack, ActionNext},
	}
}

// Registry maps step ids to their descriptors.
type Registry map[int]Step

// DefaultRegistry registers the implemented steps; the others resolve to placeholders.
func DefaultRegistry() Registry {
	r := make(Registry)
	r.RegisterForm(StepPersonal, func(st *State) member.Form { return member.NewPersonalForm(st.Personal) })
	r.RegisterForm(StepContact, func(st *State) member.Form { return member.NewContactForm(st.Contact) })
	r.RegisterForm(StepOccupation, func(st *State) member.Form { return member.NewOccupationForm(st.Occupation) })
	r.RegisterForm(StepEmergency, func(st *State) member.Form { return member.NewEmergencyForm(st.Emergency) })
	r[StepReview] = Step{ID: StepReview, Title: Title(StepReview), Kind: KindReview, Implemented: true}
	return r
}

func (r Registry) RegisterForm(id int, newForm func(st *State) member.Form) {
	r[id] = Step{ID: id, Title: Title(id), Kind: KindForm, Implemented: true, newForm: newForm}
}

// Resolve never fails: unregistered ids fall through to the Placeholder variant.
func (r Registry) Resolve(id int) Step {
	if step, ok := r[id]; ok {
		return step
	}
	return Placeholder(id)
}

// Steps returns every wizard step, in order.
func (r Registry) Steps() []Step {
	steps := make([]Step, 0, LastStep)
	for id := FirstStep; id <= LastStep; id++ {
		steps = append(steps, r.Resolve(id))
	}
	return steps
}
