package wizard

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/member"
)

type (
	// Deps are the collaborators of a Controller. Nil members fall back to no-ops,
	// except Validate which is required by SubmitForm.
	Deps struct {
		Registry   Registry
		Notifier   core.Notifier
		Viewport   Viewport
		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
	}

	// Controller sequences the steps of one wizard State. It is not safe for concurrent use.
	Controller struct {
		st   *State
		deps Deps
	}

	nopNotifier struct{}
)

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

func NewController(st *State, deps Deps) *Controller {
	if deps.Registry == nil {
		deps.Registry = DefaultRegistry()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if st.CompletedStepIDs == nil {
		st.CompletedStepIDs = NewStepSet()
	}
	if !ValidStep(st.CurrentStepID) {
		st.CurrentStepID = FirstStep
	}
	return &Controller{st: st, deps: deps}
}

func (c *Controller) State() *State { return c.st }

func (c *Controller) CurrentStep() Step { return c.deps.Registry.Resolve(c.st.CurrentStepID) }

func (c *Controller) Steps() []Step { return c.deps.Registry.Steps() }

func (c *Controller) setCurrent(id int) {
	if id == c.st.CurrentStepID {
		return
	}
	c.st.CurrentStepID = id
	if c.deps.Viewport != nil {
		c.st.ScrollOffset = c.deps.Viewport.BringIntoView(id)
	}
}

func (c *Controller) touch() {
	c.st.UpdatedAt = time.Now().UTC()
}

// SubmitStep stores the data of step `id`, marks it completed and moves to the next step.
// Steps without a record (placeholders, review) accept a nil `data`.
func (c *Controller) SubmitStep(id int, data member.Record) error {
	if !ValidStep(id) {
		return ErrUnknownStep
	}

	switch id {
	case StepPersonal:
		info, ok := data.(member.PersonalInfo)
		if !ok {
			return ErrStepDataMismatch
		}
		c.st.Personal = info
	case StepContact:
		info, ok := data.(member.ContactInfo)
		if !ok {
			return ErrStepDataMismatch
		}
		c.st.Contact = info
	case StepOccupation:
		info, ok := data.(member.OccupationInfo)
		if !ok {
			return ErrStepDataMismatch
		}
		c.st.Occupation = info
	case StepEmergency:
		info, ok := data.(member.EmergencyInfo)
		if !ok {
			return ErrStepDataMismatch
		}
		c.st.Emergency = info
	}

	c.st.CompletedStepIDs[id] = struct{}{}
	next := id + 1
	if next > LastStep {
		next = LastStep
	}
	c.setCurrent(next)
	c.touch()
	return nil
}

// SubmitForm validates & formats the form of step `id` then submits the step.
// Validation problems are returned as *core.ValidationError.
// A failure while formatting is logged and leaves the wizard untouched.
func (c *Controller) SubmitForm(id int, form member.Form) error {
	if c.deps.Validate == nil {
		return errors.New("wizard: no validator")
	}

	form.Clean()
	if err := c.deps.Validate.Struct(form); err != nil {
		if c.deps.Translator != nil {
			return core.TranslateValidationErrors(err, c.deps.Translator)
		}
		return err
	}

	record, err := c.format(id, form)
	if err != nil {
		if c.deps.Logger != nil {
			c.deps.Logger.Error(fmt.Sprintf("formatting step %d: %v", id, err), err)
		}
		return ErrStepNotSubmitted
	}

	if err := c.SubmitStep(id, record); err != nil {
		return err
	}
	c.deps.Notifier.Success(Title(id) + " saved")
	return nil
}

func (c *Controller) format(id int, form member.Form) (record member.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("step %d: format panicked: %v", id, r)
		}
	}()
	return form.Format(), nil
}

// GoToStep jumps to step `target`. Only step 1 is reachable until Personal Information holds a date of birth.
func (c *Controller) GoToStep(target int) error {
	if !ValidStep(target) {
		return ErrUnknownStep
	}
	if target != FirstStep && c.st.Personal.DateOfBirth == "" {
		c.deps.Notifier.Error(MsgCompletePersonalFirst)
		return ErrNavigationDenied
	}
	c.setCurrent(target)
	c.touch()
	return nil
}

// GoBack moves to the previous step. No-op on the first step.
func (c *Controller) GoBack() {
	prev := c.st.CurrentStepID - 1
	if prev < FirstStep {
		prev = FirstStep
	}
	c.setCurrent(prev)
	c.touch()
}

// Skip moves to the next step without completing the current one. No-op on the last step.
func (c *Controller) Skip() {
	next := c.st.CurrentStepID + 1
	if next > LastStep {
		next = LastStep
	}
	c.setCurrent(next)
	c.touch()
}
