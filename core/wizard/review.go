package wizard

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/member"
)

// Section is the read-only summary of one completed step.
type Section struct {
	StepID int            `json:"step_id"`
	Title  string         `json:"title"`
	Fields []member.Field `json:"fields"`
}

func records(st *State) []struct {
	id     int
	record member.Record
} {
	return []struct {
		id     int
		record member.Record
	}{
		{StepPersonal, st.Personal},
		{StepContact, st.Contact},
		{StepOccupation, st.Occupation},
		{StepEmergency, st.Emergency},
	}
}

// Sections returns one section per completed data step, in step order.
func Sections(st *State) []Section {
	sections := make([]Section, 0, 4)
	for _, r := range records(st) {
		if !st.CompletedStepIDs.Has(r.id) {
			continue
		}
		sections = append(sections, Section{StepID: r.id, Title: Title(r.id), Fields: r.record.Fields()})
	}
	return sections
}

// MapToAPIFormat flattens the step data into the members API payload.
// Absent & empty values are left out.
func MapToAPIFormat(st *State) map[string]interface{} {
	payload := make(map[string]interface{})
	for _, r := range records(st) {
		for _, f := range r.record.Fields() {
			if f.Value == nil || *f.Value == "" {
				continue
			}
			payload[f.Key] = *f.Value
		}
	}
	return payload
}

type (
	// MemberCreator creates a member on the members backend. Non-2xx responses carrying the
	// error envelope are returned as *member.APIError.
	MemberCreator interface {
		CreateMember(ctx context.Context, token string, payload map[string]interface{}) error
	}

	// Locker guards a wizard against concurrent submissions.
	// Acquire returns ErrSubmitInFlight while the wizard is already held.
	Locker interface {
		Acquire(ctx context.Context, id string) (release func(), err error)
	}

	Outcome int

	Reviewer struct {
		creator  MemberCreator
		locker   Locker
		notifier core.Notifier
		logger   core.Logger
	}
)

const (
	OutcomeCreated  Outcome = iota // the members API created the member
	OutcomeRejected                // the members API returned field errors
	OutcomeFailed                  // transport or decoding failure
)

func NewReviewer(creator MemberCreator, locker Locker, notifier core.Notifier, logger core.Logger) *Reviewer {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Reviewer{creator: creator, locker: locker, notifier: notifier, logger: logger}
}

// Submit sends the wizard to the members API, once, and records the outcome in the wizard banner.
// The completed steps & step data are never changed.
func (r *Reviewer) Submit(ctx context.Context, st *State, token string) (Outcome, error) {
	if !st.CanSubmit() {
		return OutcomeFailed, ErrCannotSubmit
	}

	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, st.ID)
		if err != nil {
			return OutcomeFailed, err
		}
		defer release()
	}

	st.Banner = Banner{}
	err := r.creator.CreateMember(ctx, token, MapToAPIFormat(st))
	if err == nil {
		st.Banner.Success = MsgMemberCreated
		r.notifier.Success(MsgMemberCreated)
		return OutcomeCreated, nil
	}

	var apiErr *member.APIError
	if errors.As(err, &apiErr) {
		st.Banner.Detail = apiErr.Detail
		st.Banner.Errors = apiErr.Lines()
		msg := apiErr.Detail
		if msg == "" {
			msg = MsgCreateFailed
		}
		r.notifier.Error(msg)
		return OutcomeRejected, nil
	}

	if r.logger != nil {
		r.logger.Error(fmt.Sprintf("creating member: %v", err), errors.Wrap(err, "creating member"))
	}
	r.notifier.Error(MsgCreateFailed)
	return OutcomeFailed, nil
}
