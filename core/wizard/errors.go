package wizard

import "errors"

var (
	ErrNotFound          = errors.New("wizard not found")
	ErrUnknownStep       = errors.New("unknown wizard step")
	ErrStepDataMismatch  = errors.New("step data does not match the step")
	ErrStepNotSubmitted  = errors.New("step could not be submitted")
	ErrNavigationDenied  = errors.New(MsgCompletePersonalFirst)
	ErrCannotSubmit      = errors.New("personal information must be submitted before the member can be created")
	ErrSubmitInFlight    = errors.New("a submission is already in progress")
	ErrNoFormForThisStep = errors.New("this step has no form")
)

// User-facing notices
const (
	MsgCompletePersonalFirst = "Please complete Personal Information first"
	MsgMemberCreated         = "Member created successfully"
	MsgCreateFailed          = "Failed to create member"
)
