package wizard

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parishdesk/parishdesk/core/member"
)

// StepSet is an unordered set of step ids. It marshals to a sorted list.
type StepSet map[int]struct{}

func NewStepSet(ids ...int) StepSet {
	s := make(StepSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s StepSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s StepSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s StepSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *StepSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewStepSet(ids...)
	return nil
}

// Banner holds the outcome of the last submission, shown on the review step.
type Banner struct {
	Success string   `json:"success,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func (b Banner) IsEmpty() bool {
	return b.Success == "" && b.Detail == "" && len(b.Errors) == 0
}

// State is one wizard session: the step data collected so far & the navigation state.
type State struct {
	ID               string                `json:"id"`
	OwnerID          string                `json:"owner_id"`
	CurrentStepID    int                   `json:"current_step_id"`
	CompletedStepIDs StepSet               `json:"completed_step_ids"`
	Personal         member.PersonalInfo   `json:"personal"`
	Contact          member.ContactInfo    `json:"contact"`
	Occupation       member.OccupationInfo `json:"occupation"`
	Emergency        member.EmergencyInfo  `json:"emergency"`
	ScrollOffset     int                   `json:"scroll_offset"`
	Banner           Banner                `json:"banner"`
	CreatedAt        time.Time             `json:"created_at"` // UTC
	UpdatedAt        time.Time             `json:"updated_at"` // UTC
}

// NewState returns an empty wizard, on its first step.
func NewState(ownerID string) *State {
	now := time.Now().UTC()
	return &State{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		CurrentStepID:    FirstStep,
		CompletedStepIDs: NewStepSet(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanSubmit reports whether the wizard may be submitted: Personal Information must have been submitted.
func (st *State) CanSubmit() bool {
	return st.CompletedStepIDs.Has(StepPersonal)
}
