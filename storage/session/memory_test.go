package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/core/member"
	"github.com/parishdesk/parishdesk/core/wizard"
)

func mockNow(t *testing.T, now *time.Time) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return *now }
	t.Cleanup(func() { nowFunc = orig })
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mockNow(t, &now)
	store := NewMemoryStore(time.Hour, time.Minute)

	st := wizard.NewState("owner")
	st.Personal = member.PersonalInfo{FirstName: "Ama", LastName: "Owusu", DateOfBirth: "1990-01-01"}
	st.CompletedStepIDs = wizard.NewStepSet(wizard.StepPersonal)
	require.NoError(t, store.Save(ctx, st))

	got, err := store.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ama", got.Personal.FirstName)
	assert.True(t, got.CompletedStepIDs.Has(wizard.StepPersonal))

	got.Personal.FirstName = "changed"
	again, err := store.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ama", again.Personal.FirstName, "stored wizards are not shared")

	_, err = store.Get(ctx, "unknown")
	assert.Equal(t, wizard.ErrNotFound, err)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, st.ID)
	assert.Equal(t, wizard.ErrNotFound, err, "expired")
	assert.Equal(t, 1, store.Purge())

	require.NoError(t, store.Save(ctx, st))
	require.NoError(t, store.Delete(ctx, st.ID))
	_, err = store.Get(ctx, st.ID)
	assert.Equal(t, wizard.ErrNotFound, err)
}

func TestMemoryStore_Acquire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mockNow(t, &now)
	store := NewMemoryStore(time.Hour, time.Minute)

	release, err := store.Acquire(ctx, "w1")
	require.NoError(t, err)

	_, err = store.Acquire(ctx, "w1")
	assert.Equal(t, wizard.ErrSubmitInFlight, err)

	other, err := store.Acquire(ctx, "w2")
	require.NoError(t, err, "locks are per wizard")
	other()

	release()
	release2, err := store.Acquire(ctx, "w1")
	require.NoError(t, err, "released")

	now = now.Add(time.Minute)
	release3, err := store.Acquire(ctx, "w1")
	require.NoError(t, err, "stale locks expire")

	release2() // a stale release must not free the new holder
	_, err = store.Acquire(ctx, "w1")
	assert.Equal(t, wizard.ErrSubmitInFlight, err)
	release3()
}
