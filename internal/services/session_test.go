package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpcore/chatbot-backend/internal/workflow"
)

func TestMemorySessionStoreLazyCreation(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)

	state, err := store.Load("never-seen")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, workflow.StateNormal, state.State)
	assert.Nil(t, state.Context)
}

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)

	saved := &SessionState{
		State:   workflow.StateAwaitingLeaveReason,
		Context: &workflow.LeaveContext{EmployeeID: "E1", StartDate: "2025-01-01", EndDate: "2025-01-02"},
	}
	require.NoError(t, store.Save("s1", saved))

	loaded, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAwaitingLeaveReason, loaded.State)
	assert.Equal(t, saved.Context, loaded.Context)
}

func TestMemorySessionStoreIsolatesLoadedState(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	require.NoError(t, store.Save("s1", &SessionState{
		State:   workflow.StateAwaitingExpenseAmount,
		Context: &workflow.ExpenseContext{EmployeeID: "E1"},
	}))

	// Mutate a loaded copy without saving; the stored snapshot must not see it.
	loaded, err := store.Load("s1")
	require.NoError(t, err)
	loaded.Context.(*workflow.ExpenseContext).Amount = "999"

	reloaded, err := store.Load("s1")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Context.(*workflow.ExpenseContext).Amount)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore(10 * time.Millisecond)
	require.NoError(t, store.Save("s1", &SessionState{State: workflow.StateAwaitingLeaveID}))

	time.Sleep(25 * time.Millisecond)

	state, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateNormal, state.State)

	removed, err := store.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSessionManagerSkipsSaveOnError(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	require.NoError(t, store.Save("s1", &SessionState{State: workflow.StateAwaitingLeaveID}))
	manager := NewSessionManager(store)

	err := manager.Update("s1", func(state *SessionState) error {
		state.State = workflow.StateNormal
		return errors.New("step failed")
	})
	require.Error(t, err)

	state, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAwaitingLeaveID, state.State)
}

func TestSessionManagerSerializesPerSession(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	manager := NewSessionManager(store)

	// Concurrent turns on the same session must not lose increments. The
	// counter rides in the timesheet hours slot.
	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update("shared", func(state *SessionState) error {
				ctx, ok := state.Context.(*workflow.TimesheetContext)
				if !ok {
					ctx = &workflow.TimesheetContext{}
					state.Context = ctx
					state.State = workflow.StateAwaitingTimesheetID
				}
				ctx.Hours += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := store.Load("shared")
	require.NoError(t, err)
	assert.Len(t, state.Context.(*workflow.TimesheetContext).Hours, turns)
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisSessionStore(mr.Addr(), "", 0, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	state, err := store.Load("fresh")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateNormal, state.State)

	require.NoError(t, store.Save("s1", &SessionState{
		State:   workflow.StateAwaitingTimesheetDate,
		Context: &workflow.TimesheetContext{EmployeeID: "E9"},
	}))

	loaded, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAwaitingTimesheetDate, loaded.State)
	assert.Equal(t, "E9", loaded.Context.(*workflow.TimesheetContext).EmployeeID)

	// Keys expire on their own, so the idle sweep never runs for Redis.
	mr.FastForward(2 * time.Minute)
	expired, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateNormal, expired.State)
}
