package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsOmitsEmptySlots(t *testing.T) {
	ctx := &LeaveContext{EmployeeID: "E5", Reason: "surgery"}
	assert.Equal(t, map[string]string{
		"employee_id": "E5",
		"reason":      "surgery",
	}, ctx.Fields())
}

func TestContextRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
	}{
		{"leave", &LeaveContext{EmployeeID: "E1", StartDate: "2025-01-01"}},
		{"expense", &ExpenseContext{EmployeeID: "E2", Amount: "42.50"}},
		{"timesheet", &TimesheetContext{EmployeeID: "E3", Date: "2025-02-02", Hours: "8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := MarshalContext(tt.ctx)
			require.NoError(t, err)

			got, err := UnmarshalContext(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.ctx, got)
		})
	}
}

func TestNilContextSerializesToEmptyString(t *testing.T) {
	raw, err := MarshalContext(nil)
	require.NoError(t, err)
	assert.Empty(t, raw)

	got, err := UnmarshalContext("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalContextRejectsUnknownKind(t *testing.T) {
	_, err := UnmarshalContext(`{"kind":"PAYROLL_RUN","data":{}}`)
	assert.ErrorContains(t, err, "unknown workflow kind")
}

func TestNewContextUnknownKind(t *testing.T) {
	assert.Nil(t, NewContext(Kind("NOPE")))
}

func TestEveryAwaitingStateMapsToItsKind(t *testing.T) {
	kind, ok := kindForState(StateAwaitingLeaveEndDate)
	assert.True(t, ok)
	assert.Equal(t, KindLeaveRequest, kind)

	kind, ok = kindForState(StateAwaitingExpenseAmount)
	assert.True(t, ok)
	assert.Equal(t, KindExpenseReport, kind)

	kind, ok = kindForState(StateAwaitingTimesheetHours)
	assert.True(t, ok)
	assert.Equal(t, KindTimesheetLog, kind)

	_, ok = kindForState(StateNormal)
	assert.False(t, ok)
}
