package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var parserNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func TestParseLeaveDetailsExtractsAllFields(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("Employee ID E123 from 2025-04-01 to 2025-04-04, reason: dentist appointment", ctx, parserNow)

	assert.Equal(t, "E123", ctx.EmployeeID)
	assert.Equal(t, "2025-04-01", ctx.StartDate)
	assert.Equal(t, "2025-04-04", ctx.EndDate)
	assert.Equal(t, "dentist appointment", ctx.Reason)
}

func TestParseLeaveDetailsPreservesCasing(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("my EMPLOYEE ID Ab-42", ctx, parserNow)
	assert.Equal(t, "Ab-42", ctx.EmployeeID)
}

// The pattern captures the token right after "employee id", even when that
// token is a filler word.
func TestParseLeaveDetailsEmployeeIDTakesNextToken(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("my employee id is E123", ctx, parserNow)
	assert.Equal(t, "is", ctx.EmployeeID)
}

func TestParseLeaveDetailsNeverOverwrites(t *testing.T) {
	ctx := &LeaveContext{
		EmployeeID: "E1",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-02",
		Reason:     "already set",
	}
	ParseLeaveDetails("employee id E999 from 2025-09-09 to 2025-09-10 reason: new", ctx, parserNow)

	assert.Equal(t, "E1", ctx.EmployeeID)
	assert.Equal(t, "2025-01-01", ctx.StartDate)
	assert.Equal(t, "2025-01-02", ctx.EndDate)
	assert.Equal(t, "already set", ctx.Reason)
}

func TestParseLeaveDetailsBareReason(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("leave reason christmas with family", ctx, parserNow)
	assert.Equal(t, "christmas with family", ctx.Reason)
}

func TestParseLeaveDetailsTomorrow(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("I need leave tomorrow", ctx, parserNow)
	assert.Equal(t, "2025-03-11", ctx.StartDate)
	assert.Equal(t, "2025-03-11", ctx.EndDate)
}

func TestParseLeaveDetailsTomorrowKeepsExplicitEndDate(t *testing.T) {
	ctx := &LeaveContext{EndDate: "2025-03-14"}
	ParseLeaveDetails("starting tomorrow", ctx, parserNow)
	assert.Equal(t, "2025-03-11", ctx.StartDate)
	assert.Equal(t, "2025-03-14", ctx.EndDate)
}

func TestParseLeaveDetailsExplicitStartWinsOverTomorrow(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("from 2025-05-01 until tomorrow", ctx, parserNow)
	assert.Equal(t, "2025-05-01", ctx.StartDate)
	assert.Empty(t, ctx.EndDate)
}

func TestParseLeaveDetailsNoMatches(t *testing.T) {
	ctx := &LeaveContext{}
	ParseLeaveDetails("I would like some time away", ctx, parserNow)
	assert.Equal(t, &LeaveContext{}, ctx)
}
