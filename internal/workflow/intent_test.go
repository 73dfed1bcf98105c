package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantKind  Kind
		wantOK    bool
	}{
		{"leave request phrase", "I want to submit a leave request", KindLeaveRequest, true},
		{"request leave phrase", "can I request leave next week", KindLeaveRequest, true},
		{"request days off", "I'd like to request three days off", KindLeaveRequest, true},
		{"vacation time", "do I have vacation time left", KindLeaveRequest, true},
		{"holiday request", "holiday request for August", KindLeaveRequest, true},
		{"request a holiday", "request a summer holiday", KindLeaveRequest, true},
		{"take leave", "I want to take some annual leave", KindLeaveRequest, true},
		{"uppercase input", "LEAVE REQUEST", KindLeaveRequest, true},

		{"expense report", "I need to file an expense report", KindExpenseReport, true},
		{"expense request", "expense request for travel", KindExpenseReport, true},
		{"submit my expense", "I want to submit my expense", KindExpenseReport, true},

		{"timesheet", "open my timesheet", KindTimesheetLog, true},
		{"log hours", "log hours for today", KindTimesheetLog, true},
		{"log my hours", "please log my hours", KindTimesheetLog, true},
		{"update my time", "update my time for yesterday", KindTimesheetLog, true},

		{"plain question", "what is the company policy on remote work", "", false},
		{"empty", "", "", false},
		{"leave as a verb", "I will leave the office at 5", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Detect(tt.utterance)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

// Rules are tried in declared order, so a sentence matching several rules
// resolves to the earliest one.
func TestDetectOrderBreaksTies(t *testing.T) {
	kind, ok := Detect("submit leave request before I file an expense report")
	assert.True(t, ok)
	assert.Equal(t, KindLeaveRequest, kind)

	kind, ok = Detect("expense report for the hours on my timesheet")
	assert.True(t, ok)
	assert.Equal(t, KindExpenseReport, kind)
}
