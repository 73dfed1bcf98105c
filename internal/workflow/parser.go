package workflow

import (
	"regexp"
	"strings"
	"time"
)

// Slot extraction rules for leave requests. Matching is case-insensitive but
// runs against the original utterance so captured values keep their casing.
var (
	employeeIDPattern = regexp.MustCompile(`(?i)employee id ([\w-]+)`)
	startDatePattern  = regexp.MustCompile(`(?i)from (\d{4}-\d{2}-\d{2})`)
	endDatePattern    = regexp.MustCompile(`(?i)to (\d{4}-\d{2}-\d{2})`)
	reasonPattern     = regexp.MustCompile(`(?i)reason:? (.*)`)
	bareReasonPattern = regexp.MustCompile(`(?i)reason ([\w\s]+)`)
)

// ParseLeaveDetails scans an utterance for leave fields the user may have
// front-loaded in a single sentence and fills any slot that is still empty.
// Slots that already hold a value are never overwritten. now is the clock
// used to resolve relative dates.
func ParseLeaveDetails(utterance string, ctx *LeaveContext, now time.Time) {
	if ctx.EmployeeID == "" {
		if m := employeeIDPattern.FindStringSubmatch(utterance); m != nil {
			ctx.EmployeeID = m[1]
		}
	}
	if ctx.StartDate == "" {
		if m := startDatePattern.FindStringSubmatch(utterance); m != nil {
			ctx.StartDate = m[1]
		}
	}
	if ctx.EndDate == "" {
		if m := endDatePattern.FindStringSubmatch(utterance); m != nil {
			ctx.EndDate = m[1]
		}
	}
	if ctx.Reason == "" {
		if m := reasonPattern.FindStringSubmatch(utterance); m != nil {
			ctx.Reason = strings.TrimSpace(m[1])
		} else if strings.Contains(strings.ToLower(utterance), "reason") {
			// Bare "reason christmas" with no colon: take the word sequence
			// that follows the keyword.
			if m := bareReasonPattern.FindStringSubmatch(utterance); m != nil {
				ctx.Reason = strings.TrimSpace(m[1])
			}
		}
	}

	// Relative date: "tomorrow" resolves against the injected clock. When
	// only a start date is implied, assume a single-day leave.
	if ctx.StartDate == "" && strings.Contains(strings.ToLower(utterance), "tomorrow") {
		tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
		ctx.StartDate = tomorrow
		if ctx.EndDate == "" {
			ctx.EndDate = tomorrow
		}
	}
}
