package workflow

import (
	"encoding/json"
	"fmt"
)

// Context accumulates the slot values collected so far for an in-progress
// workflow. Each workflow kind has its own concrete record type so slot
// access is by named field, not by string lookup. The set of implementations
// is closed: slots() is unexported on purpose.
type Context interface {
	// Kind reports which workflow chain this context belongs to.
	Kind() Kind
	// Fields returns the slot values collected so far as a flat map,
	// omitting slots that are still empty.
	Fields() map[string]string

	slots() []slotRef
	confirmation() string
}

// slotRef binds one required slot to the state that collects it, the prompt
// shown while it is the first missing slot, and the field that stores it.
type slotRef struct {
	name   string
	state  State
	value  *string
	prompt func() string
}

// NewContext returns an empty context for the given workflow kind, or nil for
// an unknown kind.
func NewContext(k Kind) Context {
	switch k {
	case KindLeaveRequest:
		return &LeaveContext{}
	case KindExpenseReport:
		return &ExpenseContext{}
	case KindTimesheetLog:
		return &TimesheetContext{}
	}
	return nil
}

// LeaveContext holds the slots of a leave request.
type LeaveContext struct {
	EmployeeID string `json:"employee_id,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (c *LeaveContext) Kind() Kind                { return KindLeaveRequest }
func (c *LeaveContext) Fields() map[string]string { return fieldsOf(c) }

func (c *LeaveContext) slots() []slotRef {
	return []slotRef{
		{"employee_id", StateAwaitingLeaveID, &c.EmployeeID, func() string {
			return "I have some details for your leave. To continue, **What is your Employee ID?**"
		}},
		{"start_date", StateAwaitingLeaveStartDate, &c.StartDate, func() string {
			return fmt.Sprintf("Thank you, %s. **What is the start date?** (e.g., YYYY-MM-DD)", c.EmployeeID)
		}},
		{"end_date", StateAwaitingLeaveEndDate, &c.EndDate, func() string {
			return "Got it. **What is the end date?** (e.g., YYYY-MM-DD)"
		}},
		{"reason", StateAwaitingLeaveReason, &c.Reason, func() string {
			return "Almost done. **What is the reason for this leave?**"
		}},
	}
}

func (c *LeaveContext) confirmation() string {
	return fmt.Sprintf(
		"Thank you! Your leave request for Employee ID **%s** from **%s** to **%s** has been submitted.",
		c.EmployeeID, c.StartDate, c.EndDate)
}

// ExpenseContext holds the slots of an expense report.
type ExpenseContext struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (c *ExpenseContext) Kind() Kind                { return KindExpenseReport }
func (c *ExpenseContext) Fields() map[string]string { return fieldsOf(c) }

func (c *ExpenseContext) slots() []slotRef {
	return []slotRef{
		{"employee_id", StateAwaitingExpenseID, &c.EmployeeID, func() string {
			return "I can help you file an expense report. **What is your Employee ID?**"
		}},
		{"amount", StateAwaitingExpenseAmount, &c.Amount, func() string {
			return "Got it. **What is the expense amount?**"
		}},
		{"reason", StateAwaitingExpenseReason, &c.Reason, func() string {
			return "Thanks. **What is the reason for this expense?**"
		}},
	}
}

func (c *ExpenseContext) confirmation() string {
	return fmt.Sprintf("Expense report for %s submitted.", c.Amount)
}

// TimesheetContext holds the slots of a timesheet entry.
type TimesheetContext struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Date       string `json:"date,omitempty"`
	Hours      string `json:"hours,omitempty"`
}

func (c *TimesheetContext) Kind() Kind                { return KindTimesheetLog }
func (c *TimesheetContext) Fields() map[string]string { return fieldsOf(c) }

func (c *TimesheetContext) slots() []slotRef {
	return []slotRef{
		{"employee_id", StateAwaitingTimesheetID, &c.EmployeeID, func() string {
			return "I can log your hours. **What is your Employee ID?**"
		}},
		{"date", StateAwaitingTimesheetDate, &c.Date, func() string {
			return "Thank you. **For what date are you logging hours?**"
		}},
		{"hours", StateAwaitingTimesheetHours, &c.Hours, func() string {
			return "Got it. **How many hours did you work?**"
		}},
	}
}

func (c *TimesheetContext) confirmation() string {
	return fmt.Sprintf("%s hours logged for %s.", c.Hours, c.Date)
}

func fieldsOf(c Context) map[string]string {
	fields := make(map[string]string)
	for _, ref := range c.slots() {
		if *ref.value != "" {
			fields[ref.name] = *ref.value
		}
	}
	return fields
}

// contextEnvelope tags a serialized context with its kind so the right
// concrete type can be restored.
type contextEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalContext serializes a context for session storage. A nil context
// (no workflow in progress) serializes to the empty string.
func MarshalContext(c Context) (string, error) {
	if c == nil {
		return "", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(contextEnvelope{Kind: c.Kind(), Data: data})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// UnmarshalContext restores a context serialized by MarshalContext.
func UnmarshalContext(raw string) (Context, error) {
	if raw == "" {
		return nil, nil
	}
	var env contextEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, err
	}
	c := NewContext(env.Kind)
	if c == nil {
		return nil, fmt.Errorf("unknown workflow kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, c); err != nil {
		return nil, err
	}
	return c, nil
}
