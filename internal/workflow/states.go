package workflow

// State identifies where a conversation is in a business-process workflow.
// "normal" is the shared idle state; every other value belongs to exactly one
// workflow chain and names the slot the engine is waiting on.
type State string

const (
	StateNormal State = "normal"

	// Leave request chain
	StateAwaitingLeaveID        State = "awaiting_leave_id"
	StateAwaitingLeaveStartDate State = "awaiting_leave_start_date"
	StateAwaitingLeaveEndDate   State = "awaiting_leave_end_date"
	StateAwaitingLeaveReason    State = "awaiting_leave_reason"

	// Expense report chain
	StateAwaitingExpenseID     State = "awaiting_expense_id"
	StateAwaitingExpenseAmount State = "awaiting_expense_amount"
	StateAwaitingExpenseReason State = "awaiting_expense_reason"

	// Timesheet log chain
	StateAwaitingTimesheetID    State = "awaiting_timesheet_id"
	StateAwaitingTimesheetDate  State = "awaiting_timesheet_date"
	StateAwaitingTimesheetHours State = "awaiting_timesheet_hours"
)

// Kind is one of the fixed business-process categories the engine can run.
type Kind string

const (
	KindLeaveRequest  Kind = "LEAVE_REQUEST"
	KindExpenseReport Kind = "EXPENSE_REPORT"
	KindTimesheetLog  Kind = "TIMESHEET_LOG"
)

// Category returns the record store category completed records of this kind
// are appended under.
func (k Kind) Category() string {
	switch k {
	case KindLeaveRequest:
		return "leave_requests"
	case KindExpenseReport:
		return "expenses"
	case KindTimesheetLog:
		return "timesheets"
	}
	return ""
}

// Categories lists every record store category the engine writes to.
func Categories() []string {
	return []string{
		KindLeaveRequest.Category(),
		KindExpenseReport.Category(),
		KindTimesheetLog.Category(),
	}
}

// stateKinds maps every awaiting state to the chain that owns it.
var stateKinds = map[State]Kind{}

func init() {
	for _, k := range []Kind{KindLeaveRequest, KindExpenseReport, KindTimesheetLog} {
		for _, ref := range NewContext(k).slots() {
			stateKinds[ref.state] = k
		}
	}
}

// kindForState resolves which workflow chain an awaiting state belongs to.
func kindForState(s State) (Kind, bool) {
	k, ok := stateKinds[s]
	return k, ok
}
