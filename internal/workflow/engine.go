package workflow

import (
	"fmt"
	"strings"
	"time"
)

// RecordStore is the boundary the engine appends completed records to. It is
// the only blocking call the engine makes.
type RecordStore interface {
	AppendRecord(category string, fields map[string]string) error
}

// Outcome says whether the engine produced a response or is handing the
// utterance back to the caller.
type Outcome int

const (
	// Handled means the engine produced a response and the caller must not
	// run the document Q&A pipeline for this turn.
	Handled Outcome = iota
	// Delegate means no workflow activity; the caller routes the utterance
	// to the document Q&A engine.
	Delegate
)

// Result is the outcome of one dispatcher step. State and Context are the
// values the caller must persist for the session before the next turn; a nil
// Context means no workflow is in progress.
type Result struct {
	Outcome  Outcome
	Response string
	State    State
	Context  Context
}

// Engine is the slot-filling workflow dispatcher. It holds no per-session
// state; the caller loads state and context before each step and persists
// what the step returns.
type Engine struct {
	records RecordStore
	now     func() time.Time
}

// NewEngine creates a workflow engine. now may be nil, in which case the
// system clock is used.
func NewEngine(records RecordStore, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{records: records, now: now}
}

// Step advances a session's workflow by one conversational turn.
//
// A returned error means the finalization append failed; state and context
// were not advanced and the turn should be surfaced to the user as a
// retryable failure.
func (e *Engine) Step(utterance string, state State, ctx Context) (Result, error) {
	// Universal cancel: applies in every state, before anything else.
	if strings.ToLower(utterance) == "cancel" {
		return Result{
			Outcome:  Handled,
			Response: "Workflow cancelled. How can I help you?",
			State:    StateNormal,
		}, nil
	}

	if state == StateNormal {
		kind, ok := Detect(utterance)
		if !ok {
			return Result{Outcome: Delegate, State: StateNormal, Context: ctx}, nil
		}
		fresh := NewContext(kind)
		if leave, isLeave := fresh.(*LeaveContext); isLeave {
			// The triggering sentence may carry several fields at once.
			ParseLeaveDetails(utterance, leave, e.now())
		}
		return e.advance(StateNormal, utterance, fresh)
	}

	kind, known := kindForState(state)
	if !known || ctx == nil || ctx.Kind() != kind {
		// Unknown or corrupted state tag: recover by falling back to the
		// idle state and letting the caller route to document Q&A.
		return Result{Outcome: Delegate, State: StateNormal, Context: ctx}, nil
	}
	return e.advance(state, utterance, ctx)
}

// advance writes the utterance into the slot the current state is waiting on,
// then re-scans the chain's slots in declared order: the first still-empty
// slot decides the next state and prompt. The re-scan is what lets a chain
// skip slots the user already supplied while still prompting in order.
func (e *Engine) advance(state State, utterance string, ctx Context) (Result, error) {
	refs := ctx.slots()
	for i := range refs {
		if refs[i].state == state {
			*refs[i].value = utterance
			break
		}
	}

	for i := range refs {
		if *refs[i].value == "" {
			return Result{
				Outcome:  Handled,
				Response: refs[i].prompt(),
				State:    refs[i].state,
				Context:  ctx,
			}, nil
		}
	}

	// Every slot is filled: submit the record and reset to idle. On append
	// failure nothing is advanced, so the next turn re-enters the awaiting
	// state and finalization is retried.
	fields := ctx.Fields()
	fields["status"] = "submitted"
	fields["timestamp"] = e.now().Format(time.RFC3339)
	category := ctx.Kind().Category()
	if err := e.records.AppendRecord(category, fields); err != nil {
		return Result{}, fmt.Errorf("append %s record: %w", category, err)
	}
	return Result{
		Outcome:  Handled,
		Response: ctx.confirmation(),
		State:    StateNormal,
	}, nil
}
