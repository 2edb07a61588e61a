package workflow

import "time"

// DecisionKind enumerates the closed set of outcomes a Step may return
// (spec §3/§4.1). Decision is a tagged sum type rather than an interface
// hierarchy so the engine dispatches on a single field instead of type
// assertions or string-matched control flow (spec §9 redesign flag).
type DecisionKind string

const (
	DecisionContinue         DecisionKind = "continue"
	DecisionRetrieveMemories DecisionKind = "retrieve_memories"
	DecisionExecuteTools     DecisionKind = "execute_tools"
	DecisionRespond          DecisionKind = "respond"
	DecisionSuspend          DecisionKind = "suspend"
	DecisionTerminate        DecisionKind = "terminate"
)

// Decision is returned by every Step. Only the field matching Kind is
// meaningful; constructors below (Continue(), RetrieveMemories(q), ...)
// should be used instead of building the struct literal directly.
type Decision struct {
	Kind DecisionKind

	// Query is set for DecisionRetrieveMemories.
	Query string
	// Tools is set for DecisionExecuteTools.
	Tools []ToolInvocation
	// Text is set for DecisionRespond.
	Text string
	// Reason is set for DecisionSuspend.
	Reason SuspendReason
}

// ToolInvocation names a single tool call requested by a step's
// ExecuteTools decision.
type ToolInvocation struct {
	CallID string
	Name   string
	Args   map[string]any
}

// Continue advances to the next step unchanged.
func Continue() Decision { return Decision{Kind: DecisionContinue} }

// RetrieveMemories asks the engine to consult the memory collaborator with
// query and append results to the context before advancing.
func RetrieveMemories(query string) Decision {
	return Decision{Kind: DecisionRetrieveMemories, Query: query}
}

// ExecuteTools asks the engine to invoke each named tool and append
// results to tool_results before advancing.
func ExecuteTools(tools ...ToolInvocation) Decision {
	return Decision{Kind: DecisionExecuteTools, Tools: tools}
}

// Respond terminates the run successfully with text as the response.
func Respond(text string) Decision {
	return Decision{Kind: DecisionRespond, Text: text}
}

// Suspend pauses the run; the engine snapshots the context and returns to
// the caller with completed=false.
func Suspend(reason SuspendReason) Decision {
	return Decision{Kind: DecisionSuspend, Reason: reason}
}

// Terminate ends the run without a response; the engine returns the last
// known state.
func Terminate() Decision { return Decision{Kind: DecisionTerminate} }

// SuspendReasonKind enumerates the closed set of reasons a step may
// suspend for (spec §3).
type SuspendReasonKind string

const (
	SuspendUserPause           SuspendReasonKind = "user_pause"
	SuspendWaitingForEvent     SuspendReasonKind = "waiting_for_event"
	SuspendSleep               SuspendReasonKind = "sleep"
	SuspendSleepUntil          SuspendReasonKind = "sleep_until"
	SuspendExternalDependency  SuspendReasonKind = "external_dependency"
	SuspendScheduled           SuspendReasonKind = "scheduled"
)

// SuspendReason describes why a step suspended (spec §3). Only the fields
// relevant to Kind are populated.
type SuspendReason struct {
	Kind SuspendReasonKind

	// EventID and TimeoutMS apply to SuspendWaitingForEvent.
	EventID   string
	TimeoutMS int64

	// DurationMS applies to SuspendSleep.
	DurationMS int64

	// At applies to SuspendSleepUntil.
	At time.Time

	// DependencyType and Details apply to SuspendExternalDependency.
	DependencyType string
	Details        string
}

// UserPause builds a SuspendReason for an explicit user-requested pause.
func UserPause() SuspendReason { return SuspendReason{Kind: SuspendUserPause} }

// WaitingForEvent builds a SuspendReason that resumes when eventID is
// delivered on the event bus, or after timeoutMS elapses when non-zero.
func WaitingForEvent(eventID string, timeoutMS int64) SuspendReason {
	return SuspendReason{Kind: SuspendWaitingForEvent, EventID: eventID, TimeoutMS: timeoutMS}
}

// Sleep builds a SuspendReason that resumes after durationMS elapses.
func Sleep(durationMS int64) SuspendReason {
	return SuspendReason{Kind: SuspendSleep, DurationMS: durationMS}
}

// SleepUntil builds a SuspendReason that resumes at the given timestamp.
func SleepUntil(at time.Time) SuspendReason {
	return SuspendReason{Kind: SuspendSleepUntil, At: at}
}

// ExternalDependency builds a SuspendReason describing a wait on an
// external system (e.g., a human approval queue, a third-party webhook).
func ExternalDependency(depType, details string) SuspendReason {
	return SuspendReason{Kind: SuspendExternalDependency, DependencyType: depType, Details: details}
}

// Scheduled builds the SuspendReason used internally for auto-checkpoint
// snapshots; it never pauses a run (see Engine's auto-checkpointing).
func Scheduled() SuspendReason { return SuspendReason{Kind: SuspendScheduled} }

// ResumeCondition is the closed set of conditions recorded on a snapshot
// describing what must happen for the workflow to resume. It mirrors
// SuspendReason but is serialized onto the snapshot independently so a
// storage backend never needs to interpret SuspendReason directly
// (supplemented from the Rust original's ResumeCondition enum; see
// SPEC_FULL.md).
type ResumeCondition struct {
	Kind SuspendReasonKind
	// EventID, At, and DurationMS mirror the corresponding SuspendReason
	// fields, present only for the Kind they apply to.
	EventID    string
	At         time.Time
	DurationMS int64
}

// DeriveResumeCondition builds the ResumeCondition stored on a snapshot
// from the SuspendReason that triggered suspension.
func DeriveResumeCondition(r SuspendReason) ResumeCondition {
	return ResumeCondition{
		Kind:       r.Kind,
		EventID:    r.EventID,
		At:         r.At,
		DurationMS: r.DurationMS,
	}
}
