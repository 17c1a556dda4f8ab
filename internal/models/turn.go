// Package models defines the per-turn invocation contract between the
// hosting voice platform and the dialogue engine.
package models

// Well-known keys inside the session bag. The platform re-delivers the bag
// on every turn; the engine only ever reads and rewrites these keys.
const (
	// KeyPendingRequest holds the in-progress draft while collection is active.
	KeyPendingRequest = "pending_request"
	// KeyLastRequestID holds the ticket id of the most recent successful commit.
	KeyLastRequestID = "last_request_id"
	// KeyCurrentContext tracks which workflow context the call is in.
	KeyCurrentContext = "current_context"
	// KeyCurrentStep tracks which step of the current context is active.
	KeyCurrentStep = "current_step"
)

// GlobalData is the externally-owned per-call state bag. The engine treats
// each delivered bag as an immutable snapshot and returns a new one.
type GlobalData map[string]interface{}

// Clone returns a shallow copy of the bag so a turn can be discarded without
// corrupting the stored snapshot.
func (g GlobalData) Clone() GlobalData {
	out := make(GlobalData, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// String returns the string value stored under key, or empty when absent or
// not a string.
func (g GlobalData) String(key string) string {
	if v, ok := g[key].(string); ok {
		return v
	}
	return ""
}

// TurnRequest is a single caller-turn invocation: the platform has mapped
// the caller's utterance to one named action with arguments.
type TurnRequest struct {
	SessionID  string                 `json:"session_id"`
	Action     string                 `json:"action"`
	Arguments  map[string]interface{} `json:"arguments,omitempty"`
	AdvanceTo  string                 `json:"advance_to,omitempty"` // platform-requested successor step
	GlobalData GlobalData             `json:"global_data,omitempty"`
}

// TurnResult is what the platform speaks and carries forward: the spoken
// response, the rewritten bag, an optional context switch, and an optional
// side-channel event.
type TurnResult struct {
	Response      string     `json:"response"`
	GlobalData    GlobalData `json:"global_data"`
	ContextSwitch string     `json:"context_switch,omitempty"`
	Event         *UserEvent `json:"event,omitempty"`
}
