// Package flow implements the guided dialogue engine: the registry of named
// actions the hosting platform can invoke, and the per-turn orchestration
// that applies them to the caller's draft.
package flow

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/wireheat/afterhours/internal/models"
)

// Result is the outcome of one action execution: the spoken response, the
// updated draft (always a new value, never an in-place mutation), an
// optional explicit context switch, and an optional side-channel event.
type Result struct {
	Response      string
	Draft         models.Draft
	ContextSwitch string
	Event         *models.UserEvent
}

// Action defines a named, invokable unit of dialogue logic. Each action is
// dispatched at most once per caller turn and must complete without blocking
// on external I/O.
type Action interface {
	// Name returns the action's registered name.
	Name() string

	// ToolDefinition returns the OpenAI function definition the hosting
	// platform's NLU uses to map caller utterances onto this action.
	ToolDefinition() openai.ChatCompletionToolParam

	// Execute applies the action to the current draft. The input draft is
	// never mutated; the result carries the replacement value.
	Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error)
}

// Registry holds the registered actions, keyed by name.
type Registry struct {
	actions map[string]Action
}

// NewRegistry creates a registry over the given actions.
func NewRegistry(actions ...Action) *Registry {
	r := &Registry{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		r.actions[a.Name()] = a
	}
	return r
}

// Get retrieves the action registered under name.
func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the set of registered action names, in the shape the
// workflow definition's construction-time validation expects.
func (r *Registry) Names() map[string]bool {
	names := make(map[string]bool, len(r.actions))
	for name := range r.actions {
		names[name] = true
	}
	return names
}

// ToolDefinitions returns the OpenAI tool definitions for every registered
// action, for publication to the hosting platform.
func (r *Registry) ToolDefinitions() []openai.ChatCompletionToolParam {
	defs := make([]openai.ChatCompletionToolParam, 0, len(r.actions))
	for _, a := range r.actions {
		defs = append(defs, a.ToolDefinition())
	}
	return defs
}

// stringArg extracts a string argument, tolerating absence and wrong types.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// boolArg extracts a boolean argument, tolerating absence and wrong types.
func boolArg(args map[string]interface{}, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}
