package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/session"
	"github.com/wireheat/afterhours/internal/workflow"
)

// recoveryResponse is spoken whenever a turn cannot be honored: unknown
// action, disallowed action for the current step, or an illegal step
// advance. A live caller always gets a way to continue.
const recoveryResponse = "I'm sorry, I didn't quite catch that. Could you say that again?"

// Engine orchestrates one caller turn at a time: it locates the call's
// position in the workflow graph, validates the requested action and step
// advance, dispatches the action, and rewrites the session bag.
type Engine struct {
	def      *workflow.Definition
	registry *Registry
	sessions session.Store
}

// NewEngine creates an engine over a validated workflow definition.
func NewEngine(def *workflow.Definition, registry *Registry, sessions session.Store) *Engine {
	return &Engine{def: def, registry: registry, sessions: sessions}
}

// HandleTurn processes a single invocation from the hosting platform. It
// returns an error only for infrastructure failures; every dialogue-level
// problem resolves to a spoken response so the call keeps going.
func (e *Engine) HandleTurn(ctx context.Context, req models.TurnRequest) (models.TurnResult, error) {
	bag, err := e.loadBag(ctx, req)
	if err != nil {
		return models.TurnResult{}, fmt.Errorf("failed to load session %s: %w", req.SessionID, err)
	}

	contextName, step := e.position(bag)

	// Both gates run before any action executes so a rejected turn leaves
	// the bag exactly as it arrived.
	if req.AdvanceTo != "" {
		ok, lookupErr := e.def.AllowsSuccessor(contextName, step.Name, req.AdvanceTo)
		if lookupErr != nil || !ok {
			slog.Warn("Engine.HandleTurn: illegal step advance",
				"sessionID", req.SessionID, "context", contextName, "step", step.Name, "advance_to", req.AdvanceTo)
			return e.rejectTurn(ctx, req.SessionID, bag, contextName, step.Name)
		}
	}

	if req.Action == "" {
		// Advance-only turn: the platform judged the step's completion
		// criteria met without any action to dispatch.
		return e.advanceOnly(ctx, req, bag, contextName, step)
	}

	action, ok := e.registry.Get(req.Action)
	if !ok {
		slog.Warn("Engine.HandleTurn: unknown action",
			"sessionID", req.SessionID, "action", req.Action)
		return e.rejectTurn(ctx, req.SessionID, bag, contextName, step.Name)
	}
	allowed, lookupErr := e.def.AllowsAction(contextName, step.Name, req.Action)
	if lookupErr != nil || !allowed {
		slog.Warn("Engine.HandleTurn: action not allowed at current step",
			"sessionID", req.SessionID, "context", contextName, "step", step.Name, "action", req.Action)
		return e.rejectTurn(ctx, req.SessionID, bag, contextName, step.Name)
	}

	draft := session.DraftFrom(bag)
	result, err := action.Execute(ctx, req.Arguments, draft)
	if err != nil {
		slog.Error("Engine.HandleTurn: action failed",
			"sessionID", req.SessionID, "action", req.Action, "error", err)
		return e.finishTurn(ctx, req.SessionID, bag, contextName, step.Name,
			Result{Response: "I'm sorry, something went wrong on my end. Let's try that again.", Draft: draft})
	}

	nextContext, nextStep := contextName, step.Name
	if result.ContextSwitch != "" {
		entry, entryErr := e.def.EntryStep(result.ContextSwitch)
		if entryErr != nil {
			return models.TurnResult{}, fmt.Errorf("action %s switched to unknown context: %w", req.Action, entryErr)
		}
		nextContext, nextStep = result.ContextSwitch, entry.Name
	} else if req.AdvanceTo != "" {
		nextStep = req.AdvanceTo
	}

	slog.Info("Engine.HandleTurn: action dispatched",
		"sessionID", req.SessionID, "action", req.Action,
		"context", nextContext, "step", nextStep)
	return e.finishTurn(ctx, req.SessionID, bag, nextContext, nextStep, result)
}

// ToolDefinitions exposes the registry's tool definitions for publication
// to the hosting platform.
func (e *Engine) ToolDefinitions() []openai.ChatCompletionToolParam {
	return e.registry.ToolDefinitions()
}

// loadBag resolves the turn's session bag: the platform-delivered bag wins,
// the server-side backup covers turns that arrive without one.
func (e *Engine) loadBag(ctx context.Context, req models.TurnRequest) (models.GlobalData, error) {
	if req.GlobalData != nil {
		return req.GlobalData.Clone(), nil
	}
	return e.sessions.Get(ctx, req.SessionID)
}

// position resolves the call's current context and step from the bag. A
// fresh or corrupted position resets to the greeting entry point.
func (e *Engine) position(bag models.GlobalData) (string, workflow.Step) {
	contextName := bag.String(models.KeyCurrentContext)
	if contextName == "" {
		contextName = workflow.ContextGreeting
	}
	stepName := bag.String(models.KeyCurrentStep)

	if stepName != "" {
		if step, err := e.def.Lookup(contextName, stepName); err == nil {
			return contextName, step
		}
		slog.Warn("Engine.position: bag points at unknown position, resetting",
			"context", contextName, "step", stepName)
		contextName = workflow.ContextGreeting
	}

	entry, err := e.def.EntryStep(contextName)
	if err != nil {
		// Unknown context in the bag; the greeting entry always exists.
		contextName = workflow.ContextGreeting
		entry, _ = e.def.EntryStep(contextName)
	}
	return contextName, entry
}

// rejectTurn answers a turn the graph disallows: the position and draft are
// left where they were and the caller hears the recovery prompt.
func (e *Engine) rejectTurn(ctx context.Context, sessionID string, bag models.GlobalData, contextName, stepName string) (models.TurnResult, error) {
	return e.finishTurn(ctx, sessionID, bag, contextName, stepName,
		Result{Response: recoveryResponse, Draft: session.DraftFrom(bag)})
}

// advanceOnly handles a turn with no action: move to the requested step and
// speak its prompt, or re-speak the current step's prompt when the platform
// asked for nothing.
func (e *Engine) advanceOnly(ctx context.Context, req models.TurnRequest, bag models.GlobalData, contextName string, step workflow.Step) (models.TurnResult, error) {
	nextStep := step
	if req.AdvanceTo != "" {
		// Successor validity was checked by the caller.
		s, err := e.def.Lookup(contextName, req.AdvanceTo)
		if err != nil {
			return models.TurnResult{}, err
		}
		nextStep = s
	}
	result := Result{Response: nextStep.Text, Draft: session.DraftFrom(bag)}
	return e.finishTurn(ctx, req.SessionID, bag, contextName, nextStep.Name, result)
}

// finishTurn applies an action result to the bag, persists the backup copy,
// and shapes the platform-facing turn result.
func (e *Engine) finishTurn(ctx context.Context, sessionID string, bag models.GlobalData, contextName, stepName string, result Result) (models.TurnResult, error) {
	out := session.WithDraft(bag, result.Draft)
	out[models.KeyCurrentContext] = contextName
	out[models.KeyCurrentStep] = stepName
	if result.Event != nil && result.Event.Request != nil {
		out[models.KeyLastRequestID] = result.Event.Request.ID
	}

	if err := e.sessions.Put(ctx, sessionID, out); err != nil {
		// The platform carries the authoritative bag; losing the backup
		// copy is not worth failing the caller's turn.
		slog.Error("Engine.finishTurn: failed to persist session backup",
			"sessionID", sessionID, "error", err)
	}

	return models.TurnResult{
		Response:      result.Response,
		GlobalData:    out,
		ContextSwitch: result.ContextSwitch,
		Event:         result.Event,
	}, nil
}
