// Package workflow defines the static conversation graph for the
// after-hours agent: named contexts, their ordered steps, the actions each
// step exposes, and which successor steps are permitted.
//
// The graph is plain data validated once at startup. The engine consults it
// before dispatching any action; it never mutates it.
package workflow

import (
	"fmt"
	"log/slog"

	"github.com/wireheat/afterhours/internal/models"
)

// Step is a single point in a context: a prompt, a completion criteria
// description for the hosting platform's NLU, the actions the caller may
// trigger, and the steps that may follow. An empty ValidSteps set marks a
// terminal step whose exit, if any, is an explicit context switch performed
// by an action.
type Step struct {
	Name     string
	Text     string
	Criteria string
	// Actions lists the action names dispatchable while this step is active.
	Actions []string
	// ValidSteps lists successor step names within the same context.
	ValidSteps []string
}

// Context is a named grouping of steps representing one phase of the call.
type Context struct {
	Name  string
	Steps []Step
}

// Definition is the immutable workflow graph.
type Definition struct {
	contexts map[string]Context
	// step lookup keyed by context name then step name
	steps map[string]map[string]Step
}

// New builds a Definition from the given contexts and validates it against
// the set of registered action names. A step referencing an unregistered
// action or an unknown successor is a programming error: construction fails
// and the process must not start.
func New(contexts []Context, registeredActions map[string]bool) (*Definition, error) {
	def := &Definition{
		contexts: make(map[string]Context, len(contexts)),
		steps:    make(map[string]map[string]Step, len(contexts)),
	}
	for _, c := range contexts {
		if c.Name == "" {
			return nil, fmt.Errorf("workflow context with empty name")
		}
		if _, dup := def.contexts[c.Name]; dup {
			return nil, fmt.Errorf("duplicate workflow context %q", c.Name)
		}
		if len(c.Steps) == 0 {
			return nil, fmt.Errorf("workflow context %q has no steps", c.Name)
		}
		def.contexts[c.Name] = c
		byName := make(map[string]Step, len(c.Steps))
		for _, s := range c.Steps {
			if s.Name == "" {
				return nil, fmt.Errorf("context %q: step with empty name", c.Name)
			}
			if _, dup := byName[s.Name]; dup {
				return nil, fmt.Errorf("context %q: duplicate step %q", c.Name, s.Name)
			}
			byName[s.Name] = s
		}
		def.steps[c.Name] = byName
	}

	// Reference checks run after all steps are indexed so successors can
	// point forward in the chain.
	for _, c := range contexts {
		for _, s := range c.Steps {
			for _, action := range s.Actions {
				if !registeredActions[action] {
					return nil, fmt.Errorf("context %q step %q references unregistered action %q", c.Name, s.Name, action)
				}
			}
			for _, next := range s.ValidSteps {
				if _, ok := def.steps[c.Name][next]; !ok {
					return nil, fmt.Errorf("context %q step %q references unknown successor %q", c.Name, s.Name, next)
				}
			}
		}
	}

	slog.Debug("workflow.New: definition validated", "contexts", len(contexts))
	return def, nil
}

// Contexts returns the names of all defined contexts.
func (d *Definition) Contexts() []string {
	names := make([]string, 0, len(d.contexts))
	for name := range d.contexts {
		names = append(names, name)
	}
	return names
}

// EntryStep returns the first step of the named context.
func (d *Definition) EntryStep(contextName string) (Step, error) {
	c, ok := d.contexts[contextName]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", models.ErrUnknownContext, contextName)
	}
	return c.Steps[0], nil
}

// Lookup returns the named step within the named context.
func (d *Definition) Lookup(contextName, stepName string) (Step, error) {
	byName, ok := d.steps[contextName]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", models.ErrUnknownContext, contextName)
	}
	s, ok := byName[stepName]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s/%s", models.ErrUnknownStep, contextName, stepName)
	}
	return s, nil
}

// AllowsAction reports whether the named action may be dispatched while the
// given context/step is active.
func (d *Definition) AllowsAction(contextName, stepName, action string) (bool, error) {
	s, err := d.Lookup(contextName, stepName)
	if err != nil {
		return false, err
	}
	for _, a := range s.Actions {
		if a == action {
			return true, nil
		}
	}
	return false, nil
}

// AllowsSuccessor reports whether the given context/step may advance to the
// requested successor step.
func (d *Definition) AllowsSuccessor(contextName, stepName, successor string) (bool, error) {
	s, err := d.Lookup(contextName, stepName)
	if err != nil {
		return false, err
	}
	for _, next := range s.ValidSteps {
		if next == successor {
			return true, nil
		}
	}
	return false, nil
}
