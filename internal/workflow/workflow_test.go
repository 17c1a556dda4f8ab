package workflow

import (
	"testing"

	"github.com/wireheat/afterhours/internal/models"
)

func allActions() map[string]bool {
	return map[string]bool{
		models.ActionStartServiceRequest: true,
		models.ActionSetIssueType:        true,
		models.ActionSetCustomerName:     true,
		models.ActionSetServiceAddress:   true,
		models.ActionSetUnitInfo:         true,
		models.ActionSetOwnership:        true,
		models.ActionSetCallbackNumbers:  true,
		models.ActionSetIssueDescription: true,
		models.ActionConfirmRequest:      true,
		models.ActionCancelFlow:          true,
	}
}

func TestAfterHoursDefinitionValid(t *testing.T) {
	def, err := New(AfterHoursContexts(), allActions())
	if err != nil {
		t.Fatalf("after-hours graph should validate: %v", err)
	}

	entry, err := def.EntryStep(ContextGreeting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name != StepWelcome {
		t.Errorf("greeting entry step should be %q, got %q", StepWelcome, entry.Name)
	}

	ok, err := def.AllowsAction(ContextServiceRequest, StepGetOwnership, models.ActionSetOwnership)
	if err != nil || !ok {
		t.Errorf("set_ownership should be allowed in get_ownership (ok=%v err=%v)", ok, err)
	}
	ok, err = def.AllowsAction(ContextServiceRequest, StepGetOwnership, models.ActionConfirmRequest)
	if err != nil || ok {
		t.Errorf("confirm_request must not be allowed mid-collection (ok=%v err=%v)", ok, err)
	}
}

func TestCancelAllowedInEveryCollectionStep(t *testing.T) {
	def, err := New(AfterHoursContexts(), allActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps := []string{
		StepGetIssueType, StepGetCustomerName, StepGetServiceAddress,
		StepGetUnitInfo, StepGetOwnership, StepGetCallbackNumbers, StepGetIssueDescription,
	}
	for _, step := range steps {
		ok, err := def.AllowsAction(ContextServiceRequest, step, models.ActionCancelFlow)
		if err != nil || !ok {
			t.Errorf("cancel_flow should be allowed in %s (ok=%v err=%v)", step, ok, err)
		}
	}
}

func TestLinearSuccessorChain(t *testing.T) {
	def, err := New(AfterHoursContexts(), allActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chain := []string{
		StepGetIssueType, StepGetCustomerName, StepGetServiceAddress,
		StepGetUnitInfo, StepGetOwnership, StepGetCallbackNumbers, StepGetIssueDescription,
	}
	for i := 0; i < len(chain)-1; i++ {
		ok, err := def.AllowsSuccessor(ContextServiceRequest, chain[i], chain[i+1])
		if err != nil || !ok {
			t.Errorf("%s should allow successor %s (ok=%v err=%v)", chain[i], chain[i+1], ok, err)
		}
	}

	// Skipping ahead is not permitted.
	ok, err := def.AllowsSuccessor(ContextServiceRequest, StepGetIssueType, StepGetOwnership)
	if err != nil || ok {
		t.Errorf("skipping from get_issue_type to get_ownership must be rejected (ok=%v err=%v)", ok, err)
	}

	// The final collection step is terminal within its context.
	last, err := def.Lookup(ContextServiceRequest, StepGetIssueDescription)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(last.ValidSteps) != 0 {
		t.Errorf("get_issue_description should declare no successors, got %v", last.ValidSteps)
	}
}

func TestConstructionFailures(t *testing.T) {
	// Unregistered action is fatal at construction time.
	contexts := []Context{{
		Name:  "greeting",
		Steps: []Step{{Name: "welcome", Actions: []string{"no_such_action"}}},
	}}
	if _, err := New(contexts, map[string]bool{}); err == nil {
		t.Error("expected error for unregistered action")
	}

	// Unknown successor is fatal at construction time.
	contexts = []Context{{
		Name:  "greeting",
		Steps: []Step{{Name: "welcome", ValidSteps: []string{"no_such_step"}}},
	}}
	if _, err := New(contexts, map[string]bool{}); err == nil {
		t.Error("expected error for unknown successor")
	}

	// Duplicate step names are rejected.
	contexts = []Context{{
		Name:  "greeting",
		Steps: []Step{{Name: "welcome"}, {Name: "welcome"}},
	}}
	if _, err := New(contexts, map[string]bool{}); err == nil {
		t.Error("expected error for duplicate step")
	}
}

func TestLookupUnknownContextAndStep(t *testing.T) {
	def, err := New(AfterHoursContexts(), allActions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := def.Lookup("no_such_context", StepWelcome); err == nil {
		t.Error("expected error for unknown context")
	}
	if _, err := def.Lookup(ContextGreeting, "no_such_step"); err == nil {
		t.Error("expected error for unknown step")
	}
}
