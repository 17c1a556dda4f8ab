package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/notify"
	"github.com/wireheat/afterhours/internal/session"
	"github.com/wireheat/afterhours/internal/store"
	"github.com/wireheat/afterhours/internal/workflow"
)

type engineFixture struct {
	engine *Engine
	repo   *store.InMemoryStore
	rec    *notify.Recorder
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	repo := store.NewInMemoryStore()
	rec := notify.NewRecorder()
	actions := append(CollectionActions(), NewConfirmAction(repo, rec))
	reg := NewRegistry(actions...)
	def, err := workflow.New(workflow.AfterHoursContexts(), reg.Names())
	if err != nil {
		t.Fatalf("workflow.New failed: %v", err)
	}
	return &engineFixture{
		engine: NewEngine(def, reg, session.NewInMemoryStore()),
		repo:   repo,
		rec:    rec,
	}
}

func (f *engineFixture) turn(t *testing.T, req models.TurnRequest) models.TurnResult {
	t.Helper()
	res, err := f.engine.HandleTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleTurn(%s) failed: %v", req.Action, err)
	}
	return res
}

func assertPosition(t *testing.T, bag models.GlobalData, wantContext, wantStep string) {
	t.Helper()
	if got := bag.String(models.KeyCurrentContext); got != wantContext {
		t.Errorf("current_context = %q, want %q", got, wantContext)
	}
	if got := bag.String(models.KeyCurrentStep); got != wantStep {
		t.Errorf("current_step = %q, want %q", got, wantStep)
	}
}

func TestHandleTurnFullEmergencyCall(t *testing.T) {
	f := newEngineFixture(t)
	const sid = "call-001"

	// Fresh call: no bag, no action. The engine sits at the greeting entry.
	res := f.turn(t, models.TurnRequest{SessionID: sid})
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepWelcome)

	// Caller wants service; the platform advances to the ready step.
	res = f.turn(t, models.TurnRequest{SessionID: sid, AdvanceTo: workflow.StepReady, GlobalData: res.GlobalData})
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepReady)

	res = f.turn(t, models.TurnRequest{SessionID: sid, Action: models.ActionStartServiceRequest, GlobalData: res.GlobalData})
	if res.ContextSwitch != workflow.ContextServiceRequest {
		t.Fatalf("expected context switch, got %q", res.ContextSwitch)
	}
	assertPosition(t, res.GlobalData, workflow.ContextServiceRequest, workflow.StepGetIssueType)

	steps := []struct {
		action    string
		args      map[string]interface{}
		advanceTo string
	}{
		{models.ActionSetIssueType, map[string]interface{}{"issue_type": "heating_repair", "is_emergency": true}, workflow.StepGetCustomerName},
		{models.ActionSetCustomerName, map[string]interface{}{"name": "Maria Lopez"}, workflow.StepGetServiceAddress},
		{models.ActionSetServiceAddress, map[string]interface{}{"address": "12 Frost Ln, Duluth MN 55802"}, workflow.StepGetUnitInfo},
		{models.ActionSetUnitInfo, map[string]interface{}{"unit_info": "Carrier furnace, basement"}, workflow.StepGetOwnership},
		{models.ActionSetOwnership, map[string]interface{}{"ownership": "own"}, workflow.StepGetCallbackNumbers},
		{models.ActionSetCallbackNumbers, map[string]interface{}{"primary": "555-0134"}, workflow.StepGetIssueDescription},
	}
	for _, s := range steps {
		res = f.turn(t, models.TurnRequest{
			SessionID: sid, Action: s.action, Arguments: s.args,
			AdvanceTo: s.advanceTo, GlobalData: res.GlobalData,
		})
		assertPosition(t, res.GlobalData, workflow.ContextServiceRequest, s.advanceTo)
	}

	// Description completes collection and moves to confirmation.
	res = f.turn(t, models.TurnRequest{
		SessionID: sid, Action: models.ActionSetIssueDescription,
		Arguments:  map[string]interface{}{"description": "Furnace stopped, house at 48 degrees"},
		GlobalData: res.GlobalData,
	})
	assertPosition(t, res.GlobalData, workflow.ContextConfirmation, workflow.StepConfirm)
	if !strings.Contains(res.Response, "Is all of this correct?") {
		t.Errorf("confirmation readback missing: %q", res.Response)
	}

	res = f.turn(t, models.TurnRequest{SessionID: sid, Action: models.ActionConfirmRequest, GlobalData: res.GlobalData})
	assertPosition(t, res.GlobalData, workflow.ContextConfirmation, workflow.StepConfirm)

	reqs, err := f.repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(reqs))
	}
	saved := reqs[0]
	if saved.CustomerName != "Maria Lopez" || !saved.IsEmergency || saved.IssueType != models.IssueTypeHeatingRepair {
		t.Errorf("saved ticket fields wrong: %+v", saved)
	}
	if got := res.GlobalData.String(models.KeyLastRequestID); got != saved.ID {
		t.Errorf("last_request_id = %q, want %q", got, saved.ID)
	}
	if d := session.DraftFrom(res.GlobalData); !d.IsEmpty() {
		t.Errorf("draft should be cleared after submission: %+v", d)
	}
	if got := len(f.rec.Events()); got != 1 {
		t.Errorf("recorded events = %d, want 1", got)
	}
}

func TestHandleTurnUnknownAction(t *testing.T) {
	f := newEngineFixture(t)

	res := f.turn(t, models.TurnRequest{SessionID: "call-002", Action: "order_pizza"})
	if res.Response != recoveryResponse {
		t.Errorf("expected recovery response, got %q", res.Response)
	}
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepWelcome)
}

func TestHandleTurnActionNotAllowedAtStep(t *testing.T) {
	f := newEngineFixture(t)

	// confirm_request is only valid in the confirmation context.
	res := f.turn(t, models.TurnRequest{SessionID: "call-003", Action: models.ActionConfirmRequest})
	if res.Response != recoveryResponse {
		t.Errorf("expected recovery response, got %q", res.Response)
	}
	reqs, _ := f.repo.List()
	if len(reqs) != 0 {
		t.Errorf("no ticket should exist, found %d", len(reqs))
	}
}

func TestHandleTurnIllegalAdvanceKeepsDraft(t *testing.T) {
	f := newEngineFixture(t)
	bag := models.GlobalData{
		models.KeyCurrentContext: workflow.ContextServiceRequest,
		models.KeyCurrentStep:    workflow.StepGetIssueType,
		models.KeyPendingRequest: models.Draft{IssueType: models.IssueTypeHeatingRepair, IsEmergency: true},
	}

	// Skipping ahead in the collection chain is rejected before dispatch.
	res := f.turn(t, models.TurnRequest{
		SessionID: "call-004",
		Action:    models.ActionSetOwnership,
		Arguments: map[string]interface{}{"ownership": "own"},
		AdvanceTo: workflow.StepGetCallbackNumbers,
		GlobalData: bag,
	})
	if res.Response != recoveryResponse {
		t.Errorf("expected recovery response, got %q", res.Response)
	}
	assertPosition(t, res.GlobalData, workflow.ContextServiceRequest, workflow.StepGetIssueType)
	if d := session.DraftFrom(res.GlobalData); d.IssueType != models.IssueTypeHeatingRepair {
		t.Errorf("draft should survive a rejected turn: %+v", d)
	}
}

func TestHandleTurnCancelMidFlow(t *testing.T) {
	f := newEngineFixture(t)
	bag := models.GlobalData{
		models.KeyCurrentContext: workflow.ContextServiceRequest,
		models.KeyCurrentStep:    workflow.StepGetOwnership,
		models.KeyPendingRequest: models.Draft{CustomerName: "Maria Lopez"},
	}

	res := f.turn(t, models.TurnRequest{SessionID: "call-005", Action: models.ActionCancelFlow, GlobalData: bag})
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepWelcome)
	if d := session.DraftFrom(res.GlobalData); !d.IsEmpty() {
		t.Errorf("cancel should drop the draft: %+v", d)
	}

	// A second cancel lands in the greeting, which does not expose the
	// action; the caller gets the recovery prompt and the call continues.
	res = f.turn(t, models.TurnRequest{SessionID: "call-005", Action: models.ActionCancelFlow, GlobalData: res.GlobalData})
	if res.Response != recoveryResponse {
		t.Errorf("expected recovery response, got %q", res.Response)
	}
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepWelcome)
}

func TestHandleTurnCorruptPositionResets(t *testing.T) {
	f := newEngineFixture(t)
	bag := models.GlobalData{
		models.KeyCurrentContext: "underwater_basket_weaving",
		models.KeyCurrentStep:    "step_nine",
	}

	res := f.turn(t, models.TurnRequest{SessionID: "call-006", GlobalData: bag})
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepWelcome)
}

func TestHandleTurnConfirmEmptyDraft(t *testing.T) {
	f := newEngineFixture(t)
	bag := models.GlobalData{
		models.KeyCurrentContext: workflow.ContextConfirmation,
		models.KeyCurrentStep:    workflow.StepConfirm,
	}

	res := f.turn(t, models.TurnRequest{SessionID: "call-007", Action: models.ActionConfirmRequest, GlobalData: bag})
	if !strings.Contains(res.Response, "I'm missing some information") {
		t.Errorf("expected re-prompt, got %q", res.Response)
	}
	// Still parked at confirmation, ready for the caller to fill gaps.
	assertPosition(t, res.GlobalData, workflow.ContextConfirmation, workflow.StepConfirm)
	reqs, _ := f.repo.List()
	if len(reqs) != 0 {
		t.Errorf("no ticket should exist, found %d", len(reqs))
	}
}

func TestHandleTurnFallsBackToStoredSession(t *testing.T) {
	f := newEngineFixture(t)
	const sid = "call-008"

	res := f.turn(t, models.TurnRequest{SessionID: sid, AdvanceTo: workflow.StepReady})
	assertPosition(t, res.GlobalData, workflow.ContextGreeting, workflow.StepReady)

	// Next turn arrives without a bag; the server-side backup restores the
	// position so start_service_request is allowed.
	res = f.turn(t, models.TurnRequest{SessionID: sid, Action: models.ActionStartServiceRequest})
	assertPosition(t, res.GlobalData, workflow.ContextServiceRequest, workflow.StepGetIssueType)
}
