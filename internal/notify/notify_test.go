package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wireheat/afterhours/internal/models"
)

func sampleRequest(emergency bool) models.ServiceRequest {
	return models.ServiceRequest{
		ID:               "123456",
		CustomerName:     "Pat Doe",
		ServiceAddress:   "12 Oak St",
		CallbackPrimary:  "+15550100",
		IssueType:        models.IssueTypeHeatingRepair,
		IsEmergency:      emergency,
		IssueDescription: "no heat",
		CreatedAt:        time.Now().UTC(),
		Status:           models.RequestStatusPending,
	}
}

func TestNewRequestSubmittedEvent(t *testing.T) {
	req := sampleRequest(true)
	event := NewRequestSubmittedEvent(req)
	if event.Type != models.EventTypeRequestSubmitted {
		t.Errorf("expected type %q, got %q", models.EventTypeRequestSubmitted, event.Type)
	}
	if event.ID == "" {
		t.Error("event should carry a generated id")
	}
	if event.Request == nil || event.Request.ID != "123456" {
		t.Error("event should embed the submitted request")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	if err := rec.PublishRequestSubmitted(context.Background(), sampleRequest(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Request.ID != "123456" {
		t.Errorf("recorder should capture the event, got %v", events)
	}
}

type failingService struct{}

func (failingService) PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error {
	return errors.New("sink down")
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	rec := NewRecorder()
	fanout := NewFanout(failingService{}, rec)
	if err := fanout.PublishRequestSubmitted(context.Background(), sampleRequest(true)); err != nil {
		t.Fatalf("fanout must not propagate sink failures: %v", err)
	}
	if len(rec.Events()) != 1 {
		t.Error("later sinks should still receive the event")
	}
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) send(to, from, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}

func TestSMSNotifierPagesOnlyEmergencies(t *testing.T) {
	sender := &fakeSender{}
	n := &SMSNotifier{sender: sender, from: "+15550001", dispatchTo: "+15550002"}

	if err := n.PublishRequestSubmitted(context.Background(), sampleRequest(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("non-emergency ticket should not page dispatch")
	}

	if err := n.PublishRequestSubmitted(context.Background(), sampleRequest(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatal("emergency ticket should page dispatch")
	}
	if !strings.Contains(sender.sent[0], "EMERGENCY #123456") {
		t.Errorf("page should flag the emergency and ticket id, got %q", sender.sent[0])
	}
	if !strings.Contains(sender.sent[0], "heating") {
		t.Errorf("page should name the issue type, got %q", sender.sent[0])
	}
}

func TestSMSNotifierAlwaysNotify(t *testing.T) {
	sender := &fakeSender{}
	n := &SMSNotifier{sender: sender, from: "+15550001", dispatchTo: "+15550002", alwaysNotify: true}
	if err := n.PublishRequestSubmitted(context.Background(), sampleRequest(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Error("always-notify should page for non-emergencies too")
	}
}

func TestSMSNotifierSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("twilio down")}
	n := &SMSNotifier{sender: sender, from: "+15550001", dispatchTo: "+15550002"}
	if err := n.PublishRequestSubmitted(context.Background(), sampleRequest(true)); err == nil {
		t.Error("send failure should surface an error for the fanout to log")
	}
}

func TestNewSMSNotifierRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	t.Setenv("DISPATCH_PHONE_NUMBER", "")
	if _, err := NewSMSNotifier(); err == nil {
		t.Error("missing credentials should fail construction")
	}
}
