package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/notify"
	"github.com/wireheat/afterhours/internal/store"
	"github.com/wireheat/afterhours/internal/util"
)

// maxTicketIDAttempts bounds the regeneration loop when a freshly drawn
// ticket number collides with an existing request.
const maxTicketIDAttempts = 10

// ConfirmAction finalizes a collected draft into a persisted service
// request. It is the only action with side effects beyond the session
// bag, so it carries the repository and notifier as dependencies.
type ConfirmAction struct {
	repo     store.Repository
	notifier notify.Service
	now      func() time.Time
}

// NewConfirmAction creates the confirm_request action. notifier may be
// nil when no event sinks are configured.
func NewConfirmAction(repo store.Repository, notifier notify.Service) *ConfirmAction {
	return &ConfirmAction{repo: repo, notifier: notifier, now: time.Now}
}

func (a *ConfirmAction) Name() string { return models.ActionConfirmRequest }

func (a *ConfirmAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionConfirmRequest,
			Description: openai.String("Submit the confirmed service request. Use only after customer confirms all details are correct."),
		},
	}
}

func (a *ConfirmAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	if verr := draft.Validate(); verr != nil {
		var ve *models.ValidationError
		if errors.As(verr, &ve) {
			slog.Warn("ConfirmAction.Execute: draft incomplete", "missing", ve.Missing)
			return Result{Response: missingFieldsResponse(ve.Missing), Draft: draft}, nil
		}
		return Result{}, fmt.Errorf("failed to validate draft: %w", verr)
	}

	req, err := a.persist(draft)
	if err != nil {
		return Result{}, fmt.Errorf("failed to save service request: %w", err)
	}

	if a.notifier != nil {
		if err := a.notifier.PublishRequestSubmitted(ctx, req); err != nil {
			// Notification failures never unwind a saved ticket.
			slog.Error("ConfirmAction.Execute: failed to publish event", "request_id", req.ID, "error", err)
		}
	}

	urgency := "shortly"
	if req.IsEmergency {
		urgency = "as soon as possible"
	}
	response := fmt.Sprintf("Your service request has been submitted. Your ticket number is %s. "+
		"Again, that's ticket number %s. A technician will call you back %s at %s. "+
		"Is there anything else I can help you with?",
		util.SayDigits(req.ID), util.SayDigits(req.ID), urgency, req.CallbackPrimary)

	// The call stays in the confirmation context; returning to the greeting
	// is the caller's move (cancel_flow) once they have the ticket number.
	event := notify.NewRequestSubmittedEvent(req)
	return Result{
		Response: response,
		Draft:    models.Draft{},
		Event:    &event,
	}, nil
}

// persist draws ticket numbers until one inserts cleanly. Collisions are
// rare at realistic volumes but the keyspace is only six digits.
func (a *ConfirmAction) persist(draft models.Draft) (models.ServiceRequest, error) {
	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		id := util.GenerateTicketNumber()
		req := models.NewServiceRequest(id, draft, a.now().UTC())
		err := a.repo.Create(req)
		if err == nil {
			slog.Info("ConfirmAction.persist: service request saved",
				"request_id", id, "emergency", req.IsEmergency, "attempts", attempt+1)
			return req, nil
		}
		if errors.Is(err, models.ErrDuplicateTicketID) {
			slog.Warn("ConfirmAction.persist: ticket number collision, retrying", "request_id", id)
			continue
		}
		return models.ServiceRequest{}, err
	}
	return models.ServiceRequest{}, fmt.Errorf("exhausted %d ticket number attempts: %w",
		maxTicketIDAttempts, models.ErrDuplicateTicketID)
}
