package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/util"
)

// SMSOpts holds configuration options for the dispatch SMS notifier.
type SMSOpts struct {
	AccountSID   string
	AuthToken    string
	From         string
	DispatchTo   string
	AlwaysNotify bool // page dispatch for non-emergencies too
}

// SMSOption defines a configuration option for the dispatch SMS notifier.
type SMSOption func(*SMSOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) SMSOption {
	return func(o *SMSOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) SMSOption {
	return func(o *SMSOpts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number.
func WithFromNumber(from string) SMSOption {
	return func(o *SMSOpts) { o.From = from }
}

// WithDispatchNumber sets the on-call dispatcher's phone number.
func WithDispatchNumber(to string) SMSOption {
	return func(o *SMSOpts) { o.DispatchTo = to }
}

// WithAlwaysNotify pages dispatch for every ticket, not just emergencies.
func WithAlwaysNotify() SMSOption {
	return func(o *SMSOpts) { o.AlwaysNotify = true }
}

// smsSender abstracts the Twilio message call for tests.
type smsSender interface {
	send(to, from, body string) error
}

type twilioSender struct {
	client *twilio.RestClient
}

func (t *twilioSender) send(to, from, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)
	_, err := t.client.Api.CreateMessage(params)
	return err
}

// SMSNotifier pages the on-call dispatcher over Twilio SMS when a ticket is
// submitted. By default only emergency tickets trigger a page.
type SMSNotifier struct {
	sender       smsSender
	from         string
	dispatchTo   string
	alwaysNotify bool
}

// NewSMSNotifier creates a dispatch SMS notifier. Credentials fall back to
// the TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and
// DISPATCH_PHONE_NUMBER environment variables when not supplied via options.
func NewSMSNotifier(opts ...SMSOption) (*SMSNotifier, error) {
	var cfg SMSOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.DispatchTo == "" {
		cfg.DispatchTo = os.Getenv("DISPATCH_PHONE_NUMBER")
	}
	if !cfg.AlwaysNotify {
		cfg.AlwaysNotify = util.ParseBoolEnv("DISPATCH_NOTIFY_ALL", false)
	}
	slog.Debug("NewSMSNotifier: config loaded",
		"accountSID_set", cfg.AccountSID != "",
		"authToken_set", cfg.AuthToken != "",
		"from_set", cfg.From != "",
		"dispatchTo_set", cfg.DispatchTo != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" || cfg.DispatchTo == "" {
		return nil, fmt.Errorf("from number and dispatch number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSNotifier{
		sender:       &twilioSender{client: client},
		from:         cfg.From,
		dispatchTo:   cfg.DispatchTo,
		alwaysNotify: cfg.AlwaysNotify,
	}, nil
}

func (n *SMSNotifier) PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error {
	if !req.IsEmergency && !n.alwaysNotify {
		slog.Debug("SMSNotifier: non-emergency ticket, skipping page", "id", req.ID)
		return nil
	}
	body := dispatchPageBody(req)
	if err := n.sender.send(n.dispatchTo, n.from, body); err != nil {
		slog.Error("SMSNotifier: page failed", "error", err, "id", req.ID)
		return fmt.Errorf("failed to page dispatch for ticket %s: %w", req.ID, err)
	}
	slog.Info("SMSNotifier: dispatch paged", "id", req.ID, "emergency", req.IsEmergency)
	return nil
}

// dispatchPageBody builds the SMS text for a dispatch page.
func dispatchPageBody(req models.ServiceRequest) string {
	urgency := "Service request"
	if req.IsEmergency {
		urgency = "EMERGENCY"
	}
	return fmt.Sprintf("%s #%s: %s issue at %s. Caller %s, callback %s. %s",
		urgency, req.ID, req.IssueType.SpokenName(), req.ServiceAddress,
		req.CustomerName, req.CallbackPrimary, req.IssueDescription)
}
