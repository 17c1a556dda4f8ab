// Package models defines the core data structures for the after-hours agent.
//
// It includes the service request draft, the finalized service request, and
// the API response envelope shared across modules.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// IssueType identifies which system the caller is reporting a problem with.
type IssueType string

const (
	// IssueTypeACRepair is an air conditioning service request.
	IssueTypeACRepair IssueType = "ac_repair"
	// IssueTypeHeatingRepair is a heating service request.
	IssueTypeHeatingRepair IssueType = "heating_repair"
)

// IsValidIssueType checks if the given issue type is supported.
func IsValidIssueType(it IssueType) bool {
	switch it {
	case IssueTypeACRepair, IssueTypeHeatingRepair:
		return true
	default:
		return false
	}
}

// SpokenName returns the caller-facing name of the issue type.
func (it IssueType) SpokenName() string {
	if it == IssueTypeHeatingRepair {
		return "heating"
	}
	return "air conditioning"
}

// Ownership records whether the caller owns or rents the service property.
type Ownership string

const (
	// OwnershipOwn means the caller owns the property.
	OwnershipOwn Ownership = "own"
	// OwnershipRent means the caller rents the property.
	OwnershipRent Ownership = "rent"
)

// IsValidOwnership checks if the given ownership value is supported.
func IsValidOwnership(o Ownership) bool {
	return o == OwnershipOwn || o == OwnershipRent
}

// RequestStatus represents the dispatch status of a service request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting a dispatch callback.
	RequestStatusPending RequestStatus = "pending"
)

// TicketIDLength is the number of digits in a ticket identifier.
const TicketIDLength = 6

// Error variables for better error handling and testability
var (
	ErrUnknownAction      = errors.New("action not registered")
	ErrActionNotAllowed   = errors.New("action not allowed in current step")
	ErrIllegalTransition  = errors.New("requested successor step not permitted")
	ErrUnknownContext     = errors.New("unknown workflow context")
	ErrUnknownStep        = errors.New("unknown workflow step")
	ErrDuplicateTicketID  = errors.New("ticket id already exists")
	ErrRequestNotFound    = errors.New("service request not found")
	ErrInvalidTicketID    = errors.New("ticket id must be a 6-digit numeric string")
	ErrRepositoryDisabled = errors.New("ticket repository not configured")
)

// Draft is the in-progress service request being assembled across caller
// turns. It lives in the session bag under the pending_request key and is
// mutated only by dispatched actions; every mutation produces a new value.
type Draft struct {
	IssueType         IssueType `json:"issue_type,omitempty"`
	IsEmergency       bool      `json:"is_emergency,omitempty"`
	CustomerName      string    `json:"customer_name,omitempty"`
	ServiceAddress    string    `json:"service_address,omitempty"`
	UnitInfo          string    `json:"unit_info,omitempty"`
	Ownership         Ownership `json:"ownership,omitempty"`
	CallbackPrimary   string    `json:"callback_primary,omitempty"`
	CallbackAlternate string    `json:"callback_alternate,omitempty"`
	IssueDescription  string    `json:"issue_description,omitempty"`
}

// IsEmpty reports whether no field of the draft has been collected yet.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// MissingFields returns the required fields that are still empty, in a
// stable order. Required fields are exactly: customer_name, service_address,
// issue_type, callback_primary, issue_description.
func (d Draft) MissingFields() []string {
	var missing []string
	if d.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if d.ServiceAddress == "" {
		missing = append(missing, "service_address")
	}
	if d.IssueType == "" {
		missing = append(missing, "issue_type")
	}
	if d.CallbackPrimary == "" {
		missing = append(missing, "callback_primary")
	}
	if d.IssueDescription == "" {
		missing = append(missing, "issue_description")
	}
	return missing
}

// Validate checks the draft against the finalization contract. It returns a
// *ValidationError naming every missing required field, or nil.
func (d Draft) Validate() error {
	missing := d.MissingFields()
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ValidationError reports the required draft fields that were empty at
// finalization time. It is recovered locally with a re-prompt, never
// surfaced as a hard failure.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	sorted := append([]string(nil), e.Missing...)
	sort.Strings(sorted)
	return fmt.Sprintf("missing required fields: %s", strings.Join(sorted, ", "))
}

// ServiceRequest is a finalized, immutable ticket. Once created it is owned
// exclusively by the ticket repository; the draft that produced it is
// discarded from the session.
type ServiceRequest struct {
	ID                string        `json:"id"`
	CustomerName      string        `json:"customer_name"`
	ServiceAddress    string        `json:"service_address"`
	UnitInfo          string        `json:"unit_info"`
	Ownership         string        `json:"ownership"`
	CallbackPrimary   string        `json:"callback_primary"`
	CallbackAlternate string        `json:"callback_alternate"`
	IssueType         IssueType     `json:"issue_type"`
	IsEmergency       bool          `json:"is_emergency"`
	IssueDescription  string        `json:"issue_description"`
	CreatedAt         time.Time     `json:"created_at"`
	Status            RequestStatus `json:"status"`
}

// NewServiceRequest copies a validated draft into an immutable ticket with
// the given id. Ownership defaults to "unknown" when the caller never
// answered the ownership question.
func NewServiceRequest(id string, d Draft, createdAt time.Time) ServiceRequest {
	ownership := string(d.Ownership)
	if ownership == "" {
		ownership = "unknown"
	}
	return ServiceRequest{
		ID:                id,
		CustomerName:      d.CustomerName,
		ServiceAddress:    d.ServiceAddress,
		UnitInfo:          d.UnitInfo,
		Ownership:         ownership,
		CallbackPrimary:   d.CallbackPrimary,
		CallbackAlternate: d.CallbackAlternate,
		IssueType:         d.IssueType,
		IsEmergency:       d.IsEmergency,
		IssueDescription:  d.IssueDescription,
		CreatedAt:         createdAt.UTC(),
		Status:            RequestStatusPending,
	}
}

// EventTypeRequestSubmitted is the side-channel event type emitted when a
// draft is committed into a ticket.
const EventTypeRequestSubmitted = "request_submitted"

// UserEvent is a structured side-channel payload delivered to the external
// notification channel (frontend real-time updates, dispatch paging).
type UserEvent struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Request *ServiceRequest `json:"request,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
