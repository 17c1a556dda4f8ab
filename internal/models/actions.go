// Package models defines the action names shared by the workflow graph and
// the action dispatcher.
package models

// Action names. Every name referenced by a workflow step must be registered
// with the dispatcher before the definition is built.
const (
	ActionStartServiceRequest = "start_service_request"
	ActionSetIssueType        = "set_issue_type"
	ActionSetCustomerName     = "set_customer_name"
	ActionSetServiceAddress   = "set_service_address"
	ActionSetUnitInfo         = "set_unit_info"
	ActionSetOwnership        = "set_ownership"
	ActionSetCallbackNumbers  = "set_callback_numbers"
	ActionSetIssueDescription = "set_issue_description"
	ActionConfirmRequest      = "confirm_request"
	ActionCancelFlow          = "cancel_flow"
)
