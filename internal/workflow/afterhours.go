// Package workflow defines the concrete after-hours service request graph.
package workflow

import "github.com/wireheat/afterhours/internal/models"

// Context and step names for the after-hours service request flow.
const (
	ContextGreeting       = "greeting"
	ContextServiceRequest = "service_request"
	ContextConfirmation   = "confirmation"

	StepWelcome             = "welcome"
	StepReady               = "ready"
	StepGetIssueType        = "get_issue_type"
	StepGetCustomerName     = "get_customer_name"
	StepGetServiceAddress   = "get_service_address"
	StepGetUnitInfo         = "get_unit_info"
	StepGetOwnership        = "get_ownership"
	StepGetCallbackNumbers  = "get_callback_numbers"
	StepGetIssueDescription = "get_issue_description"
	StepConfirm             = "confirm"
)

// AfterHoursContexts returns the service request graph: a greeting entry
// point, a linear collection chain asking one question at a time, and a
// confirmation phase. The collection steps each expose their set_* action
// plus cancel_flow; the final collection step and the confirmation step have
// no declared successors because their actions perform explicit context
// switches instead.
func AfterHoursContexts() []Context {
	return []Context{
		{
			Name: ContextGreeting,
			Steps: []Step{
				{
					Name: StepWelcome,
					Text: "Thank you for calling Wire Heating and Air after-hours emergency service. " +
						"Are you experiencing a heating or air conditioning problem?",
					Criteria:   "Customer indicates they need service",
					ValidSteps: []string{StepReady},
				},
				{
					Name:    StepReady,
					Text:    "I can help you with that. Let me get some information.",
					Actions: []string{models.ActionStartServiceRequest},
				},
			},
		},
		{
			Name: ContextServiceRequest,
			Steps: []Step{
				{
					Name: StepGetIssueType,
					Text: "First, is this for your air conditioning or heating system? " +
						"And would you consider this an emergency?",
					Criteria:   "Customer has indicated issue type (AC or heating) and emergency status",
					Actions:    []string{models.ActionSetIssueType, models.ActionCancelFlow},
					ValidSteps: []string{StepGetCustomerName},
				},
				{
					Name:       StepGetCustomerName,
					Text:       "May I have your name please?",
					Criteria:   "Customer has provided their name",
					Actions:    []string{models.ActionSetCustomerName, models.ActionCancelFlow},
					ValidSteps: []string{StepGetServiceAddress},
				},
				{
					Name: StepGetServiceAddress,
					Text: "What is the service address? Please include the full street address " +
						"and any apartment or unit number.",
					Criteria:   "Customer has provided the service address",
					Actions:    []string{models.ActionSetServiceAddress, models.ActionCancelFlow},
					ValidSteps: []string{StepGetUnitInfo},
				},
				{
					Name: StepGetUnitInfo,
					Text: "Can you tell me about your HVAC unit - the brand if you know it, " +
						"approximately how old it is, and where it's located?",
					Criteria:   "Customer has provided unit information",
					Actions:    []string{models.ActionSetUnitInfo, models.ActionCancelFlow},
					ValidSteps: []string{StepGetOwnership},
				},
				{
					Name:       StepGetOwnership,
					Text:       "Do you own or rent this property?",
					Criteria:   "Customer has indicated ownership status",
					Actions:    []string{models.ActionSetOwnership, models.ActionCancelFlow},
					ValidSteps: []string{StepGetCallbackNumbers},
				},
				{
					Name: StepGetCallbackNumbers,
					Text: "What's the best phone number for our technician to reach you? " +
						"And is there an alternate number?",
					Criteria:   "Customer has provided callback number(s)",
					Actions:    []string{models.ActionSetCallbackNumbers, models.ActionCancelFlow},
					ValidSteps: []string{StepGetIssueDescription},
				},
				{
					Name:     StepGetIssueDescription,
					Text:     "Please describe the problem you're experiencing with your system.",
					Criteria: "Customer has described the issue",
					Actions:  []string{models.ActionSetIssueDescription, models.ActionCancelFlow},
				},
			},
		},
		{
			Name: ContextConfirmation,
			Steps: []Step{
				{
					Name:    StepConfirm,
					Text:    "Please review your service request details.",
					Actions: []string{models.ActionConfirmRequest, models.ActionCancelFlow},
				},
			},
		},
	}
}
