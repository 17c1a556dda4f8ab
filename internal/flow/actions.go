// Package flow defines the service request collection actions.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/wireheat/afterhours/internal/models"
	"github.com/wireheat/afterhours/internal/workflow"
)

// CollectionActions returns the nine stateless actions of the service
// request flow. The confirm_request action carries dependencies and is
// constructed separately via NewConfirmAction.
func CollectionActions() []Action {
	return []Action{
		startServiceRequestAction{},
		setIssueTypeAction{},
		setCustomerNameAction{},
		setServiceAddressAction{},
		setUnitInfoAction{},
		setOwnershipAction{},
		setCallbackNumbersAction{},
		setIssueDescriptionAction{},
		cancelFlowAction{},
	}
}

// ---------------------------------------------------------------------------
// start_service_request
// ---------------------------------------------------------------------------

type startServiceRequestAction struct{}

func (startServiceRequestAction) Name() string { return models.ActionStartServiceRequest }

func (startServiceRequestAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name: models.ActionStartServiceRequest,
			Description: openai.String("Start collecting a new service request. Use when customer needs HVAC service. " +
				"After this, collect: issue type, name, address, unit info, ownership, callback numbers, then issue description."),
		},
	}
}

func (startServiceRequestAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	return Result{
		Response: "I'll get a service request started for you. " +
			"First, is this for your air conditioning or heating system? " +
			"And would you consider this an emergency situation?",
		Draft:         models.Draft{},
		ContextSwitch: workflow.ContextServiceRequest,
	}, nil
}

// ---------------------------------------------------------------------------
// set_issue_type
// ---------------------------------------------------------------------------

type setIssueTypeAction struct{}

func (setIssueTypeAction) Name() string { return models.ActionSetIssueType }

func (setIssueTypeAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetIssueType,
			Description: openai.String("Record the type of issue (AC or heating) and whether it's an emergency. After setting, ask for customer name."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"issue_type": map[string]interface{}{
						"type":        "string",
						"description": "Type of issue: 'ac_repair' or 'heating_repair'",
						"enum":        []string{string(models.IssueTypeACRepair), string(models.IssueTypeHeatingRepair)},
					},
					"is_emergency": map[string]interface{}{
						"type":        "boolean",
						"description": "True if this is an emergency (no heat in freezing temps, no AC in dangerous heat, gas smell, etc.)",
					},
				},
				"required": []string{"issue_type", "is_emergency"},
			},
		},
	}
}

func (setIssueTypeAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	// Deliberately lenient: a missing or unrecognized issue type defaults to
	// ac_repair rather than failing the live call. The commit-time gate in
	// confirm_request is the real validation.
	issueType := models.IssueType(stringArg(args, "issue_type"))
	if !models.IsValidIssueType(issueType) {
		if issueType != "" {
			slog.Warn("set_issue_type: unrecognized issue type, defaulting", "issue_type", issueType)
		}
		issueType = models.IssueTypeACRepair
	}
	isEmergency := boolArg(args, "is_emergency")

	draft.IssueType = issueType
	draft.IsEmergency = isEmergency

	urgency := "service request"
	if isEmergency {
		urgency = "emergency"
	}
	response := fmt.Sprintf("I've noted this as a %s %s. ", issueType.SpokenName(), urgency)
	if isEmergency {
		response += "We'll prioritize getting a technician to call you back. "
	}
	response += "May I have your name please?"

	return Result{Response: response, Draft: draft}, nil
}

// ---------------------------------------------------------------------------
// set_customer_name
// ---------------------------------------------------------------------------

type setCustomerNameAction struct{}

func (setCustomerNameAction) Name() string { return models.ActionSetCustomerName }

func (setCustomerNameAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetCustomerName,
			Description: openai.String("Record the customer's name. After setting name, ask for service address."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "The customer's name",
					},
				},
				"required": []string{"name"},
			},
		},
	}
}

func (setCustomerNameAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	name := stringArg(args, "name")
	draft.CustomerName = name
	return Result{
		Response: fmt.Sprintf("Thank you, %s. What is the address where service is needed? "+
			"Please include apartment or unit number if applicable.", name),
		Draft: draft,
	}, nil
}

// ---------------------------------------------------------------------------
// set_service_address
// ---------------------------------------------------------------------------

type setServiceAddressAction struct{}

func (setServiceAddressAction) Name() string { return models.ActionSetServiceAddress }

func (setServiceAddressAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetServiceAddress,
			Description: openai.String("Record the full service address. After setting address, ask about the HVAC unit."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"address": map[string]interface{}{
						"type":        "string",
						"description": "Full service address including street, city, state, zip, and apt/unit number",
					},
				},
				"required": []string{"address"},
			},
		},
	}
}

func (setServiceAddressAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	address := stringArg(args, "address")
	draft.ServiceAddress = address
	return Result{
		Response: fmt.Sprintf("Got it, %s. Can you tell me about your HVAC unit? "+
			"Any details help - the brand, approximate age, or where it's located like rooftop, basement, or closet.", address),
		Draft: draft,
	}, nil
}

// ---------------------------------------------------------------------------
// set_unit_info
// ---------------------------------------------------------------------------

type setUnitInfoAction struct{}

func (setUnitInfoAction) Name() string { return models.ActionSetUnitInfo }

func (setUnitInfoAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetUnitInfo,
			Description: openai.String("Record information about the HVAC unit. After setting, ask if they own or rent."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"unit_info": map[string]interface{}{
						"type":        "string",
						"description": "Information about the HVAC unit (brand, age, location, etc.)",
					},
				},
				"required": []string{"unit_info"},
			},
		},
	}
}

func (setUnitInfoAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	draft.UnitInfo = stringArg(args, "unit_info")
	return Result{
		Response: "Thanks for that information. Do you own or rent this property?",
		Draft:    draft,
	}, nil
}

// ---------------------------------------------------------------------------
// set_ownership
// ---------------------------------------------------------------------------

type setOwnershipAction struct{}

func (setOwnershipAction) Name() string { return models.ActionSetOwnership }

func (setOwnershipAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetOwnership,
			Description: openai.String("Record whether the customer owns or rents the property. After setting, ask for callback number."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"ownership": map[string]interface{}{
						"type":        "string",
						"description": "Whether customer owns or rents: 'own' or 'rent'",
						"enum":        []string{string(models.OwnershipOwn), string(models.OwnershipRent)},
					},
				},
				"required": []string{"ownership"},
			},
		},
	}
}

func (setOwnershipAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	ownership := models.Ownership(stringArg(args, "ownership"))
	if !models.IsValidOwnership(ownership) {
		if ownership != "" {
			slog.Warn("set_ownership: unrecognized value, defaulting to own", "ownership", ownership)
		}
		ownership = models.OwnershipOwn
	}
	draft.Ownership = ownership

	response := ""
	if ownership == models.OwnershipRent {
		response = "Noted that you rent. Just so you know, you may need landlord approval for repairs, " +
			"but our technician can help coordinate that. "
	}
	response += "What's the best phone number for our dispatch to call you back?"
	return Result{Response: response, Draft: draft}, nil
}

// ---------------------------------------------------------------------------
// set_callback_numbers
// ---------------------------------------------------------------------------

type setCallbackNumbersAction struct{}

func (setCallbackNumbersAction) Name() string { return models.ActionSetCallbackNumbers }

func (setCallbackNumbersAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetCallbackNumbers,
			Description: openai.String("Record callback phone number(s). After setting, ask for issue description."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"primary": map[string]interface{}{
						"type":        "string",
						"description": "Primary callback phone number",
					},
					"alternate": map[string]interface{}{
						"type":        "string",
						"description": "Alternate callback phone number (optional)",
					},
				},
				"required": []string{"primary"},
			},
		},
	}
}

func (setCallbackNumbersAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	primary := stringArg(args, "primary")
	alternate := stringArg(args, "alternate")

	draft.CallbackPrimary = primary
	if alternate != "" {
		draft.CallbackAlternate = alternate
	}

	response := fmt.Sprintf("I have %s as your callback number", primary)
	if alternate != "" {
		response += fmt.Sprintf(" with %s as a backup", alternate)
	}
	response += ". Now, please describe the problem you're experiencing with your system."
	return Result{Response: response, Draft: draft}, nil
}

// ---------------------------------------------------------------------------
// set_issue_description
// ---------------------------------------------------------------------------

type setIssueDescriptionAction struct{}

func (setIssueDescriptionAction) Name() string { return models.ActionSetIssueDescription }

func (setIssueDescriptionAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionSetIssueDescription,
			Description: openai.String("Record the detailed description of the issue. This completes collection and moves to confirmation."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"description": map[string]interface{}{
						"type":        "string",
						"description": "Detailed description of the HVAC problem",
					},
				},
				"required": []string{"description"},
			},
		},
	}
}

func (setIssueDescriptionAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	draft.IssueDescription = stringArg(args, "description")
	return Result{
		Response:      confirmationSummary(draft),
		Draft:         draft,
		ContextSwitch: workflow.ContextConfirmation,
	}, nil
}

// confirmationSummary synthesizes the human-readable readback of the
// accumulated draft for the caller to confirm.
func confirmationSummary(d models.Draft) string {
	name := d.CustomerName
	if name == "" {
		name = "Customer"
	}
	issueType := "Air conditioning"
	if d.IssueType == models.IssueTypeHeatingRepair {
		issueType = "Heating"
	}
	urgency := "Non-emergency"
	if d.IsEmergency {
		urgency = "Emergency"
	}
	return fmt.Sprintf("Let me confirm your service request: %s, at %s. %s issue - %s. "+
		"We'll call you back at %s. Issue: %s. Is all of this correct?",
		name, d.ServiceAddress, issueType, urgency, d.CallbackPrimary, d.IssueDescription)
}

// ---------------------------------------------------------------------------
// cancel_flow
// ---------------------------------------------------------------------------

type cancelFlowAction struct{}

func (cancelFlowAction) Name() string { return models.ActionCancelFlow }

func (cancelFlowAction) ToolDefinition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        models.ActionCancelFlow,
			Description: openai.String("Cancel the current action and return to the main menu."),
		},
	}
}

func (cancelFlowAction) Execute(ctx context.Context, args map[string]interface{}, draft models.Draft) (Result, error) {
	return Result{
		Response:      "No problem. Is there anything else I can help you with?",
		Draft:         models.Draft{},
		ContextSwitch: workflow.ContextGreeting,
	}, nil
}

// missingFieldsResponse names every missing required field in the re-prompt.
func missingFieldsResponse(missing []string) string {
	return fmt.Sprintf("I'm missing some information: %s. Let me get those details.", strings.Join(missing, ", "))
}
