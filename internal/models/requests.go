package models

// --- API Request/Response Types ---

// ApproveDecisionRequest is the request body for manually approving a decision
type ApproveDecisionRequest struct {
	OptionID   string `json:"optionId" validate:"required"`
	ApprovedBy string `json:"approvedBy"` // Falls back to the x-user-id header
	Reasoning  string `json:"reasoning,omitempty"`
}

// RejectDecisionRequest is the request body for manually rejecting a decision
type RejectDecisionRequest struct {
	RejectedBy string `json:"rejectedBy"` // Falls back to the x-user-id header
	Reasoning  string `json:"reasoning,omitempty"`
}

// FeedbackRequest is the request body for rating a decision outcome
type FeedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comments string `json:"comments,omitempty"`
}

// ErrorResponse is the error body returned by every JSON endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateDecisionRequest is the request body for raising a new decision
type CreateDecisionRequest = DecisionInput

// CreateRuleRequest is the request body for adding a decision rule
type CreateRuleRequest struct {
	Name         string           `json:"name" validate:"required"`
	Description  string           `json:"description"`
	Category     DecisionCategory `json:"category" validate:"required,oneof=budget scheduling communication task resource other"`
	Conditions   []RuleCondition  `json:"conditions" validate:"dive"`
	Action       RuleAction       `json:"action" validate:"required,oneof=auto_approve auto_reject escalate notify"`
	ActionParams map[string]any   `json:"actionParams,omitempty"`
	Priority     int              `json:"priority"`
	Enabled      *bool            `json:"enabled,omitempty"` // Defaults to true
}

// Rule converts the request into a rule without an id
func (r CreateRuleRequest) Rule() DecisionRule {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return DecisionRule{
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		Conditions:   r.Conditions,
		Action:       r.Action,
		ActionParams: r.ActionParams,
		Priority:     r.Priority,
		Enabled:      enabled,
	}
}

// ToolCallRequest is the request body for invoking a calendar tool
type ToolCallRequest struct {
	Params map[string]any `json:"params"`
}

// ToolCallResponse wraps a tool result
type ToolCallResponse struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

// DeleteRuleResponse reports the outcome of a rule removal
type DeleteRuleResponse struct {
	Success bool `json:"success"`
}
