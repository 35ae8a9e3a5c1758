package models

import (
	"slices"
	"time"
)

// DecisionStatus is the lifecycle state of a decision.
// Every status other than pending is terminal.
type DecisionStatus string

const (
	DecisionPending      DecisionStatus = "pending"
	DecisionApproved     DecisionStatus = "approved"
	DecisionRejected     DecisionStatus = "rejected"
	DecisionAutoApproved DecisionStatus = "auto-approved"
	DecisionEscalated    DecisionStatus = "escalated"
)

// IsTerminal reports whether no further transitions are defined
func (s DecisionStatus) IsTerminal() bool {
	return s != DecisionPending
}

// DecisionCategory groups decisions; rules are scoped by category
type DecisionCategory string

const (
	CategoryBudget        DecisionCategory = "budget"
	CategoryScheduling    DecisionCategory = "scheduling"
	CategoryCommunication DecisionCategory = "communication"
	CategoryTask          DecisionCategory = "task"
	CategoryResource      DecisionCategory = "resource"
	CategoryOther         DecisionCategory = "other"
)

// ImpactScope is the reach of an option's consequences
type ImpactScope string

const (
	ScopeIndividual   ImpactScope = "individual"
	ScopeTeam         ImpactScope = "team"
	ScopeDepartment   ImpactScope = "department"
	ScopeOrganization ImpactScope = "organization"
)

// DecisionContext describes who raised a decision and carries the
// free-form metadata rule conditions read from
type DecisionContext struct {
	UserID          string         `json:"userId" yaml:"userId" validate:"required"`
	TeamID          string         `json:"teamId,omitempty" yaml:"teamId,omitempty"`
	DepartmentID    string         `json:"departmentId,omitempty" yaml:"departmentId,omitempty"`
	ProjectID       string         `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	RelatedEntities []string       `json:"relatedEntities,omitempty" yaml:"relatedEntities,omitempty"`
	Metadata        map[string]any `json:"metadata" yaml:"metadata"`
}

// OptionImpact describes what happens if an option is chosen
type OptionImpact struct {
	Description string         `json:"description" yaml:"description"`
	Scope       ImpactScope    `json:"scope" yaml:"scope" validate:"required,oneof=individual team department organization"`
	Metrics     map[string]any `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// DecisionOption is one mutually exclusive outcome of a decision
type DecisionOption struct {
	ID          string       `json:"id" yaml:"id" validate:"required"`
	Description string       `json:"description" yaml:"description"`
	Impact      OptionImpact `json:"impact" yaml:"impact"`
	Confidence  float64      `json:"confidence" yaml:"confidence" validate:"min=0,max=1"`
}

// Decision is a structured approval request
type Decision struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	Category              DecisionCategory `json:"category"`
	Priority              Priority         `json:"priority"`
	Status                DecisionStatus   `json:"status"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
	DueBy                 *time.Time       `json:"dueBy,omitempty"`
	Context               DecisionContext  `json:"context"`
	Options               []DecisionOption `json:"options"`
	SelectedOption        string           `json:"selectedOption,omitempty"`
	Reasoning             string           `json:"reasoning,omitempty"`
	ApprovedBy            string           `json:"approvedBy,omitempty"`
	RejectedBy            string           `json:"rejectedBy,omitempty"`
	EscalatedTo           string           `json:"escalatedTo,omitempty"`
	AutoDecisionThreshold *float64         `json:"autoDecisionThreshold,omitempty"`
	NotifyUsers           []string         `json:"notifyUsers,omitempty"`
}

// FindOption returns the option with the given id
func (d *Decision) FindOption(id string) (DecisionOption, bool) {
	for _, o := range d.Options {
		if o.ID == id {
			return o, true
		}
	}
	return DecisionOption{}, false
}

// Clone returns a copy that shares no slices or maps with d, including
// maps and lists nested inside metadata and impact metrics
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	c := *d
	if d.DueBy != nil {
		due := *d.DueBy
		c.DueBy = &due
	}
	if d.AutoDecisionThreshold != nil {
		th := *d.AutoDecisionThreshold
		c.AutoDecisionThreshold = &th
	}
	c.Context.RelatedEntities = slices.Clone(d.Context.RelatedEntities)
	c.Context.Metadata = cloneMap(d.Context.Metadata)
	c.NotifyUsers = slices.Clone(d.NotifyUsers)
	c.Options = make([]DecisionOption, len(d.Options))
	for i, o := range d.Options {
		o.Impact.Metrics = cloneMap(o.Impact.Metrics)
		c.Options[i] = o
	}
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		c := make([]any, len(t))
		for i, item := range t {
			c[i] = cloneValue(item)
		}
		return c
	case []string:
		return slices.Clone(t)
	}
	return v
}

// DecisionInput holds the caller-supplied fields of a new decision
type DecisionInput struct {
	Title                 string           `json:"title" yaml:"title" validate:"required"`
	Description           string           `json:"description" yaml:"description"`
	Category              DecisionCategory `json:"category" yaml:"category" validate:"required,oneof=budget scheduling communication task resource other"`
	Priority              Priority         `json:"priority" yaml:"priority" validate:"required,oneof=low medium high critical"`
	DueBy                 *time.Time       `json:"dueBy,omitempty" yaml:"dueBy,omitempty"`
	Context               DecisionContext  `json:"context" yaml:"context"`
	Options               []DecisionOption `json:"options" yaml:"options" validate:"dive"`
	AutoDecisionThreshold *float64         `json:"autoDecisionThreshold,omitempty" yaml:"autoDecisionThreshold,omitempty" validate:"omitempty,min=0,max=1"`
	NotifyUsers           []string         `json:"notifyUsers,omitempty" yaml:"notifyUsers,omitempty"`
}

// ConditionOperator compares a decision field with a rule value
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not_equals"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
)

// RuleCondition is a single predicate of a rule
type RuleCondition struct {
	Field    string            `json:"field" yaml:"field" validate:"required"`
	Operator ConditionOperator `json:"operator" yaml:"operator" validate:"required,oneof=equals not_equals greater_than less_than contains not_contains"`
	Value    any               `json:"value" yaml:"value"`
}

// RuleAction is applied to a decision when a rule matches
type RuleAction string

const (
	ActionAutoApprove RuleAction = "auto_approve"
	ActionAutoReject  RuleAction = "auto_reject"
	ActionEscalate    RuleAction = "escalate"
	ActionNotify      RuleAction = "notify"
)

// DecisionRule is a prioritized, conditionally triggered action.
// Lower Priority values are evaluated first.
type DecisionRule struct {
	ID           string           `json:"id" yaml:"id,omitempty"`
	Name         string           `json:"name" yaml:"name" validate:"required"`
	Description  string           `json:"description" yaml:"description"`
	Category     DecisionCategory `json:"category" yaml:"category" validate:"required,oneof=budget scheduling communication task resource other"`
	Conditions   []RuleCondition  `json:"conditions" yaml:"conditions" validate:"dive"`
	Action       RuleAction       `json:"action" yaml:"action" validate:"required,oneof=auto_approve auto_reject escalate notify"`
	ActionParams map[string]any   `json:"actionParams,omitempty" yaml:"actionParams,omitempty"`
	Priority     int              `json:"priority" yaml:"priority"`
	Enabled      bool             `json:"enabled" yaml:"enabled"`
}

// StringParam returns a string action parameter, or "" when absent
func (r DecisionRule) StringParam(key string) string {
	if v, ok := r.ActionParams[key].(string); ok {
		return v
	}
	return ""
}

// StringsParam returns a list action parameter, accepting []string or []any
func (r DecisionRule) StringsParam(key string) []string {
	switch v := r.ActionParams[key].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// Outcome is the terminal result recorded in decision history
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Feedback is a reviewer's rating of a decision outcome
type Feedback struct {
	Rating   int    `json:"rating"` // 1-5
	Comments string `json:"comments,omitempty"`
}

// DecisionHistory is an append-only audit entry for a terminal approve/reject
type DecisionHistory struct {
	DecisionID     string    `json:"decisionId"`
	Outcome        Outcome   `json:"outcome"`
	SelectedOption string    `json:"selectedOption"`
	Timestamp      time.Time `json:"timestamp"`
	Feedback       *Feedback `json:"feedback,omitempty"`
}
