package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gti/mgmt-dashboard/internal/models"
)

var errUnknownField = errors.New("unknown rule condition field")

// decisionFields maps the fixed condition paths to their extractors.
// Prefix paths (context.metadata.*, options.<n>.*) are resolved in lookupField.
var decisionFields = map[string]func(d *models.Decision) any{
	"title":       func(d *models.Decision) any { return d.Title },
	"description": func(d *models.Decision) any { return d.Description },
	"category":    func(d *models.Decision) any { return string(d.Category) },
	"priority":    func(d *models.Decision) any { return string(d.Priority) },
	"status":      func(d *models.Decision) any { return string(d.Status) },
	"autoDecisionThreshold": func(d *models.Decision) any {
		if d.AutoDecisionThreshold == nil {
			return nil
		}
		return *d.AutoDecisionThreshold
	},
	"notifyUsers":             func(d *models.Decision) any { return d.NotifyUsers },
	"context.userId":          func(d *models.Decision) any { return d.Context.UserID },
	"context.teamId":          func(d *models.Decision) any { return optionalString(d.Context.TeamID) },
	"context.departmentId":    func(d *models.Decision) any { return optionalString(d.Context.DepartmentID) },
	"context.projectId":       func(d *models.Decision) any { return optionalString(d.Context.ProjectID) },
	"context.relatedEntities": func(d *models.Decision) any { return d.Context.RelatedEntities },
	"options": func(d *models.Decision) any {
		ids := make([]string, 0, len(d.Options))
		for _, o := range d.Options {
			ids = append(ids, o.ID)
		}
		return ids
	},
}

var optionFields = map[string]func(o models.DecisionOption) any{
	"id":                 func(o models.DecisionOption) any { return o.ID },
	"description":        func(o models.DecisionOption) any { return o.Description },
	"confidence":         func(o models.DecisionOption) any { return o.Confidence },
	"impact.scope":       func(o models.DecisionOption) any { return string(o.Impact.Scope) },
	"impact.description": func(o models.DecisionOption) any { return o.Impact.Description },
}

// lookupField resolves a rule condition path against a decision.
// A known path whose value is absent yields nil; an unknown path is an error.
func lookupField(d *models.Decision, path string) (any, error) {
	if get, ok := decisionFields[path]; ok {
		return get(d), nil
	}

	if rest, ok := strings.CutPrefix(path, "context.metadata."); ok && rest != "" {
		return walkMap(d.Context.Metadata, strings.Split(rest, ".")), nil
	}

	if rest, ok := strings.CutPrefix(path, "options."); ok {
		idx, field, found := strings.Cut(rest, ".")
		n, err := strconv.Atoi(idx)
		if !found || err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s", errUnknownField, path)
		}

		var opt *models.DecisionOption
		if n < len(d.Options) {
			opt = &d.Options[n]
		}

		if key, ok := strings.CutPrefix(field, "impact.metrics."); ok && key != "" {
			if opt == nil {
				return nil, nil
			}
			return walkMap(opt.Impact.Metrics, strings.Split(key, ".")), nil
		}

		get, ok := optionFields[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownField, path)
		}
		if opt == nil {
			return nil, nil
		}
		return get(*opt), nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownField, path)
}

func walkMap(m map[string]any, keys []string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = mm[k]
		if !ok {
			return nil
		}
	}
	return cur
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// matchCondition compares a resolved field value against a rule value.
// Absent fields only satisfy the negative operators.
func matchCondition(op models.ConditionOperator, field, value any) bool {
	switch op {
	case models.OpEquals:
		return valuesEqual(field, value)
	case models.OpNotEquals:
		return !valuesEqual(field, value)
	case models.OpGreaterThan:
		c, ok := orderValues(field, value)
		return ok && c > 0
	case models.OpLessThan:
		c, ok := orderValues(field, value)
		return ok && c < 0
	case models.OpContains:
		return containsValue(field, value)
	case models.OpNotContains:
		return !containsValue(field, value)
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// orderValues compares numbers numerically and strings lexically.
// A string compared with a number is read as a number, so "200" < 500.
func orderValues(a, b any) (int, bool) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok || bok {
		if !aok {
			fa, aok = numericString(a)
		}
		if !bok {
			fb, bok = numericString(b)
		}
		if !aok || !bok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func numericString(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// containsValue tests membership for list fields and substring for scalars
func containsValue(field, value any) bool {
	switch fv := field.(type) {
	case nil:
		return false
	case []string:
		for _, item := range fv {
			if valuesEqual(item, value) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range fv {
			if valuesEqual(item, value) {
				return true
			}
		}
		return false
	}
	return strings.Contains(fmt.Sprint(field), fmt.Sprint(value))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
