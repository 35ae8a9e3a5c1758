package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// RulesFile is the on-disk layout of a decision rules file
type RulesFile struct {
	Rules []models.DecisionRule `yaml:"rules" validate:"dive"`
}

// LoadRules reads and validates decision rules from a YAML file
func LoadRules(path string) ([]models.DecisionRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	rules, err := ParseRules(raw)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules decodes a rules document. Unknown keys are rejected so a typo
// in a condition does not silently disable it.
func ParseRules(raw []byte) ([]models.DecisionRule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc RulesFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.DecisionRule{}, nil
		}
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	for i := range doc.Rules {
		doc.Rules[i].ActionParams = normalizeParams(doc.Rules[i].ActionParams)
	}
	return doc.Rules, nil
}

// normalizeParams converts nested YAML maps so rule params look the same as
// when they arrive as JSON
func normalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return normalizeParams(x)
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = normalizeValue(item)
		}
		return items
	}
	return v
}
