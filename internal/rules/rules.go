// Package rules evaluates resource configurations against declarative
// compliance rules kept as YAML files in a rules directory.
package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one policy: a resource type it applies to and a list of checks
// that must all hold.
type Rule struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name,omitempty"`
	ResourceType string  `yaml:"resource_type"`
	Description  string  `yaml:"description,omitempty"`
	Checks       []Check `yaml:"checks"`
}

// Check asserts on a dotted path into the configuration. Exists tests
// presence; Equals and OneOf compare the value loosely (numbers and their
// string forms are considered equal, matching values extracted from text).
type Check struct {
	Path    string `yaml:"path"`
	Exists  *bool  `yaml:"exists,omitempty"`
	Equals  any    `yaml:"equals,omitempty"`
	OneOf   []any  `yaml:"one_of,omitempty"`
	Message string `yaml:"message,omitempty"`
}

type Result struct {
	RuleID   string   `json:"rule_id"`
	Passed   bool     `json:"passed"`
	Skipped  bool     `json:"skipped,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

func ParseRule(raw []byte) (Rule, error) {
	var rule Rule
	if err := yaml.Unmarshal(raw, &rule); err != nil {
		return rule, err
	}
	if rule.ID == "" {
		return rule, fmt.Errorf("rule is missing an id")
	}
	return rule, nil
}

// Evaluate runs a rule against a configuration. Rules scoped to a different
// resource type are skipped and count as passed.
func Evaluate(rule Rule, typeName string, config map[string]any) Result {
	if rule.ResourceType != "" && rule.ResourceType != typeName {
		return Result{RuleID: rule.ID, Passed: true, Skipped: true}
	}

	res := Result{RuleID: rule.ID, Passed: true}
	for _, check := range rule.Checks {
		if msg := evaluateCheck(check, config); msg != "" {
			res.Passed = false
			res.Messages = append(res.Messages, msg)
		}
	}
	return res
}

func evaluateCheck(check Check, config map[string]any) string {
	value, found := lookupPath(config, check.Path)

	if check.Exists != nil {
		if *check.Exists != found {
			return failureMessage(check, fmt.Sprintf("%s: expected exists=%v", check.Path, *check.Exists))
		}
		if !found {
			return ""
		}
	}

	if check.Equals != nil {
		if !found {
			return failureMessage(check, fmt.Sprintf("%s is not set", check.Path))
		}
		if !looseEqual(value, check.Equals) {
			return failureMessage(check, fmt.Sprintf("%s: expected %v, got %v", check.Path, check.Equals, value))
		}
	}

	if len(check.OneOf) > 0 {
		if !found {
			return failureMessage(check, fmt.Sprintf("%s is not set", check.Path))
		}
		for _, candidate := range check.OneOf {
			if looseEqual(value, candidate) {
				return ""
			}
		}
		return failureMessage(check, fmt.Sprintf("%s: %v is not one of the allowed values", check.Path, value))
	}

	if check.Exists == nil && check.Equals == nil && len(check.OneOf) == 0 && !found {
		return failureMessage(check, fmt.Sprintf("%s is not set", check.Path))
	}
	return ""
}

func failureMessage(check Check, fallback string) string {
	if check.Message != "" {
		return check.Message
	}
	return fallback
}

// lookupPath walks "A.B.C" through nested maps.
func lookupPath(config map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = config
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func looseEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
