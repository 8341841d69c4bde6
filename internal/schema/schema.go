// Package schema supplies resource provider schema metadata: property types,
// required properties, the primary identifier, template synthesis and
// configuration validation.
package schema

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is what the config generator and tool service depend on. A
// missing schema is a recoverable condition: implementations fetch on
// demand and return an error only when that fails.
type Provider interface {
	PropertyTypes(ctx context.Context, typeName string) (map[string]*PropertySpec, error)
	RequiredProperties(ctx context.Context, typeName string) ([]string, error)
	IdentifierProperty(ctx context.Context, typeName string) (string, error)
	Validate(ctx context.Context, typeName string, config map[string]any) (ValidationResult, error)
	Template(ctx context.Context, typeName string, includeOptional bool) (map[string]any, error)
}

// PropertySpec is the subset of JSON Schema the template generator and
// validator care about.
type PropertySpec struct {
	Type       string                   `json:"type,omitempty"`
	Default    any                      `json:"default,omitempty"`
	Enum       []any                    `json:"enum,omitempty"`
	Minimum    *float64                 `json:"minimum,omitempty"`
	Items      *PropertySpec            `json:"items,omitempty"`
	Properties map[string]*PropertySpec `json:"properties,omitempty"`
	Required   []string                 `json:"required,omitempty"`
}

// Document is a parsed resource provider schema, e.g. the registry document
// for AWS::S3::Bucket.
type Document struct {
	TypeName          string                   `json:"typeName"`
	Description       string                   `json:"description,omitempty"`
	Properties        map[string]*PropertySpec `json:"properties"`
	Required          []string                 `json:"required,omitempty"`
	PrimaryIdentifier []string                 `json:"primaryIdentifier,omitempty"`

	raw []byte
}

func ParseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc.raw = raw
	return &doc, nil
}

// IdentifierProperty returns the schema-declared primary identifier with the
// "/properties/" pointer prefix stripped, or "" when the schema declares none.
func (d *Document) IdentifierProperty() string {
	if len(d.PrimaryIdentifier) == 0 {
		return ""
	}
	return strings.TrimPrefix(d.PrimaryIdentifier[0], "/properties/")
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// CheckRequired reports whether every required property is a key of config.
// Missing names are listed comma-joined in declared order.
func CheckRequired(required []string, config map[string]any) ValidationResult {
	var missing []string
	for _, name := range required {
		if _, ok := config[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{
		Valid:  false,
		Errors: []string{"Missing required properties: " + strings.Join(missing, ", ")},
	}
}
