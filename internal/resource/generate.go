package resource

import (
	"context"
	"fmt"
	"strings"

	"cloudmcp/internal/nlp"
	"cloudmcp/internal/schema"
)

// Generator turns a ParsedRequest into a Config. Schemas is optional: with
// it the generator places the resource name under the type's identifier
// property, enforces required properties and runs full schema validation;
// without it CREATE falls back to a generic "Name" key and skips both checks.
type Generator struct {
	Schemas schema.Provider
}

func NewGenerator(schemas schema.Provider) *Generator {
	return &Generator{Schemas: schemas}
}

// Generation failures are returned as the error Config variant so the
// renderer can always produce caller-facing text; nothing here panics or
// escapes the parse/build/render boundary.
func errConfig(message string, parsed nlp.ParsedRequest) Config {
	return Config{Err: message, Parsed: &parsed}
}

func (g *Generator) Build(ctx context.Context, parsed nlp.ParsedRequest) Config {
	if parsed.Operation == "" {
		return errConfig("Operation not specified or could not be determined", parsed)
	}
	if parsed.ResourceType == "" {
		return errConfig("Resource type not specified or could not be determined", parsed)
	}

	switch parsed.Operation {
	case nlp.OpCreate:
		return g.buildCreate(ctx, parsed)
	case nlp.OpGet, nlp.OpDelete:
		if parsed.Identifier == "" {
			return errConfig(fmt.Sprintf("Identifier is required for %s operation", parsed.Operation), parsed)
		}
		return Config{Operation: parsed.Operation, TypeName: parsed.ResourceType, Identifier: parsed.Identifier}
	case nlp.OpList:
		return Config{Operation: nlp.OpList, TypeName: parsed.ResourceType}
	case nlp.OpUpdate:
		return buildUpdate(parsed)
	case nlp.OpValidate:
		return g.buildValidate(ctx, parsed)
	default:
		return errConfig(fmt.Sprintf("Unrecognized operation: %s", parsed.Operation), parsed)
	}
}

func (g *Generator) buildCreate(ctx context.Context, parsed nlp.ParsedRequest) Config {
	var desired nlp.Properties

	if parsed.ResourceName != "" {
		desired.Set(g.identifierKey(ctx, parsed.ResourceType), parsed.ResourceName)
	}
	for _, kv := range parsed.Properties {
		desired.Set(kv.Key, kv.Value)
	}

	if g.Schemas != nil {
		required, err := g.Schemas.RequiredProperties(ctx, parsed.ResourceType)
		if err != nil {
			return errConfig(fmt.Sprintf("Schema unavailable for %s: %v", parsed.ResourceType, err), parsed)
		}
		if res := schema.CheckRequired(required, desired.Map()); !res.Valid {
			return errConfig(strings.Join(res.Errors, "; "), parsed)
		}
		res, err := g.Schemas.Validate(ctx, parsed.ResourceType, desired.Map())
		if err != nil {
			return errConfig(fmt.Sprintf("Schema unavailable for %s: %v", parsed.ResourceType, err), parsed)
		}
		if !res.Valid {
			return errConfig(strings.Join(res.Errors, "; "), parsed)
		}
	}

	return Config{Operation: nlp.OpCreate, TypeName: parsed.ResourceType, DesiredState: desired}
}

// identifierKey resolves the conventional key for a resource's name, e.g.
// BucketName for AWS::S3::Bucket. "Name" is the generic fallback when no
// schema metadata is available.
func (g *Generator) identifierKey(ctx context.Context, typeName string) string {
	if g.Schemas == nil {
		return "Name"
	}
	key, err := g.Schemas.IdentifierProperty(ctx, typeName)
	if err != nil || key == "" {
		return "Name"
	}
	return key
}

func buildUpdate(parsed nlp.ParsedRequest) Config {
	if parsed.Identifier == "" {
		return errConfig("Identifier is required for UPDATE operation", parsed)
	}
	if len(parsed.Properties) == 0 {
		return errConfig("No properties specified for UPDATE operation", parsed)
	}
	patch := make([]PatchOp, 0, len(parsed.Properties))
	for _, kv := range parsed.Properties {
		patch = append(patch, PatchOp{Op: "replace", Path: "/" + kv.Key, Value: kv.Value})
	}
	return Config{
		Operation:     nlp.OpUpdate,
		TypeName:      parsed.ResourceType,
		Identifier:    parsed.Identifier,
		PatchDocument: patch,
	}
}

// buildValidate validates whatever was extracted; with no properties at all
// it validates a fully synthesized template instead, so "validate a default
// bucket" works without spelling out every field.
func (g *Generator) buildValidate(ctx context.Context, parsed nlp.ParsedRequest) Config {
	configuration := parsed.Properties.Map()
	if len(configuration) == 0 && g.Schemas != nil {
		template, err := g.Schemas.Template(ctx, parsed.ResourceType, true)
		if err != nil {
			return errConfig(fmt.Sprintf("Schema unavailable for %s: %v", parsed.ResourceType, err), parsed)
		}
		configuration = template
	}
	return Config{Operation: nlp.OpValidate, TypeName: parsed.ResourceType, Configuration: configuration}
}
