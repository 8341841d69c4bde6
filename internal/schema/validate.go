package schema

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate checks required-property presence first, then compiles the full
// schema document and validates the configuration against it.
func (r *Registry) Validate(ctx context.Context, typeName string, config map[string]any) (ValidationResult, error) {
	doc, err := r.Get(ctx, typeName)
	if err != nil {
		return ValidationResult{}, err
	}

	if res := CheckRequired(doc.Required, config); !res.Valid {
		return res, nil
	}

	compiler := jsonschema.NewCompiler()
	resource := fileName(typeName)
	if err := compiler.AddResource(resource, bytes.NewReader(doc.raw)); err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}, nil
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}, nil
	}
	if err := compiled.Validate(normalize(config)); err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}, nil
	}
	return ValidationResult{Valid: true}, nil
}

// normalize round-trips the configuration through JSON; the validator only
// accepts the types encoding/json decodes to.
func normalize(config map[string]any) any {
	data, err := json.Marshal(config)
	if err != nil {
		return config
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return config
	}
	return out
}
