package schema

import "context"

// maxTemplateDepth guards against pathological self-referential schemas;
// real resource schemas are tree-shaped.
const maxTemplateDepth = 8

// Template synthesizes a starter configuration for a resource type:
// required properties always, optional ones when includeOptional is set.
func (r *Registry) Template(ctx context.Context, typeName string, includeOptional bool) (map[string]any, error) {
	doc, err := r.Get(ctx, typeName)
	if err != nil {
		return nil, err
	}
	template := make(map[string]any)
	for name, spec := range doc.Properties {
		if !includeOptional && !containsString(doc.Required, name) {
			continue
		}
		template[name] = synthesizeValue(spec, 0)
	}
	return template, nil
}

func synthesizeValue(spec *PropertySpec, depth int) any {
	if spec == nil || depth > maxTemplateDepth {
		return nil
	}
	switch spec.Type {
	case "string":
		if spec.Default != nil {
			return spec.Default
		}
		if len(spec.Enum) > 0 {
			return spec.Enum[0]
		}
		return "example-value"
	case "integer", "number":
		if spec.Default != nil {
			return spec.Default
		}
		if spec.Minimum != nil {
			return *spec.Minimum
		}
		return 0
	case "boolean":
		if spec.Default != nil {
			return spec.Default
		}
		return false
	case "array":
		if spec.Items != nil && spec.Items.Type != "" {
			return []any{synthesizeValue(spec.Items, depth+1)}
		}
		return []any{}
	case "object":
		obj := make(map[string]any)
		for name, sub := range spec.Properties {
			if containsString(spec.Required, name) {
				obj[name] = synthesizeValue(sub, depth+1)
			}
		}
		return obj
	default:
		return nil
	}
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
