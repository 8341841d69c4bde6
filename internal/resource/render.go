package resource

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Render produces the caller-facing text for a descriptor, before execution
// (result nil, a preview ending in a confirmation prompt) or after it. It is
// a pure function: rendering the same arguments twice yields identical text,
// so polling loops can re-render as the result evolves.
func Render(cfg Config, result *OperationResult) string {
	if cfg.IsError() {
		return fmt.Sprintf("I couldn't process your request. %s. Please provide more information.", cfg.Err)
	}

	if result == nil {
		return renderPreview(cfg)
	}

	// A failure is terminal whatever the operation was.
	if result.OperationStatus == StatusFailed {
		errorCode := result.ErrorCode
		if errorCode == "" {
			errorCode = "Unknown"
		}
		statusMessage := result.StatusMessage
		if statusMessage == "" {
			statusMessage = "No additional information available"
		}
		return fmt.Sprintf("The %s operation for %s failed with error code '%s'. %s",
			cfg.Operation, cfg.TypeName, errorCode, statusMessage)
	}

	return renderOutcome(cfg, result)
}

func renderPreview(cfg Config) string {
	switch cfg.Operation {
	case "CREATE":
		pairs := make([]string, 0, len(cfg.DesiredState))
		for _, kv := range cfg.DesiredState {
			pairs = append(pairs, fmt.Sprintf("%s: %v", kv.Key, kv.Value))
		}
		return fmt.Sprintf("I'll create a new %s resource with the following properties: %s. Would you like me to proceed?",
			cfg.TypeName, strings.Join(pairs, ", "))
	case "GET":
		return fmt.Sprintf("I'll retrieve the %s resource with identifier '%s'. Would you like me to proceed?",
			cfg.TypeName, cfg.Identifier)
	case "LIST":
		return fmt.Sprintf("I'll list all %s resources. Would you like me to proceed?", cfg.TypeName)
	case "UPDATE":
		changes := make([]string, 0, len(cfg.PatchDocument))
		for _, patch := range cfg.PatchDocument {
			changes = append(changes, fmt.Sprintf("%s: %v", strings.TrimPrefix(patch.Path, "/"), patch.Value))
		}
		return fmt.Sprintf("I'll update the %s resource with identifier '%s' with the following changes: %s. Would you like me to proceed?",
			cfg.TypeName, cfg.Identifier, strings.Join(changes, ", "))
	case "DELETE":
		return fmt.Sprintf("I'll delete the %s resource with identifier '%s'. Would you like me to proceed?",
			cfg.TypeName, cfg.Identifier)
	case "VALIDATE":
		keys := make([]string, 0, len(cfg.Configuration))
		for key := range cfg.Configuration {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %v", key, cfg.Configuration[key]))
		}
		return fmt.Sprintf("I'll validate a %s configuration with the following properties: %s. Would you like me to proceed?",
			cfg.TypeName, strings.Join(pairs, ", "))
	}
	return fallbackMessage
}

func renderOutcome(cfg Config, result *OperationResult) string {
	switch cfg.Operation {
	case "CREATE":
		if result.Identifier != "" {
			return fmt.Sprintf("I've started creating a new %s resource with identifier '%s'. You can check the status using the request token: %s",
				cfg.TypeName, result.Identifier, result.RequestToken)
		}
		return fmt.Sprintf("I've started creating a new %s resource. You can check the status using the request token: %s",
			cfg.TypeName, result.RequestToken)
	case "GET":
		pretty, err := json.MarshalIndent(result.Properties, "", "  ")
		if err != nil {
			pretty = []byte("{}")
		}
		return fmt.Sprintf("Here are the details of the %s resource:\n%s", cfg.TypeName, pretty)
	case "LIST":
		if len(result.Resources) == 0 {
			return fmt.Sprintf("No %s resources found.", cfg.TypeName)
		}
		lines := make([]string, 0, len(result.Resources))
		for _, desc := range result.Resources {
			lines = append(lines, "- "+desc.Identifier)
		}
		return fmt.Sprintf("I found %d %s resources:\n%s", len(result.Resources), cfg.TypeName, strings.Join(lines, "\n"))
	case "UPDATE":
		return fmt.Sprintf("I've started updating the %s resource with identifier '%s'. You can check the status using the request token: %s",
			cfg.TypeName, result.Identifier, result.RequestToken)
	case "DELETE":
		return fmt.Sprintf("I've started deleting the %s resource with identifier '%s'. You can check the status using the request token: %s",
			cfg.TypeName, result.Identifier, result.RequestToken)
	case "VALIDATE":
		if result.StatusMessage != "" {
			return fmt.Sprintf("The %s configuration is valid. %s", cfg.TypeName, result.StatusMessage)
		}
		return fmt.Sprintf("The %s configuration is valid.", cfg.TypeName)
	}
	return fallbackMessage
}

// Used when a caller bypasses the parser and hands in an operation the
// renderer has no wording for.
const fallbackMessage = "I've processed your request, but I'm not sure how to describe the result."
