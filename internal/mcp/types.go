package mcp

import "encoding/json"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type Response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  any            `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ResourceReadParams struct {
	URI string `json:"uri"`
}

func ListTools() map[string]any {
	return map[string]any{
		"tools": []map[string]any{
			{"name": "process_request", "description": "Interpret a natural-language request and preview or execute it"},
			{"name": "parse_request", "description": "Parse a natural-language request without executing it"},
			{"name": "create_resource", "description": "Create a resource from a desired state"},
			{"name": "get_resource", "description": "Fetch a resource by identifier"},
			{"name": "list_resources", "description": "List resources of a type"},
			{"name": "update_resource", "description": "Apply a patch document to a resource"},
			{"name": "delete_resource", "description": "Delete a resource by identifier"},
			{"name": "get_request_status", "description": "Poll an asynchronous operation by request token"},
			{"name": "validate_resource", "description": "Validate a configuration against the type's schema"},
			{"name": "get_schema", "description": "Fetch the schema document for a resource type"},
			{"name": "list_resource_types", "description": "List or search known resource types"},
			{"name": "generate_template", "description": "Generate a starter configuration for a resource type"},
			{"name": "check_policy", "description": "Evaluate a configuration against compliance rules"},
			{"name": "list_rules", "description": "List stored compliance rules"},
			{"name": "get_rule", "description": "Fetch a compliance rule"},
			{"name": "put_rule", "description": "Create or replace a compliance rule"},
			{"name": "delete_rule", "description": "Delete a compliance rule"},
			{"name": "list_operations", "description": "List recorded resource operations"},
		},
	}
}

func ListResources() map[string]any {
	return map[string]any{
		"resources": []map[string]any{
			{"uri": "cloud://types", "description": "Known resource types"},
			{"uri": "cloud://rules", "description": "Stored compliance rules"},
			{"uri": "cloud://schemas/{type_name}", "description": "Schema document for a resource type"},
		},
	}
}
