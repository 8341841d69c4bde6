// Package resource builds typed resource-operation descriptors from parsed
// requests and renders them (and their outcomes) back into text.
package resource

import (
	"cloudmcp/internal/nlp"
)

// PatchOp is one entry of an UPDATE patch document.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Config is the operation descriptor handed to the execution layer. It is a
// tagged variant keyed by Operation; Err marks the error variant, which
// keeps the parsed request for diagnostics. Every non-error variant carries
// a non-empty TypeName.
type Config struct {
	Operation     nlp.Operation      `json:"operation,omitempty"`
	TypeName      string             `json:"type_name,omitempty"`
	Identifier    string             `json:"identifier,omitempty"`
	DesiredState  nlp.Properties     `json:"desired_state,omitempty"`
	PatchDocument []PatchOp          `json:"patch_document,omitempty"`
	Configuration map[string]any     `json:"configuration,omitempty"`
	Err           string             `json:"error,omitempty"`
	Parsed        *nlp.ParsedRequest `json:"parsed_request,omitempty"`
}

func (c Config) IsError() bool {
	return c.Err != ""
}

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// Description is one resource in a LIST result.
type Description struct {
	Identifier string         `json:"identifier"`
	Properties map[string]any `json:"properties,omitempty"`
}

// OperationResult is what the execution layer reports back. The renderer
// treats it as read-only.
type OperationResult struct {
	Operation       nlp.Operation `json:"operation"`
	OperationStatus Status        `json:"operation_status"`
	TypeName        string        `json:"type_name"`
	Identifier      string        `json:"identifier,omitempty"`
	RequestToken    string        `json:"request_token,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
	Resources       []Description  `json:"resources,omitempty"`
	ErrorCode       string         `json:"error_code,omitempty"`
	StatusMessage   string         `json:"status_message,omitempty"`
}
