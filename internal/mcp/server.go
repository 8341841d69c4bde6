// Package mcp serves the tool surface over JSON-RPC, both as streamable
// HTTP (POST /mcp) and over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cloudmcp/internal/config"
	"cloudmcp/internal/resource"
	"cloudmcp/internal/tools"
)

type Server struct {
	Config   config.Config
	Tools    *tools.Service
	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewServer(cfg config.Config, toolsSvc *tools.Service) *Server {
	return &Server{Config: cfg, Tools: toolsSvc, sessions: make(map[string]time.Time)}
}

func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.validateOrigin(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	log.Printf("mcp request protocol_version=%q", strings.TrimSpace(r.Header.Get("MCP-Protocol-Version")))

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	sessionID := r.Header.Get("MCP-Session-Id")
	if req.Method != "initialize" {
		if !s.isSessionValid(sessionID) {
			writeError(w, req.ID, -32000, "missing or invalid MCP-Session-Id")
			return
		}
	}
	result, err := s.dispatch(r.Context(), req)
	if err != nil {
		writeError(w, req.ID, -32000, err.Error())
		return
	}
	if req.Method == "initialize" {
		if sessionID == "" {
			sessionID = s.newSession()
		}
		w.Header().Set("MCP-Session-Id", sessionID)
	}
	w.Header().Set("MCP-Protocol-Version", s.Config.MCP.ProtocolVersion)
	w.Header().Set("Content-Type", "application/json")
	resp := Response{JSONRPC: "2.0", ID: req.ID, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) HandleSSEStub(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotImplemented)
	_, _ = w.Write([]byte("SSE not supported; use POST /mcp"))
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": s.Config.MCP.ProtocolVersion,
			"serverInfo": map[string]any{
				"name":    "cloudmcpd",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools":     true,
				"resources": true,
			},
		}, nil
	case "tools/list":
		return ListTools(), nil
	case "tools/call":
		return s.callTool(ctx, req)
	case "resources/list":
		return ListResources(), nil
	case "resources/read":
		return s.readResource(ctx, req)
	default:
		return nil, fmt.Errorf("unknown method: %s", req.Method)
	}
}

func (s *Server) callTool(ctx context.Context, req Request) (any, error) {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	exec, err := s.toolExecutor(params)
	if err != nil {
		return nil, err
	}
	return exec(ctx)
}

func (s *Server) toolExecutor(params ToolCallParams) (func(context.Context) (any, error), error) {
	switch params.Name {
	case "process_request":
		var input struct {
			Text    string `json:"text"`
			Execute bool   `json:"execute"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ProcessText(ctx, input.Text, input.Execute)
		}, nil
	case "parse_request":
		var input struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ParseText(ctx, input.Text)
		}, nil
	case "create_resource":
		var input struct {
			TypeName     string         `json:"type_name"`
			DesiredState map[string]any `json:"desired_state"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.CreateResource(ctx, input.TypeName, input.DesiredState)
		}, nil
	case "get_resource":
		var input struct {
			TypeName   string `json:"type_name"`
			Identifier string `json:"identifier"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.GetResource(ctx, input.TypeName, input.Identifier)
		}, nil
	case "list_resources":
		var input struct {
			TypeName string `json:"type_name"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ListResources(ctx, input.TypeName)
		}, nil
	case "update_resource":
		var input struct {
			TypeName      string             `json:"type_name"`
			Identifier    string             `json:"identifier"`
			PatchDocument []resource.PatchOp `json:"patch_document"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.UpdateResource(ctx, input.TypeName, input.Identifier, input.PatchDocument)
		}, nil
	case "delete_resource":
		var input struct {
			TypeName   string `json:"type_name"`
			Identifier string `json:"identifier"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.DeleteResource(ctx, input.TypeName, input.Identifier)
		}, nil
	case "get_request_status":
		var input struct {
			RequestToken string `json:"request_token"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.RequestStatus(ctx, input.RequestToken)
		}, nil
	case "validate_resource":
		var input struct {
			TypeName      string         `json:"type_name"`
			Configuration map[string]any `json:"configuration"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ValidateResource(ctx, input.TypeName, input.Configuration)
		}, nil
	case "get_schema":
		var input struct {
			TypeName string `json:"type_name"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.GetSchema(ctx, input.TypeName)
		}, nil
	case "list_resource_types":
		var input struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ListResourceTypes(ctx, input.Query)
		}, nil
	case "generate_template":
		var input struct {
			TypeName        string `json:"type_name"`
			IncludeOptional bool   `json:"include_optional"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.GenerateTemplate(ctx, input.TypeName, input.IncludeOptional)
		}, nil
	case "check_policy":
		var input struct {
			TypeName      string         `json:"type_name"`
			Configuration map[string]any `json:"configuration"`
			Rules         []string       `json:"rules"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.CheckPolicy(ctx, input.TypeName, input.Configuration, input.Rules)
		}, nil
	case "list_rules":
		return func(ctx context.Context) (any, error) {
			return s.Tools.ListRules(ctx)
		}, nil
	case "get_rule":
		var input struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.GetRule(ctx, input.Name)
		}, nil
	case "put_rule":
		var input struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.PutRule(ctx, input.Name, input.Content)
		}, nil
	case "delete_rule":
		var input struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.DeleteRule(ctx, input.Name)
		}, nil
	case "list_operations":
		var input struct {
			TypeName string `json:"type_name"`
			Limit    int    `json:"limit"`
		}
		if err := json.Unmarshal(params.Arguments, &input); err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return s.Tools.ListOperations(ctx, input.TypeName, input.Limit)
		}, nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", params.Name)
	}
}

func (s *Server) readResource(ctx context.Context, req Request) (any, error) {
	var params ResourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	switch {
	case params.URI == "cloud://types":
		return s.Tools.ListResourceTypes(ctx, "")
	case params.URI == "cloud://rules":
		return s.Tools.ListRules(ctx)
	case strings.HasPrefix(params.URI, "cloud://schemas/"):
		typeName := strings.TrimPrefix(params.URI, "cloud://schemas/")
		return s.Tools.GetSchema(ctx, typeName)
	default:
		return nil, fmt.Errorf("resource not found: %s", params.URI)
	}
}

func (s *Server) validateOrigin(r *http.Request) error {
	origin := r.Header.Get("Origin")
	if s.Config.Dev.Mode {
		return nil
	}
	if origin == "" {
		if s.Config.Security.APIKey == "" {
			return errors.New("missing origin")
		}
		if r.Header.Get("X-API-Key") != s.Config.Security.APIKey {
			return errors.New("invalid api key")
		}
		return nil
	}
	if len(s.Config.MCP.AllowOrigins) == 0 {
		return nil
	}
	for _, allowed := range s.Config.MCP.AllowOrigins {
		if origin == allowed {
			return nil
		}
	}
	return errors.New("origin not allowed")
}

func (s *Server) newSession() string {
	sessionID := uuid.NewString()
	s.mu.Lock()
	s.sessions[sessionID] = time.Now().Add(24 * time.Hour)
	s.mu.Unlock()
	return sessionID
}

func (s *Server) isSessionValid(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	expiry, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return time.Now().Before(expiry)
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return errors.New("missing params")
	}
	return json.Unmarshal(raw, out)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ResponseError{Code: code, Message: message},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
