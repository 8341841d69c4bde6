package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloudmcp/internal/cloudcontrol"
	"cloudmcp/internal/config"
	"cloudmcp/internal/rules"
	"cloudmcp/internal/schema"
	"cloudmcp/internal/tools"
)

const testBucketSchema = `{
  "typeName": "AWS::S3::Bucket",
  "type": "object",
  "primaryIdentifier": ["/properties/BucketName"],
  "properties": {
    "BucketName": {"type": "string"},
    "VersioningConfiguration": {
      "type": "object",
      "properties": {"Status": {"type": "string", "enum": ["Enabled", "Suspended"]}}
    }
  }
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	schemaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(schemaDir, "AWS_S3_Bucket.json"), []byte(testBucketSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	ruleStore, err := rules.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("rule store: %v", err)
	}

	cfg := config.Default()
	cfg.Schema.Dir = schemaDir
	registry := schema.NewRegistry(schemaDir, "", nil)
	toolSvc := tools.NewService(cfg, registry, ruleStore, cloudcontrol.NewMock(), nil)
	return NewServer(cfg, toolSvc)
}

func postMCP(t *testing.T, srv *Server, payload map[string]any, session string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("MCP-Session-Id", session)
	}
	rec := httptest.NewRecorder()
	srv.HandleHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestInitializeIssuesSession(t *testing.T) {
	srv := newTestServer(t)
	rec, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{},
	}, "")

	if resp.Error != nil {
		t.Fatalf("initialize error: %+v", resp.Error)
	}
	if rec.Header().Get("MCP-Session-Id") == "" {
		t.Fatalf("initialize must issue a session id")
	}
	if rec.Header().Get("MCP-Protocol-Version") != srv.Config.MCP.ProtocolVersion {
		t.Fatalf("protocol version header missing")
	}
}

func TestToolCallRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "tools/list", "params": map[string]any{},
	}, "")
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "MCP-Session-Id") {
		t.Fatalf("expected session error, got %+v", resp.Error)
	}
}

func initSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec, _ := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{},
	}, "")
	return rec.Header().Get("MCP-Session-Id")
}

func TestToolsListNamesProcessRequest(t *testing.T) {
	srv := newTestServer(t)
	session := initSession(t, srv)

	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "tools/list", "params": map[string]any{},
	}, session)
	if resp.Error != nil {
		t.Fatalf("tools/list error: %+v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	for _, name := range []string{"process_request", "validate_resource", "check_policy"} {
		if !strings.Contains(string(data), name) {
			t.Fatalf("tools/list missing %s: %s", name, data)
		}
	}
}

func TestProcessRequestPreviewOverMCP(t *testing.T) {
	srv := newTestServer(t)
	session := initSession(t, srv)

	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 3, "method": "tools/call",
		"params": map[string]any{
			"name": "process_request",
			"arguments": map[string]any{
				"text": "Create an S3 bucket with name 'my-test-bucket' and versioning enabled",
			},
		},
	}, session)
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]any)
	message := result["message"].(string)
	if !strings.Contains(message, "BucketName: my-test-bucket") {
		t.Fatalf("preview = %q", message)
	}
	if !strings.HasSuffix(message, "Would you like me to proceed?") {
		t.Fatalf("preview must end with the confirmation prompt: %q", message)
	}
	if _, executed := result["result"]; executed {
		t.Fatalf("preview must not carry an execution result")
	}
}

func TestProcessRequestExecuteOverMCP(t *testing.T) {
	srv := newTestServer(t)
	session := initSession(t, srv)

	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 4, "method": "tools/call",
		"params": map[string]any{
			"name": "process_request",
			"arguments": map[string]any{
				"text":    "Create an S3 bucket with name 'my-test-bucket'",
				"execute": true,
			},
		},
	}, session)
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]any)
	execution := result["result"].(map[string]any)
	token, _ := execution["request_token"].(string)
	if token == "" {
		t.Fatalf("execution result missing request token: %v", execution)
	}

	_, resp = postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 5, "method": "tools/call",
		"params": map[string]any{
			"name":      "get_request_status",
			"arguments": map[string]any{"request_token": token},
		},
	}, session)
	if resp.Error != nil {
		t.Fatalf("status error: %+v", resp.Error)
	}
	status := resp.Result.(map[string]any)["result"].(map[string]any)
	if status["operation_status"] != "SUCCESS" {
		t.Fatalf("polled status = %v", status["operation_status"])
	}
}

func TestUnknownToolAndMethod(t *testing.T) {
	srv := newTestServer(t)
	session := initSession(t, srv)

	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 6, "method": "tools/call",
		"params": map[string]any{"name": "no_such_tool", "arguments": map[string]any{}},
	}, session)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "unknown tool") {
		t.Fatalf("expected unknown tool error, got %+v", resp.Error)
	}

	_, resp = postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 7, "method": "bogus/method", "params": map[string]any{},
	}, session)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "unknown method") {
		t.Fatalf("expected unknown method error, got %+v", resp.Error)
	}
}

func TestResourcesReadSchemaURI(t *testing.T) {
	srv := newTestServer(t)
	session := initSession(t, srv)

	_, resp := postMCP(t, srv, map[string]any{
		"jsonrpc": "2.0", "id": 8, "method": "resources/read",
		"params": map[string]any{"uri": "cloud://schemas/AWS::S3::Bucket"},
	}, session)
	if resp.Error != nil {
		t.Fatalf("resources/read error: %+v", resp.Error)
	}
	doc := resp.Result.(map[string]any)
	if doc["typeName"] != "AWS::S3::Bucket" {
		t.Fatalf("doc = %v", doc)
	}
}

func TestOriginValidationOutsideDevMode(t *testing.T) {
	srv := newTestServer(t)
	srv.Config.Dev.Mode = false
	srv.Config.Security.APIKey = "secret"
	srv.Config.MCP.AllowOrigins = []string{"https://app.example.com"}

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	srv.HandleHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.HandleHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("api key request status = %d (%s)", rec.Code, rec.Body.String())
	}
}
