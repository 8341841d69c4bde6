// Package httpapi exposes the tool surface as a plain REST API alongside
// the MCP endpoint, for callers that do not speak JSON-RPC.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cloudmcp/internal/config"
	"cloudmcp/internal/resource"
	"cloudmcp/internal/rules"
	"cloudmcp/internal/schema"
	"cloudmcp/internal/tools"
)

type Handler struct {
	Config config.Config
	Tools  *tools.Service
}

func NewHandler(cfg config.Config, toolsSvc *tools.Service) *Handler {
	return &Handler{Config: cfg, Tools: toolsSvc}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/resources", h.cors(h.handleResources))
	mux.HandleFunc("/v1/resources/", h.cors(h.handleResourceSubtree))
	mux.HandleFunc("/v1/nl/resources", h.cors(h.handleNaturalLanguage))
	mux.HandleFunc("/v1/schemas", h.cors(h.handleListSchemas))
	mux.HandleFunc("/v1/schemas/", h.cors(h.handleSchemaSubtree))
	mux.HandleFunc("/v1/templates/", h.cors(h.handleTemplate))
	mux.HandleFunc("/v1/rules", h.cors(h.handleListRules))
	mux.HandleFunc("/v1/rules/", h.cors(h.handleRule))
	mux.HandleFunc("/v1/validate", h.cors(h.handleValidate))
	mux.HandleFunc("/v1/operations", h.cors(h.handleOperations))
}

// handleResources covers the collection: POST creates, PATCH updates and
// DELETE deletes, each addressed by the request body.
func (h *Handler) handleResources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			TypeName     string         `json:"type_name"`
			DesiredState map[string]any `json:"desired_state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		out, err := h.Tools.CreateResource(r.Context(), req.TypeName, req.DesiredState)
		h.respond(w, out, err)
	case http.MethodPatch:
		var req struct {
			TypeName      string             `json:"type_name"`
			Identifier    string             `json:"identifier"`
			PatchDocument []resource.PatchOp `json:"patch_document"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		out, err := h.Tools.UpdateResource(r.Context(), req.TypeName, req.Identifier, req.PatchDocument)
		h.respond(w, out, err)
	case http.MethodDelete:
		var req struct {
			TypeName   string `json:"type_name"`
			Identifier string `json:"identifier"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		out, err := h.Tools.DeleteResource(r.Context(), req.TypeName, req.Identifier)
		h.respond(w, out, err)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleResourceSubtree routes /v1/resources/status/{token},
// /v1/resources/{type} and /v1/resources/{type}/{id}.
func (h *Handler) handleResourceSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/resources/")
	if token := strings.TrimPrefix(rest, "status/"); token != rest {
		out, err := h.Tools.RequestStatus(r.Context(), token)
		h.respond(w, out, err)
		return
	}
	typeName, identifier := splitTwo(rest)
	if typeName == "" {
		http.Error(w, "missing resource type", http.StatusBadRequest)
		return
	}
	if identifier == "" {
		out, err := h.Tools.ListResources(r.Context(), typeName)
		h.respond(w, out, err)
		return
	}
	out, err := h.Tools.GetResource(r.Context(), typeName, identifier)
	h.respond(w, out, err)
}

func (h *Handler) handleNaturalLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text    string `json:"text"`
		Execute bool   `json:"execute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}
	out, err := h.Tools.ProcessText(r.Context(), req.Text, req.Execute)
	h.respond(w, out, err)
}

func (h *Handler) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out, err := h.Tools.ListResourceTypes(r.Context(), r.URL.Query().Get("query"))
	h.respond(w, out, err)
}

// handleSchemaSubtree routes POST /v1/schemas/fetch and GET
// /v1/schemas/{type}.
func (h *Handler) handleSchemaSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/schemas/")
	if rest == "fetch" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		out, err := h.Tools.FetchSchemas(r.Context())
		h.respond(w, out, err)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out, err := h.Tools.GetSchema(r.Context(), rest)
	h.respond(w, out, err)
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	typeName := strings.TrimPrefix(r.URL.Path, "/v1/templates/")
	includeOptional, _ := strconv.ParseBool(r.URL.Query().Get("include_optional"))
	out, err := h.Tools.GenerateTemplate(r.Context(), typeName, includeOptional)
	h.respond(w, out, err)
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out, err := h.Tools.ListRules(r.Context())
	h.respond(w, out, err)
}

func (h *Handler) handleRule(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/v1/rules/")
	switch r.Method {
	case http.MethodGet:
		out, err := h.Tools.GetRule(r.Context(), name)
		h.respond(w, out, err)
	case http.MethodPut:
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		out, err := h.Tools.PutRule(r.Context(), name, req.Content)
		h.respond(w, out, err)
	case http.MethodDelete:
		out, err := h.Tools.DeleteRule(r.Context(), name)
		h.respond(w, out, err)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TypeName      string         `json:"type_name"`
		Configuration map[string]any `json:"configuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	out, err := h.Tools.ValidateResource(r.Context(), req.TypeName, req.Configuration)
	h.respond(w, out, err)
}

func (h *Handler) handleOperations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.Tools.ListOperations(r.Context(), r.URL.Query().Get("type_name"), limit)
	h.respond(w, out, err)
}

func (h *Handler) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrSchemaNotFound), errors.Is(err, rules.ErrRuleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// cors allows browser callers per the configured origin list; Dev.Mode
// allows everything.
func (h *Handler) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (h *Handler) originAllowed(origin string) bool {
	if h.Config.Dev.Mode || len(h.Config.MCP.AllowOrigins) == 0 {
		return true
	}
	for _, allowed := range h.Config.MCP.AllowOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// splitTwo separates "type/id" into its parts; id may be empty.
func splitTwo(path string) (string, string) {
	if idx := strings.Index(path, "/"); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
