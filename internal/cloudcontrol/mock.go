package cloudcontrol

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cloudmcp/internal/nlp"
	"cloudmcp/internal/resource"
)

// Mock is an in-memory executor for dev mode and tests. Mutations return
// IN_PROGRESS with a request token; the first status poll (and every one
// after it) reports SUCCESS, which exercises the same polling path as the
// real backend.
type Mock struct {
	mu        sync.Mutex
	resources map[string]map[string]map[string]any
	tokens    map[string]resource.OperationResult
}

func NewMock() *Mock {
	return &Mock{
		resources: make(map[string]map[string]map[string]any),
		tokens:    make(map[string]resource.OperationResult),
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Execute(_ context.Context, cfg resource.Config) (resource.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch cfg.Operation {
	case nlp.OpCreate:
		return m.create(cfg), nil
	case nlp.OpGet:
		return m.get(cfg), nil
	case nlp.OpList:
		return m.list(cfg), nil
	case nlp.OpUpdate:
		return m.update(cfg), nil
	case nlp.OpDelete:
		return m.delete(cfg), nil
	default:
		return resource.OperationResult{}, fmt.Errorf("operation %s is not executable", cfg.Operation)
	}
}

func (m *Mock) Status(_ context.Context, requestToken string) (resource.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.tokens[requestToken]
	if !ok {
		return resource.OperationResult{}, fmt.Errorf("unknown request token: %s", requestToken)
	}
	result.OperationStatus = resource.StatusSuccess
	m.tokens[requestToken] = result
	return result, nil
}

func (m *Mock) create(cfg resource.Config) resource.OperationResult {
	state := cfg.DesiredState.Map()
	identifier := pickIdentifier(cfg.DesiredState)
	if identifier == "" {
		identifier = uuid.NewString()
	}
	if m.resources[cfg.TypeName] == nil {
		m.resources[cfg.TypeName] = make(map[string]map[string]any)
	}
	if _, exists := m.resources[cfg.TypeName][identifier]; exists {
		return m.failed(cfg, "AlreadyExists", fmt.Sprintf("resource %s already exists", identifier))
	}
	m.resources[cfg.TypeName][identifier] = state
	return m.pending(cfg, identifier)
}

func (m *Mock) get(cfg resource.Config) resource.OperationResult {
	props, ok := m.resources[cfg.TypeName][cfg.Identifier]
	if !ok {
		return m.failed(cfg, "NotFound", fmt.Sprintf("resource %s was not found", cfg.Identifier))
	}
	return resource.OperationResult{
		Operation:       nlp.OpGet,
		OperationStatus: resource.StatusSuccess,
		TypeName:        cfg.TypeName,
		Identifier:      cfg.Identifier,
		Properties:      props,
	}
}

func (m *Mock) list(cfg resource.Config) resource.OperationResult {
	byID := m.resources[cfg.TypeName]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	resources := make([]resource.Description, 0, len(ids))
	for _, id := range ids {
		resources = append(resources, resource.Description{Identifier: id, Properties: byID[id]})
	}
	return resource.OperationResult{
		Operation:       nlp.OpList,
		OperationStatus: resource.StatusSuccess,
		TypeName:        cfg.TypeName,
		Resources:       resources,
	}
}

func (m *Mock) update(cfg resource.Config) resource.OperationResult {
	props, ok := m.resources[cfg.TypeName][cfg.Identifier]
	if !ok {
		return m.failed(cfg, "NotFound", fmt.Sprintf("resource %s was not found", cfg.Identifier))
	}
	for _, patch := range cfg.PatchDocument {
		props[strings.TrimPrefix(patch.Path, "/")] = patch.Value
	}
	return m.pending(cfg, cfg.Identifier)
}

func (m *Mock) delete(cfg resource.Config) resource.OperationResult {
	if _, ok := m.resources[cfg.TypeName][cfg.Identifier]; !ok {
		return m.failed(cfg, "NotFound", fmt.Sprintf("resource %s was not found", cfg.Identifier))
	}
	delete(m.resources[cfg.TypeName], cfg.Identifier)
	return m.pending(cfg, cfg.Identifier)
}

func (m *Mock) pending(cfg resource.Config, identifier string) resource.OperationResult {
	result := resource.OperationResult{
		Operation:       cfg.Operation,
		OperationStatus: resource.StatusInProgress,
		TypeName:        cfg.TypeName,
		Identifier:      identifier,
		RequestToken:    uuid.NewString(),
	}
	m.tokens[result.RequestToken] = result
	return result
}

func (m *Mock) failed(cfg resource.Config, code string, message string) resource.OperationResult {
	return resource.OperationResult{
		Operation:       cfg.Operation,
		OperationStatus: resource.StatusFailed,
		TypeName:        cfg.TypeName,
		Identifier:      cfg.Identifier,
		ErrorCode:       code,
		StatusMessage:   message,
	}
}

// pickIdentifier guesses the primary identifier from the desired state: the
// first string-valued key ending in "Name", in insertion order.
func pickIdentifier(state nlp.Properties) string {
	for _, kv := range state {
		if !strings.HasSuffix(kv.Key, "Name") {
			continue
		}
		if val, ok := kv.Value.(string); ok && val != "" {
			return val
		}
	}
	return ""
}
