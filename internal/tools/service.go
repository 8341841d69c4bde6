// Package tools implements the operations exposed over MCP and HTTP:
// natural-language processing, direct resource CRUD, schema introspection,
// templates and policy rules.
package tools

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"cloudmcp/internal/cloudcontrol"
	"cloudmcp/internal/config"
	"cloudmcp/internal/nlp"
	"cloudmcp/internal/resource"
	"cloudmcp/internal/rules"
	"cloudmcp/internal/schema"
	"cloudmcp/internal/store"
)

type Service struct {
	Config    config.Config
	Registry  *schema.Registry
	Rules     *rules.Store
	Executor  cloudcontrol.Executor
	Store     *store.Store
	Generator *resource.Generator
}

func NewService(cfg config.Config, registry *schema.Registry, ruleStore *rules.Store, executor cloudcontrol.Executor, opStore *store.Store) *Service {
	return &Service{
		Config:    cfg,
		Registry:  registry,
		Rules:     ruleStore,
		Executor:  executor,
		Store:     opStore,
		Generator: resource.NewGenerator(registry),
	}
}

// ProcessText runs the full pipeline on a natural-language request. With
// execute false the response is a preview; with execute true the descriptor
// is handed to the executor and the outcome is rendered instead.
func (s *Service) ProcessText(ctx context.Context, text string, execute bool) (any, error) {
	parsed := nlp.Parse(text)
	cfg := s.Generator.Build(ctx, parsed)

	response := map[string]any{
		"parsed_request": parsed,
		"configuration":  cfg,
	}

	if cfg.IsError() || !execute {
		response["message"] = resource.Render(cfg, nil)
		return response, nil
	}

	result := s.execute(ctx, cfg, text)
	response["result"] = result
	response["message"] = resource.Render(cfg, &result)
	return response, nil
}

// ParseText exposes the parser on its own, for callers that want to inspect
// or correct the parse before generating a configuration.
func (s *Service) ParseText(_ context.Context, text string) (any, error) {
	return nlp.Parse(text), nil
}

// execute runs a descriptor and folds executor transport errors into a
// FAILED result so the renderer always has something to say.
func (s *Service) execute(ctx context.Context, cfg resource.Config, requestText string) resource.OperationResult {
	result, err := s.Executor.Execute(ctx, cfg)
	if err != nil {
		result = resource.OperationResult{
			Operation:       cfg.Operation,
			OperationStatus: resource.StatusFailed,
			TypeName:        cfg.TypeName,
			Identifier:      cfg.Identifier,
			ErrorCode:       "ExecutionError",
			StatusMessage:   err.Error(),
		}
	}
	s.recordOperation(ctx, cfg, result, requestText)
	return result
}

func (s *Service) recordOperation(ctx context.Context, cfg resource.Config, result resource.OperationResult, requestText string) {
	if s.Store == nil {
		return
	}
	_, err := s.Store.RecordOperation(ctx, store.OperationRecord{
		RequestToken:  result.RequestToken,
		Operation:     string(cfg.Operation),
		TypeName:      cfg.TypeName,
		Identifier:    result.Identifier,
		Status:        string(result.OperationStatus),
		ErrorCode:     result.ErrorCode,
		StatusMessage: result.StatusMessage,
		RequestText:   requestText,
	})
	if err != nil {
		log.Printf("tools: record operation failed: %v", err)
	}
}

func (s *Service) CreateResource(ctx context.Context, typeName string, desiredState map[string]any) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	var desired nlp.Properties
	for _, key := range sortedKeys(desiredState) {
		desired.Set(key, desiredState[key])
	}
	cfg := resource.Config{Operation: nlp.OpCreate, TypeName: typeName, DesiredState: desired}
	if required, err := s.Registry.RequiredProperties(ctx, typeName); err == nil {
		if res := schema.CheckRequired(required, desiredState); !res.Valid {
			return nil, errors.New(strings.Join(res.Errors, "; "))
		}
	}
	result := s.execute(ctx, cfg, "")
	return operationResponse(cfg, result), nil
}

func (s *Service) GetResource(ctx context.Context, typeName string, identifier string) (any, error) {
	if typeName == "" || identifier == "" {
		return nil, errors.New("missing type_name or identifier")
	}
	cfg := resource.Config{Operation: nlp.OpGet, TypeName: typeName, Identifier: identifier}
	result := s.execute(ctx, cfg, "")
	return operationResponse(cfg, result), nil
}

func (s *Service) ListResources(ctx context.Context, typeName string) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	cfg := resource.Config{Operation: nlp.OpList, TypeName: typeName}
	result := s.execute(ctx, cfg, "")
	return operationResponse(cfg, result), nil
}

func (s *Service) UpdateResource(ctx context.Context, typeName string, identifier string, patch []resource.PatchOp) (any, error) {
	if typeName == "" || identifier == "" {
		return nil, errors.New("missing type_name or identifier")
	}
	if len(patch) == 0 {
		return nil, errors.New("missing patch_document")
	}
	cfg := resource.Config{Operation: nlp.OpUpdate, TypeName: typeName, Identifier: identifier, PatchDocument: patch}
	result := s.execute(ctx, cfg, "")
	return operationResponse(cfg, result), nil
}

func (s *Service) DeleteResource(ctx context.Context, typeName string, identifier string) (any, error) {
	if typeName == "" || identifier == "" {
		return nil, errors.New("missing type_name or identifier")
	}
	cfg := resource.Config{Operation: nlp.OpDelete, TypeName: typeName, Identifier: identifier}
	result := s.execute(ctx, cfg, "")
	return operationResponse(cfg, result), nil
}

// RequestStatus polls an asynchronous operation and updates the stored
// record when the status changed.
func (s *Service) RequestStatus(ctx context.Context, requestToken string) (any, error) {
	if requestToken == "" {
		return nil, errors.New("missing request_token")
	}
	result, err := s.Executor.Status(ctx, requestToken)
	if err != nil {
		return nil, err
	}
	if s.Store != nil {
		if err := s.Store.UpdateOperationStatus(ctx, requestToken, string(result.OperationStatus), result.ErrorCode, result.StatusMessage); err != nil {
			log.Printf("tools: update operation status failed: %v", err)
		}
	}
	cfg := resource.Config{Operation: result.Operation, TypeName: result.TypeName, Identifier: result.Identifier}
	return operationResponse(cfg, result), nil
}

// ValidateResource checks a configuration against the type's schema. An
// empty configuration validates a synthesized full template instead.
func (s *Service) ValidateResource(ctx context.Context, typeName string, configuration map[string]any) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	if len(configuration) == 0 {
		template, err := s.Registry.Template(ctx, typeName, true)
		if err != nil {
			return nil, err
		}
		configuration = template
	}
	res, err := s.Registry.Validate(ctx, typeName, configuration)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type_name":     typeName,
		"configuration": configuration,
		"valid":         res.Valid,
		"errors":        res.Errors,
	}, nil
}

func (s *Service) GetSchema(ctx context.Context, typeName string) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	doc, err := s.Registry.Get(ctx, typeName)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) ListResourceTypes(_ context.Context, query string) (any, error) {
	var (
		types []string
		err   error
	)
	if query != "" {
		types, err = s.Registry.SearchTypes(query)
	} else {
		types, err = s.Registry.ListTypes()
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"resource_types": types, "count": len(types)}, nil
}

func (s *Service) GenerateTemplate(ctx context.Context, typeName string, includeOptional bool) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	template, err := s.Registry.Template(ctx, typeName, includeOptional)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type_name": typeName, "template": template}, nil
}

// CheckPolicy evaluates a configuration against stored compliance rules.
// Empty ruleNames means every rule in the store.
func (s *Service) CheckPolicy(_ context.Context, typeName string, configuration map[string]any, ruleNames []string) (any, error) {
	if typeName == "" {
		return nil, errors.New("missing type_name")
	}
	passed, results, err := s.Rules.EvaluateAll(typeName, configuration, ruleNames)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type_name": typeName, "passed": passed, "results": results}, nil
}

func (s *Service) ListRules(_ context.Context) (any, error) {
	names, err := s.Rules.List()
	if err != nil {
		return nil, err
	}
	return map[string]any{"rules": names, "count": len(names)}, nil
}

func (s *Service) GetRule(_ context.Context, name string) (any, error) {
	if name == "" {
		return nil, errors.New("missing rule name")
	}
	rule, raw, err := s.Rules.Get(name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rule": rule, "content": string(raw)}, nil
}

func (s *Service) PutRule(_ context.Context, name string, content string) (any, error) {
	if name == "" || content == "" {
		return nil, errors.New("missing rule name or content")
	}
	if err := s.Rules.Save(name, []byte(content)); err != nil {
		return nil, err
	}
	return map[string]any{"saved": name}, nil
}

func (s *Service) DeleteRule(_ context.Context, name string) (any, error) {
	if name == "" {
		return nil, errors.New("missing rule name")
	}
	if err := s.Rules.Delete(name); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": name}, nil
}

// FetchSchemas eagerly downloads the common type set from the remote
// registry.
func (s *Service) FetchSchemas(ctx context.Context) (any, error) {
	s.Registry.FetchCommon(ctx)
	types, err := s.Registry.ListTypes()
	if err != nil {
		return nil, err
	}
	return map[string]any{"resource_types": types, "count": len(types)}, nil
}

func (s *Service) ListOperations(ctx context.Context, typeName string, limit int) (any, error) {
	if s.Store == nil {
		return map[string]any{"operations": []store.OperationRecord{}, "count": 0}, nil
	}
	records, err := s.Store.ListOperations(ctx, typeName, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"operations": records, "count": len(records)}, nil
}

func operationResponse(cfg resource.Config, result resource.OperationResult) map[string]any {
	return map[string]any{
		"configuration": cfg,
		"result":        result,
		"message":       resource.Render(cfg, &result),
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
