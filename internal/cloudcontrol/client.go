package cloudcontrol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cloudmcp/internal/nlp"
	"cloudmcp/internal/resource"
)

// Client talks to a Cloud Control compatible endpoint (the real service
// behind a signing proxy, or a local emulator) using the x-amz-json-1.0
// target convention.
type Client struct {
	Endpoint string
	Region   string
	RoleARN  string
	HTTP     *http.Client
}

func NewClient(endpoint string, region string, roleARN string) *Client {
	return &Client{
		Endpoint: endpoint,
		Region:   region,
		RoleARN:  roleARN,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Name() string { return "cloudcontrol" }

type progressEvent struct {
	RequestToken    string `json:"RequestToken"`
	Operation       string `json:"Operation"`
	OperationStatus string `json:"OperationStatus"`
	TypeName        string `json:"TypeName"`
	Identifier      string `json:"Identifier"`
	ErrorCode       string `json:"ErrorCode"`
	StatusMessage   string `json:"StatusMessage"`
}

type resourceDescription struct {
	Identifier string `json:"Identifier"`
	Properties string `json:"Properties"`
}

func (c *Client) Execute(ctx context.Context, cfg resource.Config) (resource.OperationResult, error) {
	switch cfg.Operation {
	case nlp.OpCreate:
		desired, err := json.Marshal(cfg.DesiredState)
		if err != nil {
			return resource.OperationResult{}, err
		}
		return c.mutate(ctx, "CreateResource", cfg, map[string]any{
			"TypeName":     cfg.TypeName,
			"DesiredState": string(desired),
		})
	case nlp.OpGet:
		return c.getResource(ctx, cfg)
	case nlp.OpList:
		return c.listResources(ctx, cfg)
	case nlp.OpUpdate:
		patch, err := json.Marshal(cfg.PatchDocument)
		if err != nil {
			return resource.OperationResult{}, err
		}
		return c.mutate(ctx, "UpdateResource", cfg, map[string]any{
			"TypeName":      cfg.TypeName,
			"Identifier":    cfg.Identifier,
			"PatchDocument": string(patch),
		})
	case nlp.OpDelete:
		return c.mutate(ctx, "DeleteResource", cfg, map[string]any{
			"TypeName":   cfg.TypeName,
			"Identifier": cfg.Identifier,
		})
	default:
		return resource.OperationResult{}, fmt.Errorf("operation %s is not executable", cfg.Operation)
	}
}

func (c *Client) Status(ctx context.Context, requestToken string) (resource.OperationResult, error) {
	var decoded struct {
		ProgressEvent progressEvent `json:"ProgressEvent"`
	}
	err := c.call(ctx, "GetResourceRequestStatus", map[string]any{"RequestToken": requestToken}, &decoded)
	if err != nil {
		return resource.OperationResult{}, err
	}
	return progressToResult(decoded.ProgressEvent), nil
}

// mutate covers the asynchronous operations; every call carries a fresh
// client token for idempotency, plus the role ARN when one is configured.
func (c *Client) mutate(ctx context.Context, action string, cfg resource.Config, params map[string]any) (resource.OperationResult, error) {
	params["ClientToken"] = uuid.NewString()
	if c.RoleARN != "" {
		params["RoleArn"] = c.RoleARN
	}
	var decoded struct {
		ProgressEvent progressEvent `json:"ProgressEvent"`
	}
	if err := c.call(ctx, action, params, &decoded); err != nil {
		return resource.OperationResult{}, err
	}
	result := progressToResult(decoded.ProgressEvent)
	if result.Operation == "" {
		result.Operation = cfg.Operation
	}
	if result.TypeName == "" {
		result.TypeName = cfg.TypeName
	}
	return result, nil
}

func (c *Client) getResource(ctx context.Context, cfg resource.Config) (resource.OperationResult, error) {
	var decoded struct {
		ResourceDescription resourceDescription `json:"ResourceDescription"`
	}
	err := c.call(ctx, "GetResource", map[string]any{
		"TypeName":   cfg.TypeName,
		"Identifier": cfg.Identifier,
	}, &decoded)
	if err != nil {
		return resource.OperationResult{}, err
	}
	return resource.OperationResult{
		Operation:       nlp.OpGet,
		OperationStatus: resource.StatusSuccess,
		TypeName:        cfg.TypeName,
		Identifier:      decoded.ResourceDescription.Identifier,
		Properties:      decodeProperties(decoded.ResourceDescription.Properties),
	}, nil
}

func (c *Client) listResources(ctx context.Context, cfg resource.Config) (resource.OperationResult, error) {
	var decoded struct {
		ResourceDescriptions []resourceDescription `json:"ResourceDescriptions"`
	}
	err := c.call(ctx, "ListResources", map[string]any{"TypeName": cfg.TypeName}, &decoded)
	if err != nil {
		return resource.OperationResult{}, err
	}
	resources := make([]resource.Description, 0, len(decoded.ResourceDescriptions))
	for _, desc := range decoded.ResourceDescriptions {
		resources = append(resources, resource.Description{
			Identifier: desc.Identifier,
			Properties: decodeProperties(desc.Properties),
		})
	}
	return resource.OperationResult{
		Operation:       nlp.OpList,
		OperationStatus: resource.StatusSuccess,
		TypeName:        cfg.TypeName,
		Resources:       resources,
	}, nil
}

func (c *Client) call(ctx context.Context, action string, params map[string]any, out any) error {
	if c.Endpoint == "" {
		return errors.New("cloudcontrol endpoint not configured")
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.0")
	req.Header.Set("X-Amz-Target", "CloudApiService."+action)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Type    string `json:"__type"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Type != "" || apiErr.Message != "" {
			return fmt.Errorf("cloudcontrol %s failed: %s %s", action, apiErr.Type, apiErr.Message)
		}
		return fmt.Errorf("cloudcontrol %s failed with status %d", action, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Properties come back as a JSON string inside the JSON response.
func decodeProperties(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil
	}
	return props
}

func progressToResult(event progressEvent) resource.OperationResult {
	return resource.OperationResult{
		Operation:       nlp.Operation(event.Operation),
		OperationStatus: resource.Status(event.OperationStatus),
		TypeName:        event.TypeName,
		Identifier:      event.Identifier,
		RequestToken:    event.RequestToken,
		ErrorCode:       event.ErrorCode,
		StatusMessage:   event.StatusMessage,
	}
}
