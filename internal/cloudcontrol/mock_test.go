package cloudcontrol

import (
	"context"
	"testing"

	"cloudmcp/internal/nlp"
	"cloudmcp/internal/resource"
)

func TestMockCreateLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	var desired nlp.Properties
	desired.Set("BucketName", "my-test-bucket")
	result, err := mock.Execute(ctx, resource.Config{
		Operation:    nlp.OpCreate,
		TypeName:     "AWS::S3::Bucket",
		DesiredState: desired,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.OperationStatus != resource.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", result.OperationStatus)
	}
	if result.Identifier != "my-test-bucket" {
		t.Fatalf("identifier = %q, want the Name-suffixed property", result.Identifier)
	}
	if result.RequestToken == "" {
		t.Fatalf("mutations must return a request token")
	}

	// The first poll resolves to SUCCESS; polling again stays SUCCESS.
	for i := 0; i < 2; i++ {
		polled, err := mock.Status(ctx, result.RequestToken)
		if err != nil {
			t.Fatalf("status poll %d: %v", i, err)
		}
		if polled.OperationStatus != resource.StatusSuccess {
			t.Fatalf("poll %d status = %s, want SUCCESS", i, polled.OperationStatus)
		}
	}

	got, err := mock.Execute(ctx, resource.Config{
		Operation:  nlp.OpGet,
		TypeName:   "AWS::S3::Bucket",
		Identifier: "my-test-bucket",
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Properties["BucketName"] != "my-test-bucket" {
		t.Fatalf("properties = %v", got.Properties)
	}
}

func TestMockCreateConflict(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	var desired nlp.Properties
	desired.Set("QueueName", "jobs")
	cfg := resource.Config{Operation: nlp.OpCreate, TypeName: "AWS::SQS::Queue", DesiredState: desired}

	if _, err := mock.Execute(ctx, cfg); err != nil {
		t.Fatalf("first create: %v", err)
	}
	dup, err := mock.Execute(ctx, cfg)
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if dup.OperationStatus != resource.StatusFailed || dup.ErrorCode != "AlreadyExists" {
		t.Fatalf("duplicate result = %+v, want FAILED AlreadyExists", dup)
	}
}

func TestMockUpdateAppliesPatch(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	var desired nlp.Properties
	desired.Set("TableName", "orders")
	if _, err := mock.Execute(ctx, resource.Config{
		Operation:    nlp.OpCreate,
		TypeName:     "AWS::DynamoDB::Table",
		DesiredState: desired,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := mock.Execute(ctx, resource.Config{
		Operation:  nlp.OpUpdate,
		TypeName:   "AWS::DynamoDB::Table",
		Identifier: "orders",
		PatchDocument: []resource.PatchOp{
			{Op: "replace", Path: "/BillingMode", Value: "PAY_PER_REQUEST"},
		},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := mock.Execute(ctx, resource.Config{
		Operation:  nlp.OpGet,
		TypeName:   "AWS::DynamoDB::Table",
		Identifier: "orders",
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Properties["BillingMode"] != "PAY_PER_REQUEST" {
		t.Fatalf("patch not applied: %v", got.Properties)
	}
}

func TestMockDeleteAndList(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	for _, name := range []string{"beta", "alpha"} {
		var desired nlp.Properties
		desired.Set("QueueName", name)
		if _, err := mock.Execute(ctx, resource.Config{
			Operation:    nlp.OpCreate,
			TypeName:     "AWS::SQS::Queue",
			DesiredState: desired,
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	listed, err := mock.Execute(ctx, resource.Config{Operation: nlp.OpList, TypeName: "AWS::SQS::Queue"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Resources) != 2 || listed.Resources[0].Identifier != "alpha" {
		t.Fatalf("resources = %+v, want sorted identifiers", listed.Resources)
	}

	if _, err := mock.Execute(ctx, resource.Config{
		Operation:  nlp.OpDelete,
		TypeName:   "AWS::SQS::Queue",
		Identifier: "alpha",
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	listed, _ = mock.Execute(ctx, resource.Config{Operation: nlp.OpList, TypeName: "AWS::SQS::Queue"})
	if len(listed.Resources) != 1 || listed.Resources[0].Identifier != "beta" {
		t.Fatalf("resources after delete = %+v", listed.Resources)
	}
}

func TestMockGetMissingResource(t *testing.T) {
	mock := NewMock()
	result, err := mock.Execute(context.Background(), resource.Config{
		Operation:  nlp.OpGet,
		TypeName:   "AWS::S3::Bucket",
		Identifier: "nope",
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result.OperationStatus != resource.StatusFailed || result.ErrorCode != "NotFound" {
		t.Fatalf("result = %+v, want FAILED NotFound", result)
	}
}

func TestMockUnknownToken(t *testing.T) {
	mock := NewMock()
	if _, err := mock.Status(context.Background(), "missing-token"); err == nil {
		t.Fatalf("expected error for unknown request token")
	}
}
