package resource

import (
	"strings"
	"testing"

	"cloudmcp/internal/nlp"
)

func TestRenderErrorVariant(t *testing.T) {
	cfg := Config{Err: "Identifier is required for DELETE operation"}
	got := Render(cfg, nil)
	want := "I couldn't process your request. Identifier is required for DELETE operation. Please provide more information."
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestRenderCreatePreviewListsPropertiesInOrder(t *testing.T) {
	var desired nlp.Properties
	desired.Set("BucketName", "my-test-bucket")
	desired.Set("VersioningConfiguration", map[string]any{"Status": "Enabled"})

	cfg := Config{Operation: nlp.OpCreate, TypeName: "AWS::S3::Bucket", DesiredState: desired}
	got := Render(cfg, nil)

	if !strings.HasSuffix(got, "Would you like me to proceed?") {
		t.Fatalf("preview must end with the confirmation prompt: %q", got)
	}
	bucketIdx := strings.Index(got, "BucketName: my-test-bucket")
	versioningIdx := strings.Index(got, "VersioningConfiguration:")
	if bucketIdx < 0 || versioningIdx < 0 || bucketIdx > versioningIdx {
		t.Fatalf("properties missing or out of order: %q", got)
	}
}

func TestRenderListPreviewNamesTypeOnly(t *testing.T) {
	cfg := Config{Operation: nlp.OpList, TypeName: "AWS::DynamoDB::Table"}
	got := Render(cfg, nil)
	want := "I'll list all AWS::DynamoDB::Table resources. Would you like me to proceed?"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestRenderFailedResultForAnyOperation(t *testing.T) {
	for _, op := range []nlp.Operation{nlp.OpCreate, nlp.OpGet, nlp.OpList, nlp.OpUpdate, nlp.OpDelete} {
		cfg := Config{Operation: op, TypeName: "AWS::S3::Bucket"}
		result := OperationResult{
			Operation:       op,
			OperationStatus: StatusFailed,
			ErrorCode:       "AlreadyExists",
			StatusMessage:   "bucket taken",
		}
		got := Render(cfg, &result)
		if !strings.Contains(got, "AlreadyExists") || !strings.Contains(got, "bucket taken") {
			t.Fatalf("%s: failure render must carry code and message: %q", op, got)
		}
	}
}

func TestRenderFailedResultDefaults(t *testing.T) {
	cfg := Config{Operation: nlp.OpDelete, TypeName: "AWS::S3::Bucket"}
	result := OperationResult{OperationStatus: StatusFailed}
	got := Render(cfg, &result)
	if !strings.Contains(got, "'Unknown'") || !strings.Contains(got, "No additional information available") {
		t.Fatalf("missing defaults: %q", got)
	}
}

func TestRenderCreateOutcomeWithToken(t *testing.T) {
	cfg := Config{Operation: nlp.OpCreate, TypeName: "AWS::S3::Bucket"}
	result := OperationResult{
		Operation:       nlp.OpCreate,
		OperationStatus: StatusInProgress,
		Identifier:      "my-test-bucket",
		RequestToken:    "tok-123",
	}
	got := Render(cfg, &result)
	if !strings.Contains(got, "my-test-bucket") || !strings.Contains(got, "tok-123") {
		t.Fatalf("render = %q", got)
	}
}

func TestRenderGetOutcomeIncludesProperties(t *testing.T) {
	cfg := Config{Operation: nlp.OpGet, TypeName: "AWS::S3::Bucket", Identifier: "b"}
	result := OperationResult{
		Operation:       nlp.OpGet,
		OperationStatus: StatusSuccess,
		Properties:      map[string]any{"BucketName": "b"},
	}
	got := Render(cfg, &result)
	if !strings.Contains(got, `"BucketName": "b"`) {
		t.Fatalf("render = %q", got)
	}
}

func TestRenderListOutcome(t *testing.T) {
	cfg := Config{Operation: nlp.OpList, TypeName: "AWS::SQS::Queue"}

	empty := OperationResult{Operation: nlp.OpList, OperationStatus: StatusSuccess}
	if got := Render(cfg, &empty); got != "No AWS::SQS::Queue resources found." {
		t.Fatalf("empty render = %q", got)
	}

	full := OperationResult{
		Operation:       nlp.OpList,
		OperationStatus: StatusSuccess,
		Resources: []Description{
			{Identifier: "a"},
			{Identifier: "b"},
		},
	}
	got := Render(cfg, &full)
	if !strings.Contains(got, "I found 2 AWS::SQS::Queue resources:") || !strings.Contains(got, "- a") {
		t.Fatalf("render = %q", got)
	}
}

func TestRenderValidateOutcome(t *testing.T) {
	cfg := Config{Operation: nlp.OpValidate, TypeName: "AWS::S3::Bucket", Configuration: map[string]any{"BucketName": "b"}}
	result := OperationResult{Operation: nlp.OpValidate, OperationStatus: StatusSuccess}
	if got := Render(cfg, &result); got != "The AWS::S3::Bucket configuration is valid." {
		t.Fatalf("render = %q", got)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	var desired nlp.Properties
	desired.Set("QueueName", "jobs")
	cfg := Config{Operation: nlp.OpCreate, TypeName: "AWS::SQS::Queue", DesiredState: desired}
	result := OperationResult{Operation: nlp.OpCreate, OperationStatus: StatusInProgress, RequestToken: "t"}

	if Render(cfg, nil) != Render(cfg, nil) {
		t.Fatalf("preview render is not deterministic")
	}
	if Render(cfg, &result) != Render(cfg, &result) {
		t.Fatalf("outcome render is not deterministic")
	}
}
