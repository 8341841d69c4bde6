package rules

import (
	"errors"
	"testing"
)

const versioningRule = `id: s3-bucket-versioning
resource_type: AWS::S3::Bucket
description: S3 buckets must have versioning enabled.
checks:
  - path: VersioningConfiguration.Status
    equals: Enabled
    message: VersioningConfiguration.Status must be Enabled
`

func TestParseRuleRequiresID(t *testing.T) {
	if _, err := ParseRule([]byte("checks: []")); err == nil {
		t.Fatalf("expected error for a rule without an id")
	}
	rule, err := ParseRule([]byte(versioningRule))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rule.ID != "s3-bucket-versioning" || len(rule.Checks) != 1 {
		t.Fatalf("rule = %+v", rule)
	}
}

func TestEvaluateEqualsCheck(t *testing.T) {
	rule, _ := ParseRule([]byte(versioningRule))

	pass := Evaluate(rule, "AWS::S3::Bucket", map[string]any{
		"VersioningConfiguration": map[string]any{"Status": "Enabled"},
	})
	if !pass.Passed {
		t.Fatalf("expected pass: %v", pass.Messages)
	}

	fail := Evaluate(rule, "AWS::S3::Bucket", map[string]any{
		"VersioningConfiguration": map[string]any{"Status": "Suspended"},
	})
	if fail.Passed {
		t.Fatalf("expected failure")
	}
	if fail.Messages[0] != "VersioningConfiguration.Status must be Enabled" {
		t.Fatalf("message = %q", fail.Messages[0])
	}
}

func TestEvaluateSkipsOtherResourceTypes(t *testing.T) {
	rule, _ := ParseRule([]byte(versioningRule))
	res := Evaluate(rule, "AWS::SQS::Queue", map[string]any{})
	if !res.Passed || !res.Skipped {
		t.Fatalf("result = %+v, want skipped pass", res)
	}
}

func TestEvaluateExistsAndOneOf(t *testing.T) {
	exists := true
	rule := Rule{
		ID:           "r",
		ResourceType: "AWS::S3::Bucket",
		Checks: []Check{
			{Path: "BucketEncryption", Exists: &exists},
			{Path: "AccessControl", OneOf: []any{"Private", "AuthenticatedRead"}},
		},
	}
	res := Evaluate(rule, "AWS::S3::Bucket", map[string]any{
		"BucketEncryption": map[string]any{},
		"AccessControl":    "Private",
	})
	if !res.Passed {
		t.Fatalf("expected pass: %v", res.Messages)
	}

	res = Evaluate(rule, "AWS::S3::Bucket", map[string]any{
		"AccessControl": "PublicRead",
	})
	if res.Passed || len(res.Messages) != 2 {
		t.Fatalf("result = %+v, want both checks failing", res)
	}
}

func TestLooseEqualAcrossNumericForms(t *testing.T) {
	// Values extracted from text are strings; rule constants may be typed.
	if !looseEqual("5", 5) {
		t.Fatalf("string/int forms of the same number must compare equal")
	}
	if !looseEqual(true, "true") {
		t.Fatalf("bool/string forms must compare equal")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Save("versioning", []byte(versioningRule)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save("bad", []byte("checks: []")); err == nil {
		t.Fatalf("saving an invalid rule must fail")
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "versioning" {
		t.Fatalf("names = %v", names)
	}

	rule, raw, err := store.Get("versioning")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rule.ID != "s3-bucket-versioning" || len(raw) == 0 {
		t.Fatalf("rule = %+v", rule)
	}

	if err := store.Delete("versioning"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Get("versioning"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("err = %v, want ErrRuleNotFound", err)
	}
}

func TestEvaluateAllAgainstSeeds(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SeedExamples(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	compliant := map[string]any{
		"VersioningConfiguration": map[string]any{"Status": "Enabled"},
		"BucketEncryption": map[string]any{
			"ServerSideEncryptionConfiguration": []any{},
		},
		"PublicAccessBlockConfiguration": map[string]any{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
	}
	passed, results, err := store.EvaluateAll("AWS::S3::Bucket", compliant, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !passed {
		t.Fatalf("expected compliant config to pass: %+v", results)
	}

	passed, results, err = store.EvaluateAll("AWS::S3::Bucket", map[string]any{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if passed {
		t.Fatalf("expected empty config to fail: %+v", results)
	}
}

func TestEvaluateAllEmptyStorePasses(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	passed, results, err := store.EvaluateAll("AWS::S3::Bucket", map[string]any{}, nil)
	if err != nil || !passed || len(results) != 0 {
		t.Fatalf("passed=%v results=%v err=%v, want vacuous pass", passed, results, err)
	}
}
