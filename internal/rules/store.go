package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrRuleNotFound = errors.New("rule not found")

// Store manages the rule files on disk. Rule names map to <name>.yaml in
// the rules directory.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("missing rules directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(name string) string {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return filepath.Join(s.Dir, name)
}

func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Get(name string) (Rule, []byte, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Rule{}, nil, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
		}
		return Rule{}, nil, err
	}
	rule, err := ParseRule(raw)
	if err != nil {
		return Rule{}, raw, err
	}
	return rule, raw, nil
}

// Save validates the content parses as a rule before writing it.
func (s *Store) Save(name string, content []byte) error {
	if _, err := ParseRule(content); err != nil {
		return fmt.Errorf("invalid rule %s: %w", name, err)
	}
	return os.WriteFile(s.path(name), content, 0o644)
}

func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	return err
}

// EvaluateAll checks a configuration against the named rules, or against
// every stored rule when names is empty. The bool is the overall verdict.
func (s *Store) EvaluateAll(typeName string, config map[string]any, names []string) (bool, []Result, error) {
	if len(names) == 0 {
		all, err := s.List()
		if err != nil {
			return false, nil, err
		}
		names = all
	}
	if len(names) == 0 {
		return true, nil, nil
	}

	allPassed := true
	results := make([]Result, 0, len(names))
	for _, name := range names {
		rule, _, err := s.Get(name)
		if err != nil {
			results = append(results, Result{RuleID: name, Passed: false, Messages: []string{err.Error()}})
			allPassed = false
			continue
		}
		res := Evaluate(rule, typeName, config)
		if !res.Passed {
			allPassed = false
		}
		results = append(results, res)
	}
	return allPassed, results, nil
}

// SeedExamples writes starter S3 rules when the directory has none, so a
// fresh install has something to evaluate against.
func (s *Store) SeedExamples() error {
	existing, err := s.List()
	if err != nil || len(existing) > 0 {
		return err
	}
	for name, content := range exampleRules {
		if err := s.Save(name, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

var exampleRules = map[string]string{
	"s3-bucket-encryption": `id: s3-bucket-encryption
resource_type: AWS::S3::Bucket
description: S3 buckets must have server-side encryption configured.
checks:
  - path: BucketEncryption.ServerSideEncryptionConfiguration
    exists: true
    message: BucketEncryption.ServerSideEncryptionConfiguration must be configured
`,
	"s3-bucket-versioning": `id: s3-bucket-versioning
resource_type: AWS::S3::Bucket
description: S3 buckets must have versioning enabled.
checks:
  - path: VersioningConfiguration.Status
    equals: Enabled
    message: VersioningConfiguration.Status must be Enabled
`,
	"s3-bucket-public-access": `id: s3-bucket-public-access
resource_type: AWS::S3::Bucket
description: S3 buckets must block public access.
checks:
  - path: PublicAccessBlockConfiguration.BlockPublicAcls
    equals: true
  - path: PublicAccessBlockConfiguration.BlockPublicPolicy
    equals: true
  - path: PublicAccessBlockConfiguration.IgnorePublicAcls
    equals: true
  - path: PublicAccessBlockConfiguration.RestrictPublicBuckets
    equals: true
`,
}
