package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrSchemaNotFound = errors.New("schema not found")

// Cache is an optional fast path in front of the schema directory, keyed by
// type name. A miss is reported as an error or as empty bytes.
type Cache interface {
	Get(ctx context.Context, typeName string) ([]byte, error)
	Set(ctx context.Context, typeName string, raw []byte) error
}

// Registry resolves schemas from, in order: memory, the local schema
// directory, the cache, and finally the remote registry URL. Remote hits
// are written back to the directory and the cache.
type Registry struct {
	Dir         string
	RegistryURL string
	Cache       Cache
	Client      *http.Client

	mu   sync.RWMutex
	docs map[string]*Document
}

// CommonTypes are fetched eagerly by the fetch-schemas subcommand.
var CommonTypes = []string{
	"AWS::S3::Bucket",
	"AWS::EC2::Instance",
	"AWS::Lambda::Function",
	"AWS::DynamoDB::Table",
	"AWS::RDS::DBInstance",
	"AWS::SNS::Topic",
	"AWS::SQS::Queue",
	"AWS::IAM::Role",
	"AWS::CloudWatch::Alarm",
	"AWS::EC2::SecurityGroup",
	"AWS::EC2::VPC",
	"AWS::EC2::Subnet",
	"AWS::KMS::Key",
}

func NewRegistry(dir string, registryURL string, cache Cache) *Registry {
	return &Registry{
		Dir:         dir,
		RegistryURL: registryURL,
		Cache:       cache,
		Client:      &http.Client{Timeout: 15 * time.Second},
		docs:        make(map[string]*Document),
	}
}

// fileName maps AWS::S3::Bucket to AWS_S3_Bucket.json.
func fileName(typeName string) string {
	return strings.ReplaceAll(typeName, "::", "_") + ".json"
}

func typeNameFromFile(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, ".json"), "_", "::")
}

func (r *Registry) Get(ctx context.Context, typeName string) (*Document, error) {
	r.mu.RLock()
	doc, ok := r.docs[typeName]
	r.mu.RUnlock()
	if ok {
		return doc, nil
	}

	raw, err := r.load(ctx, typeName)
	if err != nil {
		return nil, err
	}
	doc, err = ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse schema for %s: %w", typeName, err)
	}

	r.mu.Lock()
	r.docs[typeName] = doc
	r.mu.Unlock()
	return doc, nil
}

func (r *Registry) load(ctx context.Context, typeName string) ([]byte, error) {
	if r.Dir != "" {
		raw, err := os.ReadFile(filepath.Join(r.Dir, fileName(typeName)))
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if r.Cache != nil {
		if raw, err := r.Cache.Get(ctx, typeName); err == nil && len(raw) > 0 {
			return raw, nil
		}
	}

	return r.Fetch(ctx, typeName)
}

// Fetch downloads a schema from the remote registry and persists it to the
// schema directory and the cache.
func (r *Registry) Fetch(ctx context.Context, typeName string) ([]byte, error) {
	if r.RegistryURL == "" {
		return nil, fmt.Errorf("%w: %s (no registry url configured)", ErrSchemaNotFound, typeName)
	}
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(r.RegistryURL, "/"), fileName(typeName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema for %s: %w", typeName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s (registry returned %d)", ErrSchemaNotFound, typeName, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if r.Dir != "" {
		if err := os.WriteFile(filepath.Join(r.Dir, fileName(typeName)), raw, 0o644); err != nil {
			log.Printf("schema: persist %s failed: %v", typeName, err)
		}
	}
	if r.Cache != nil {
		if err := r.Cache.Set(ctx, typeName, raw); err != nil {
			log.Printf("schema: cache %s failed: %v", typeName, err)
		}
	}
	return raw, nil
}

// FetchCommon downloads the common type set, logging and skipping failures.
func (r *Registry) FetchCommon(ctx context.Context) {
	for _, typeName := range CommonTypes {
		if _, err := r.Fetch(ctx, typeName); err != nil {
			log.Printf("schema: fetch %s failed: %v", typeName, err)
		}
	}
}

// ListTypes returns the type names present in the schema directory, sorted.
func (r *Registry) ListTypes() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var types []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		types = append(types, typeNameFromFile(entry.Name()))
	}
	sort.Strings(types)
	return types, nil
}

// SearchTypes filters ListTypes by a case-insensitive substring.
func (r *Registry) SearchTypes(query string) ([]string, error) {
	all, err := r.ListTypes()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(query)
	var out []string
	for _, typeName := range all {
		if strings.Contains(strings.ToLower(typeName), lower) {
			out = append(out, typeName)
		}
	}
	return out, nil
}

func (r *Registry) PropertyTypes(ctx context.Context, typeName string) (map[string]*PropertySpec, error) {
	doc, err := r.Get(ctx, typeName)
	if err != nil {
		return nil, err
	}
	return doc.Properties, nil
}

func (r *Registry) RequiredProperties(ctx context.Context, typeName string) ([]string, error) {
	doc, err := r.Get(ctx, typeName)
	if err != nil {
		return nil, err
	}
	return doc.Required, nil
}

func (r *Registry) IdentifierProperty(ctx context.Context, typeName string) (string, error) {
	doc, err := r.Get(ctx, typeName)
	if err != nil {
		return "", err
	}
	return doc.IdentifierProperty(), nil
}
