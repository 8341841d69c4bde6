// Package nlp turns freeform request text into a structured ParsedRequest.
// It is a deterministic, rule-based classifier and extractor; there is no
// model inference and no external service behind it.
package nlp

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

type Operation string

const (
	OpCreate   Operation = "CREATE"
	OpGet      Operation = "GET"
	OpList     Operation = "LIST"
	OpUpdate   Operation = "UPDATE"
	OpDelete   Operation = "DELETE"
	OpValidate Operation = "VALIDATE"
)

// Property is a single extracted key/value pair.
type Property struct {
	Key   string
	Value any
}

// Properties preserves the order in which keys were first seen. Later writes
// to an existing key replace the value in place, so UPDATE patch documents
// and CREATE previews stay deterministic.
type Properties []Property

func (p Properties) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (p *Properties) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: value})
}

func (p *Properties) Delete(key string) {
	for i := range *p {
		if (*p)[i].Key == key {
			*p = append((*p)[:i], (*p)[i+1:]...)
			return
		}
	}
}

func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, kv := range p {
		keys = append(keys, kv.Key)
	}
	return keys
}

// Map flattens to a plain map for schema validation and wire payloads.
func (p Properties) Map() map[string]any {
	out := make(map[string]any, len(p))
	for _, kv := range p {
		out[kv.Key] = kv.Value
	}
	return out
}

// MarshalJSON renders a JSON object in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParsedRequest is the immutable result of Parse. Zero values mean the
// corresponding piece could not be determined from the text.
type ParsedRequest struct {
	OriginalText string     `json:"original_text"`
	Operation    Operation  `json:"operation,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceName string     `json:"resource_name,omitempty"`
	Identifier   string     `json:"identifier,omitempty"`
	Properties   Properties `json:"properties"`
}

var operationKeywords = []struct {
	op Operation
	re *regexp.Regexp
}{
	{OpCreate, regexp.MustCompile(`\b(create|make|provision|deploy|set up|launch)\b`)},
	{OpGet, regexp.MustCompile(`\b(get|fetch|retrieve|show|display|describe)\b`)},
	{OpList, regexp.MustCompile(`\b(list|show all|get all|enumerate|find all)\b`)},
	{OpUpdate, regexp.MustCompile(`\b(update|modify|change|edit|alter)\b`)},
	{OpDelete, regexp.MustCompile(`\b(delete|remove|destroy|tear down|terminate)\b`)},
}

var resourceTypePattern = regexp.MustCompile(`AWS::\w+::\w+`)

var resourceKeywords = []struct {
	re       *regexp.Regexp
	typeName string
}{
	{regexp.MustCompile(`\b(s3|bucket|storage)\b`), "AWS::S3::Bucket"},
	{regexp.MustCompile(`\b(lambda|function)\b`), "AWS::Lambda::Function"},
	{regexp.MustCompile(`\b(dynamodb|dynamo|table)\b`), "AWS::DynamoDB::Table"},
	{regexp.MustCompile(`\b(ec2|instance|server|vm)\b`), "AWS::EC2::Instance"},
	{regexp.MustCompile(`\b(rds|database|db)\b`), "AWS::RDS::DBInstance"},
	{regexp.MustCompile(`\b(sns|topic|notification)\b`), "AWS::SNS::Topic"},
	{regexp.MustCompile(`\b(sqs|queue)\b`), "AWS::SQS::Queue"},
}

// Parse classifies the operation and resource type, then extracts a name,
// an identifier (for operations that address one resource) and a property
// map. Identical text always yields an identical ParsedRequest.
func Parse(text string) ParsedRequest {
	req := ParsedRequest{OriginalText: text}
	lower := strings.ToLower(text)

	for _, kw := range operationKeywords {
		if kw.re.MatchString(lower) {
			req.Operation = kw.op
			break
		}
	}

	if match := resourceTypePattern.FindString(text); match != "" {
		req.ResourceType = match
	} else {
		for _, kw := range resourceKeywords {
			if kw.re.MatchString(lower) {
				req.ResourceType = kw.typeName
				break
			}
		}
	}

	req.ResourceName = extractName(text)
	if req.Operation == OpGet || req.Operation == OpUpdate || req.Operation == OpDelete {
		req.Identifier = extractIdentifier(text)
	}
	req.Properties = extractProperties(text)

	for _, rule := range refinements {
		if rule.typeName == req.ResourceType {
			rule.apply(text, lower, &req.Properties)
		}
	}

	return req
}
