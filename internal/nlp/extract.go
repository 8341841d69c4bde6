package nlp

import (
	"encoding/json"
	"log"
	"regexp"
	"sort"
	"strings"
)

var (
	namePattern       = regexp.MustCompile(`(?i)(?:named|called|with name|name is|name it)\s+["']?([a-zA-Z0-9-_]+)["']?`)
	identifierPattern = regexp.MustCompile(`(?i)(?:with id|identifier|id is|id:|identifier is)\s+["']?([a-zA-Z0-9-_:/]+)["']?`)
	keyValuePattern   = regexp.MustCompile(`(\w+)\s*[=:]+\s*["']?([^,"']+)["']?`)
	jsonBlockPattern  = regexp.MustCompile(`(?s)\{.*?\}`)
	bareKeyPattern    = regexp.MustCompile(`(\w+):`)
	trailingComma     = regexp.MustCompile(`,\s*\}`)
)

func extractName(text string) string {
	if m := namePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractIdentifier(text string) string {
	if m := identifierPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// extractProperties scans the original-case text for key/value pairs and
// merges in the first quasi-JSON block when one parses after repair.
// Re-occurring keys overwrite in place; insertion order is kept from the
// first occurrence.
func extractProperties(text string) Properties {
	var props Properties

	for _, m := range keyValuePattern.FindAllStringSubmatch(text, -1) {
		props.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}

	if block := jsonBlockPattern.FindString(text); block != "" {
		if data, ok := repairJSON(block); ok {
			// Sorted so the merge is deterministic regardless of map order.
			keys := make([]string, 0, len(data))
			for key := range data {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				props.Set(key, data[key])
			}
		}
	}

	return props
}

// repairJSON is a best-effort recovery of a quasi-JSON fragment: bare
// identifier keys are quoted and trailing commas stripped before parsing.
// A fragment that still fails to parse is logged and dropped; the caller
// keeps whatever properties were already collected.
func repairJSON(block string) (map[string]any, bool) {
	repaired := bareKeyPattern.ReplaceAllString(block, `"${1}":`)
	repaired = trailingComma.ReplaceAllString(repaired, "}")
	var data map[string]any
	if err := json.Unmarshal([]byte(repaired), &data); err != nil {
		log.Printf("nlp: dropping unparseable structured literal: %v", err)
		return nil, false
	}
	return data, true
}
