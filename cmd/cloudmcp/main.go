// cloudmcp is the one-shot CLI: it interprets a natural-language request
// and prints the parsed request, the generated configuration and the
// preview text without executing anything.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"cloudmcp/internal/config"
	"cloudmcp/internal/nlp"
	"cloudmcp/internal/resource"
	"cloudmcp/internal/schema"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cfg, err := config.Load(os.Getenv("CC_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	text := strings.Join(os.Args[1:], " ")
	registry := schema.NewRegistry(cfg.Schema.Dir, cfg.Schema.RegistryURL, nil)
	generator := resource.NewGenerator(registry)

	parsed := nlp.Parse(text)
	built := generator.Build(context.Background(), parsed)

	printJSON("parsed_request", parsed)
	printJSON("configuration", built)
	fmt.Println(resource.Render(built, nil))
}

func printJSON(label string, value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Fatalf("encode %s: %v", label, err)
	}
	fmt.Printf("%s:\n%s\n\n", label, data)
}

func usage() {
	fmt.Println("Usage: cloudmcp <natural language request>")
	fmt.Println(`Example: cloudmcp create an S3 bucket named my-test-bucket with versioning enabled`)
}
