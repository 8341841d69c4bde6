package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cloudmcp/internal/app"
	"cloudmcp/internal/config"
	"cloudmcp/internal/mcp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	cfgPath := os.Getenv("CC_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		runServe(ctx, cfg)
	case "mcp-stdio":
		runStdio(ctx, cfg)
	case "fetch-schemas":
		runFetchSchemas(ctx, cfg)
	default:
		usage()
	}
}

func runServe(ctx context.Context, cfg config.Config) {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}
	defer appInstance.Close()

	log.Printf("cloudmcpd serving on %s", cfg.HTTP.Addr)
	if err := appInstance.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runStdio(ctx context.Context, cfg config.Config) {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}
	defer appInstance.Close()
	if err := mcp.RunStdio(ctx, appInstance.MCP); err != nil {
		log.Fatalf("stdio error: %v", err)
	}
}

func runFetchSchemas(ctx context.Context, cfg config.Config) {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}
	defer appInstance.Close()

	appInstance.Registry.FetchCommon(ctx)
	types, err := appInstance.Registry.ListTypes()
	if err != nil {
		log.Fatalf("list types error: %v", err)
	}
	for _, typeName := range types {
		fmt.Println(typeName)
	}
	log.Printf("fetched schemas count=%d dir=%s", len(types), cfg.Schema.Dir)
}

func usage() {
	fmt.Println("Usage: cloudmcpd <serve|mcp-stdio|fetch-schemas>")
}
