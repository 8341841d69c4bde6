// Package app wires configuration, storage, caching, schemas, rules and the
// executor into the serving processes.
package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"cloudmcp/internal/cache"
	"cloudmcp/internal/cloudcontrol"
	"cloudmcp/internal/config"
	"cloudmcp/internal/httpapi"
	"cloudmcp/internal/mcp"
	"cloudmcp/internal/rules"
	"cloudmcp/internal/schema"
	"cloudmcp/internal/store"
	"cloudmcp/internal/tools"
)

type App struct {
	Config   config.Config
	Store    *store.Store
	Cache    *cache.Cache
	Registry *schema.Registry
	Rules    *rules.Store
	Executor cloudcontrol.Executor
	Tools    *tools.Service
	MCP      *mcp.Server
	API      *httpapi.Handler
}

// New builds the application. The database and Redis are optional: with no
// DSN operation history is skipped, with no Redis URL schemas come straight
// from disk and the remote registry.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	var st *store.Store
	if cfg.Database.DSN != "" {
		opened, err := store.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, opened.DB()); err != nil {
			return nil, err
		}
		st = opened
	}

	var schemaCache *cache.Cache
	if cfg.Redis.URL != "" {
		opened, err := cache.New(cfg.Redis.URL, cfg.Schema.CacheTTL)
		if err != nil {
			return nil, err
		}
		schemaCache = opened
	}

	var registryCache schema.Cache
	if schemaCache != nil {
		registryCache = schemaCache
	}
	registry := schema.NewRegistry(cfg.Schema.Dir, cfg.Schema.RegistryURL, registryCache)

	ruleStore, err := rules.NewStore(cfg.Rules.Dir)
	if err != nil {
		return nil, err
	}
	if cfg.Rules.SeedExamples {
		if err := ruleStore.SeedExamples(); err != nil {
			return nil, err
		}
	}

	executor := selectExecutor(cfg)
	log.Printf("app executor=%s store=%v cache=%v", executor.Name(), st != nil, schemaCache != nil)

	toolSvc := tools.NewService(cfg, registry, ruleStore, executor, st)
	mcpServer := mcp.NewServer(cfg, toolSvc)
	apiHandler := httpapi.NewHandler(cfg, toolSvc)

	return &App{
		Config:   cfg,
		Store:    st,
		Cache:    schemaCache,
		Registry: registry,
		Rules:    ruleStore,
		Executor: executor,
		Tools:    toolSvc,
		MCP:      mcpServer,
		API:      apiHandler,
	}, nil
}

func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	return err
}

func (a *App) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.Store != nil {
			if err := a.Store.Ping(ctx); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		if a.Cache != nil {
			if err := a.Cache.Ping(ctx); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/mcp", a.MCP.HandleHTTP)
	mux.HandleFunc("/mcp/sse", a.MCP.HandleSSEStub)
	a.API.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

// selectExecutor picks the real Cloud Control client when an endpoint is
// configured, otherwise the in-memory mock for local development.
func selectExecutor(cfg config.Config) cloudcontrol.Executor {
	if cfg.CloudControl.Endpoint != "" {
		return cloudcontrol.NewClient(cfg.CloudControl.Endpoint, cfg.CloudControl.Region, cfg.CloudControl.RoleARN)
	}
	return cloudcontrol.NewMock()
}
