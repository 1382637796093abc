// Retrievald is a multi-tenant retrieval gateway for knowledge bases.
//
// The daemon authorizes callers against a tenant directory, resolves the
// owning tenant's models, and routes retrieval to a dense vector or
// knowledge-graph backend.
//
// Usage:
//
//	# Start with defaults (embedded store, config from environment)
//	retrievald
//
//	# Start with a config file
//	retrievald --config /etc/retrievald/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/retrievald/internal/config"
	"github.com/fyrsmithlabs/retrievald/internal/gateway"
	"github.com/fyrsmithlabs/retrievald/internal/graph"
	"github.com/fyrsmithlabs/retrievald/internal/llm"
	"github.com/fyrsmithlabs/retrievald/internal/logging"
	"github.com/fyrsmithlabs/retrievald/internal/retrieval"
	"github.com/fyrsmithlabs/retrievald/internal/server"
	"github.com/fyrsmithlabs/retrievald/internal/tenant"
	"github.com/fyrsmithlabs/retrievald/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "retrievald",
	Short:   "Multi-tenant knowledge base retrieval gateway",
	Version: fmt.Sprintf("%s (%s)", version, gitCommit),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "retrievald: %v\n", err)
		os.Exit(1)
	}
}

// run starts the daemon and blocks until the context is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting retrievald",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Provider))

	dir, err := buildDirectory(cfg)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("closing vector store", zap.Error(cerr))
		}
	}()

	graphs, err := buildGraphs(cfg)
	if err != nil {
		return err
	}

	router := retrieval.NewRouter(
		retrieval.NewVectorRetriever(store),
		retrieval.NewGraphRetriever(store, graphs),
	)

	svc := gateway.NewService(dir, dir, registry, router, gateway.Timeouts{
		Augment:  cfg.Timeouts.Augment.Duration(),
		Retrieve: cfg.Timeouts.Retrieve.Duration(),
	}, logger)

	srv, err := server.NewServer(svc, server.StaticTokens(cfg.Tenancy.Tokens), logger, &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildDirectory loads the tenant directory from configuration.
func buildDirectory(cfg *config.Config) (*tenant.Directory, error) {
	dir := tenant.NewDirectory()
	if err := dir.Load(cfg.Tenancy.Memberships, cfg.Tenancy.KnowledgeBases); err != nil {
		return nil, fmt.Errorf("tenant directory: %w", err)
	}
	return dir, nil
}

// buildRegistry creates model handles for every configured binding. Rerank
// bindings use the local term-overlap reranker; embedding and chat bindings
// talk to an OpenAI-compatible endpoint.
func buildRegistry(cfg *config.Config, logger *zap.Logger) (*llm.StaticRegistry, error) {
	reg := llm.NewStaticRegistry()

	for _, b := range cfg.Models.Bindings {
		model := b.Model
		if model == "" {
			model = b.Name
		}
		oc := llm.OpenAIConfig{
			Model:   model,
			BaseURL: firstNonEmpty(b.BaseURL, cfg.Models.OpenAI.BaseURL),
			APIKey:  firstNonEmpty(b.APIKey.Value(), cfg.Models.OpenAI.APIKey.Value()),
		}

		switch b.Role {
		case "embedding":
			h, err := llm.NewOpenAIEmbedder(oc)
			if err != nil {
				return nil, fmt.Errorf("embedding binding %s/%s: %w", b.TenantID, b.Name, err)
			}
			reg.RegisterEmbedder(b.TenantID, b.Name, h, b.Default)
		case "chat":
			h, err := llm.NewOpenAIChat(oc)
			if err != nil {
				return nil, fmt.Errorf("chat binding %s/%s: %w", b.TenantID, b.Name, err)
			}
			reg.RegisterChat(b.TenantID, b.Name, h, b.Default)
		case "rerank":
			reg.RegisterReranker(b.TenantID, b.Name, llm.NewTermOverlapReranker(), b.Default)
		}

		logger.Debug("model binding registered",
			zap.String("tenant_id", b.TenantID),
			zap.String("role", b.Role),
			zap.String("name", b.Name),
			zap.Bool("default", b.Default))
	}

	return reg, nil
}

// buildStore creates the configured vector store backend.
func buildStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Store.Provider {
	case "qdrant":
		return vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			Host:         cfg.Store.Qdrant.Host,
			Port:         cfg.Store.Qdrant.Port,
			APIKey:       cfg.Store.Qdrant.APIKey.Value(),
			UseTLS:       cfg.Store.Qdrant.UseTLS,
			VectorSize:   cfg.Store.Qdrant.VectorSize,
			MaxRetries:   cfg.Store.Qdrant.MaxRetries,
			RetryBackoff: cfg.Store.Qdrant.RetryBackoff.Duration(),
		})
	default:
		return vectorstore.NewChromemStore(vectorstore.ChromemConfig{
			Path:     cfg.Store.Chromem.Path,
			Compress: cfg.Store.Chromem.Compress,
		})
	}
}

// buildGraphs loads configured entity graphs into the in-process store.
func buildGraphs(cfg *config.Config) (*graph.MemoryStore, error) {
	gs := graph.NewMemoryStore()
	for _, g := range cfg.Graphs {
		entities := make([]graph.Entity, len(g.Entities))
		for i, e := range g.Entities {
			entities[i] = graph.Entity{ID: e.ID, Name: e.Name, Description: e.Description}
		}
		relations := make([]graph.Relation, len(g.Relations))
		for i, r := range g.Relations {
			relations[i] = graph.Relation{From: r.From, To: r.To, Type: r.Type}
		}
		if err := gs.LoadGraph(g.KBID, entities, relations); err != nil {
			return nil, fmt.Errorf("graph for %s: %w", g.KBID, err)
		}
	}
	return gs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
