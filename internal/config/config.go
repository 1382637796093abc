// Package config provides configuration loading for retrievald.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. The file carries the tenant directory, model bindings, and
// store settings; the environment usually only overrides server and store
// connection details.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/retrievald/internal/tenant"
)

// Config holds the complete retrievald configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Store    StoreConfig    `koanf:"store"`
	Models   ModelsConfig   `koanf:"models"`
	Tenancy  TenancyConfig  `koanf:"tenancy"`
	Graphs   []GraphConfig  `koanf:"graphs"`
	Timeouts TimeoutsConfig `koanf:"timeouts"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	// Provider is "chromem" (embedded, default) or "qdrant".
	Provider string        `koanf:"provider"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
	Chromem  ChromemConfig `koanf:"chromem"`
}

// QdrantConfig holds qdrant connection settings.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey Secret `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
	// VectorSize must match the embedding models used by the knowledge
	// bases stored there.
	VectorSize   uint64   `koanf:"vector_size"`
	MaxRetries   int      `koanf:"max_retries"`
	RetryBackoff Duration `koanf:"retry_backoff"`
}

// ChromemConfig holds embedded store settings. An empty path keeps the
// store in memory.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// ModelsConfig declares per-tenant model bindings.
type ModelsConfig struct {
	// OpenAI is the shared endpoint for bindings that do not override it.
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Bindings []ModelBinding `koanf:"bindings"`
}

// OpenAIConfig holds an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  Secret `koanf:"api_key"`
}

// ModelBinding binds a model to a tenant for one role.
type ModelBinding struct {
	TenantID string `koanf:"tenant_id"`
	// Role is "embedding", "rerank", or "chat".
	Role string `koanf:"role"`
	// Name is the binding name requests refer to.
	Name string `koanf:"name"`
	// Model is the upstream model identifier. Defaults to Name.
	Model   string `koanf:"model"`
	Default bool   `koanf:"default"`
	// BaseURL and APIKey override the shared endpoint for this binding.
	BaseURL string `koanf:"base_url"`
	APIKey  Secret `koanf:"api_key"`
}

// TenancyConfig holds the caller directory.
type TenancyConfig struct {
	// Tokens maps bearer tokens to caller ids.
	Tokens         map[string]string      `koanf:"tokens"`
	Memberships    []tenant.Membership    `koanf:"memberships"`
	KnowledgeBases []tenant.KnowledgeBase `koanf:"knowledge_bases"`
}

// GraphConfig loads one knowledge base's entity graph.
type GraphConfig struct {
	KBID      string           `koanf:"kb_id"`
	Entities  []EntityConfig   `koanf:"entities"`
	Relations []RelationConfig `koanf:"relations"`
}

// EntityConfig is one graph node.
type EntityConfig struct {
	ID          string `koanf:"id"`
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
}

// RelationConfig is one graph edge.
type RelationConfig struct {
	From string `koanf:"from"`
	To   string `koanf:"to"`
	Type string `koanf:"type"`
}

// TimeoutsConfig bounds the pipeline stages that call external services.
type TimeoutsConfig struct {
	Augment  Duration `koanf:"augment"`
	Retrieve Duration `koanf:"retrieve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Store.Provider {
	case "chromem":
	case "qdrant":
		if c.Store.Qdrant.Host == "" {
			return errors.New("qdrant host is required")
		}
		if c.Store.Qdrant.Port < 1 || c.Store.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port: %d", c.Store.Qdrant.Port)
		}
		if c.Store.Qdrant.VectorSize == 0 {
			return errors.New("qdrant vector_size is required")
		}
	default:
		return fmt.Errorf("unknown store provider %q (chromem or qdrant)", c.Store.Provider)
	}

	for i, b := range c.Models.Bindings {
		if b.TenantID == "" || b.Name == "" {
			return fmt.Errorf("model binding %d requires tenant_id and name", i)
		}
		switch b.Role {
		case "embedding", "rerank", "chat":
		default:
			return fmt.Errorf("model binding %d has unknown role %q", i, b.Role)
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9380
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// chromem is the default store: embedded, no external deps.
	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "chromem"
	}
	if cfg.Store.Qdrant.Host == "" {
		cfg.Store.Qdrant.Host = "localhost"
	}
	if cfg.Store.Qdrant.Port == 0 {
		cfg.Store.Qdrant.Port = 6334
	}
	if cfg.Store.Qdrant.MaxRetries == 0 {
		cfg.Store.Qdrant.MaxRetries = 3
	}
	if cfg.Store.Qdrant.RetryBackoff == 0 {
		cfg.Store.Qdrant.RetryBackoff = Duration(time.Second)
	}

	if cfg.Timeouts.Augment == 0 {
		cfg.Timeouts.Augment = Duration(10 * time.Second)
	}
	if cfg.Timeouts.Retrieve == 0 {
		cfg.Timeouts.Retrieve = Duration(30 * time.Second)
	}
}
