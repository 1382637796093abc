package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/retrievald/internal/tenant"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9380, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "chromem", cfg.Store.Provider)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Augment.Duration())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Retrieve.Duration())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
store:
  provider: qdrant
  qdrant:
    host: qdrant.internal
    port: 6334
    api_key: s3cret
    vector_size: 1536
models:
  bindings:
    - tenant_id: t1
      role: embedding
      name: emb-1
      model: text-embedding-3-small
      default: true
tenancy:
  tokens:
    tok-u1: u1
  memberships:
    - user_id: u1
      tenant_id: t1
  knowledge_bases:
    - id: kb-a
      name: support
      tenant_id: t1
      embedding_model: emb-1
      mode: vector
graphs:
  - kb_id: kb-a
    entities:
      - {id: e1, name: refund}
    relations: []
timeouts:
  retrieve: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "qdrant", cfg.Store.Provider)
	assert.Equal(t, "qdrant.internal", cfg.Store.Qdrant.Host)
	assert.Equal(t, "s3cret", cfg.Store.Qdrant.APIKey.Value())

	require.Len(t, cfg.Models.Bindings, 1)
	assert.Equal(t, "embedding", cfg.Models.Bindings[0].Role)
	assert.True(t, cfg.Models.Bindings[0].Default)

	assert.Equal(t, "u1", cfg.Tenancy.Tokens["tok-u1"])
	require.Len(t, cfg.Tenancy.KnowledgeBases, 1)
	assert.Equal(t, tenant.ModeVector, cfg.Tenancy.KnowledgeBases[0].Mode)

	require.Len(t, cfg.Graphs, 1)
	assert.Equal(t, "kb-a", cfg.Graphs[0].KBID)

	assert.Equal(t, 5*time.Second, cfg.Timeouts.Retrieve.Duration())
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Augment.Duration(), "unset timeout keeps its default")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RETRIEVALD_SERVER_PORT", "7070")
	t.Setenv("RETRIEVALD_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsWorldReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"unknown provider", func(c *Config) { c.Store.Provider = "pinecone" }, "unknown store provider"},
		{"qdrant without host", func(c *Config) {
			c.Store.Provider = "qdrant"
			c.Store.Qdrant.Host = ""
		}, "qdrant host is required"},
		{"binding without tenant", func(c *Config) {
			c.Models.Bindings = []ModelBinding{{Role: "embedding", Name: "emb-1"}}
		}, "requires tenant_id"},
		{"binding with bad role", func(c *Config) {
			c.Models.Bindings = []ModelBinding{{TenantID: "t1", Role: "vision", Name: "m"}}
		}, "unknown role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSecretNeverSerializes(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "super-secret", s.Value())

	raw, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret")
}
