package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from a YAML file, then overrides with
// RETRIEVALD_-prefixed environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (RETRIEVALD_SERVER_PORT, RETRIEVALD_STORE_PROVIDER, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// An empty configPath skips the file and uses env plus defaults only. The
// file, when present, must not be world-readable: it carries API keys and
// bearer tokens.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		// Open once and validate via the descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables map to config keys by stripping the prefix and
	// splitting on the first underscore:
	//
	//	RETRIEVALD_SERVER_PORT      -> server.port
	//	RETRIEVALD_STORE_PROVIDER   -> store.provider
	//	RETRIEVALD_LOGGING_LEVEL    -> logging.level
	if err := k.Load(env.Provider("RETRIEVALD_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "RETRIEVALD_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm&0o044 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group/world readable)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
