package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every airo environment variable.
	EnvPrefix = "AIRO_"
)

// legacyEnv maps the variable names used by earlier airo releases onto
// config keys. They are applied before AIRO_* variables, which win.
var legacyEnv = map[string]string{
	"OLLAMA_HOST":             "model.host",
	"OLLAMA_TIMEOUT":          "model.timeout",
	"MAX_RETRIES":             "model.transport_retries",
	"RETRY_DELAY":             "model.retry_delay",
	"ENABLE_STREAMING":        "model.streaming",
	"ARCHITECT_MODEL":         "agents.architect.model",
	"CODER_MODEL":             "agents.coder.model",
	"CODE_REVIEWER_MODEL":     "agents.reviewer.model",
	"TEST_GENERATOR_MODEL":    "agents.test_generator.model",
	"TEMP_PLANNING":           "agents.architect.temperature",
	"TEMP_CODING":             "agents.coder.temperature",
	"TEMP_REVIEW":             "agents.reviewer.temperature",
	"MAX_CORRECTION_ATTEMPTS": "pipeline.max_iterations",
	"ENABLE_LINTING":          "quality.linting",
	"ENABLE_TYPE_CHECKING":    "quality.type_checking",
	"ENABLE_SECURITY_SCAN":    "quality.security_scan",
	"ENABLE_RAG":              "memory.enabled",
	"ENABLE_GIT_INTEGRATION":  "output.git_integration",
	"OUTPUT_DIR":              "output.dir",
	"LOG_LEVEL":               "logging.level",
	"VERBOSE":                 "logging.verbose",
}

// agentRoles are the nested sections under "agents". Longest first so
// TEST_GENERATOR is matched before a hypothetical TEST role.
var agentRoles = []string{"test_generator", "architect", "reviewer", "coder"}

// Load builds the configuration from defaults, the YAML file and the
// environment.
//
// Precedence (highest to lowest):
//  1. AIRO_* environment variables (AIRO_MODEL_HOST -> model.host)
//  2. legacy variables (OLLAMA_HOST, CODER_MODEL, OUTPUT_DIR, ...)
//  3. YAML config file
//  4. Default()
//
// An empty configPath means ~/.config/airo/config.yaml, which is optional.
// An explicit path must exist.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "airo", "config.yaml")
	}

	content, err := readConfigFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Logging.Verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// legacyKey maps a legacy variable to its config key. Unknown variables map
// to "" and are skipped by the provider.
func legacyKey(s string) string {
	return legacyEnv[s]
}

// envKey transforms AIRO_SECTION_FIELD_NAME into section.field_name, with
// one extra level for agent roles:
//
//	AIRO_MODEL_HOST                        -> model.host
//	AIRO_SERVER_HTTP_PORT                  -> server.http_port
//	AIRO_AGENTS_TEST_GENERATOR_TEMPERATURE -> agents.test_generator.temperature
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	section, field := parts[0], parts[1]
	if section == "agents" {
		for _, role := range agentRoles {
			if strings.HasPrefix(field, role+"_") {
				return section + "." + role + "." + strings.TrimPrefix(field, role+"_")
			}
		}
	}
	return section + "." + field
}

// readConfigFile opens the file once and validates it through the open
// descriptor to avoid a stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
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

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties rejects config files that others can write
// (they may carry api keys) and oversized files.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("config path is a directory")
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
