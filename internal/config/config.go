// Package config provides configuration loading for airo.
//
// A Config is built once at startup (defaults, then YAML file, then
// environment) and passed by pointer into every constructor. Nothing in the
// pipeline reads configuration from globals.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Supported model backends.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendFake   = "fake"
)

// Config holds the complete airo configuration.
type Config struct {
	Model         ModelConfig         `koanf:"model"`
	Agents        AgentsConfig        `koanf:"agents"`
	Pipeline      PipelineConfig      `koanf:"pipeline"`
	Quality       QualityConfig       `koanf:"quality"`
	Output        OutputConfig        `koanf:"output"`
	Memory        MemoryConfig        `koanf:"memory"`
	Events        EventsConfig        `koanf:"events"`
	Server        ServerConfig        `koanf:"server"`
	Temporal      TemporalConfig      `koanf:"temporal"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ModelConfig describes the language-model backend shared by all agents.
type ModelConfig struct {
	Backend string   `koanf:"backend"`
	Host    string   `koanf:"host"`
	APIKey  Secret   `koanf:"api_key"`
	Timeout Duration `koanf:"timeout"`

	// TransportRetries retries only unreachable-backend errors. Zero disables it;
	// malformed output is never retried here.
	TransportRetries int      `koanf:"transport_retries"`
	RetryDelay       Duration `koanf:"retry_delay"`

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
	Streaming bool    `koanf:"streaming"`
}

// RoleConfig is the model selection for one agent role.
type RoleConfig struct {
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// AgentsConfig holds per-role model settings.
type AgentsConfig struct {
	Architect     RoleConfig `koanf:"architect"`
	Coder         RoleConfig `koanf:"coder"`
	Reviewer      RoleConfig `koanf:"reviewer"`
	TestGenerator RoleConfig `koanf:"test_generator"`
}

// PipelineConfig controls the orchestrator.
type PipelineConfig struct {
	MaxIterations   int  `koanf:"max_iterations"`
	Parallelism     int  `koanf:"parallelism"`
	DependencyOrder bool `koanf:"dependency_order"`
}

// QualityConfig gates the individual Quality Gate steps.
type QualityConfig struct {
	Linting      bool     `koanf:"linting"`
	TypeChecking bool     `koanf:"type_checking"`
	SecurityScan bool     `koanf:"security_scan"`
	Formatting   bool     `koanf:"formatting"`
	ToolTimeout  Duration `koanf:"tool_timeout"`
}

// OutputConfig controls where generated projects are written.
type OutputConfig struct {
	Dir            string `koanf:"dir"`
	GitIntegration bool   `koanf:"git_integration"`
}

// MemoryConfig controls the vector memory of accepted components.
type MemoryConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Path           string `koanf:"path"`
	EmbeddingModel string `koanf:"embedding_model"`
	Results        int    `koanf:"results"`
}

// EventsConfig controls progress publishing to NATS.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	MaxJobs         int      `koanf:"max_jobs"`
}

// TemporalConfig holds the durable-workflow connection.
type TemporalConfig struct {
	Host      string `koanf:"host"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// LoggingConfig is the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
	Verbose bool   `koanf:"verbose"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"`
	Insecure        bool    `koanf:"insecure"`
	ServiceName     string  `koanf:"service_name"`
	SampleRate      float64 `koanf:"sample_rate"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Backend:    BackendOllama,
			Host:       "http://localhost:11434",
			Timeout:    Duration(300 * time.Second),
			RetryDelay: Duration(2 * time.Second),
			Burst:      1,
		},
		Agents: AgentsConfig{
			Architect:     RoleConfig{Model: "llama3.1:70b", Temperature: 0.7},
			Coder:         RoleConfig{Model: "deepseek-coder:33b", Temperature: 0.2},
			Reviewer:      RoleConfig{Model: "codellama:34b", Temperature: 0.3},
			TestGenerator: RoleConfig{Model: "deepseek-coder:33b", Temperature: 0.2},
		},
		Pipeline: PipelineConfig{
			MaxIterations: 3,
			Parallelism:   1,
		},
		Quality: QualityConfig{
			Linting:      true,
			TypeChecking: true,
			SecurityScan: true,
			Formatting:   true,
			ToolTimeout:  Duration(30 * time.Second),
		},
		Output: OutputConfig{
			Dir: "./generated_projects",
		},
		Memory: MemoryConfig{
			Path:           "~/.config/airo/memory",
			EmbeddingModel: "nomic-embed-text",
			Results:        3,
		},
		Events: EventsConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "airo.projects",
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
			MaxJobs:         128,
		},
		Temporal: TemporalConfig{
			Host:      "localhost:7233",
			Namespace: "default",
			TaskQueue: "airo-projects",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Observability: ObservabilityConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "airo",
			SampleRate:  1.0,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case BackendOllama, BackendOpenAI, BackendGemini, BackendFake:
	default:
		return fmt.Errorf("unknown model backend %q", c.Model.Backend)
	}
	if c.Model.Backend != BackendFake && c.Model.Backend != BackendGemini {
		if _, err := url.ParseRequestURI(c.Model.Host); err != nil {
			return fmt.Errorf("invalid model host %q: %w", c.Model.Host, err)
		}
	}
	if c.Model.Backend == BackendGemini && !c.Model.APIKey.IsSet() {
		return errors.New("model.api_key is required for the gemini backend")
	}
	if c.Model.Timeout.Duration() <= 0 {
		return errors.New("model timeout must be positive")
	}
	if c.Model.TransportRetries < 0 {
		return fmt.Errorf("model.transport_retries must be >= 0, got %d", c.Model.TransportRetries)
	}
	if c.Model.RateLimit < 0 {
		return fmt.Errorf("model.rate_limit must be >= 0, got %f", c.Model.RateLimit)
	}

	roles := map[string]RoleConfig{
		"architect":      c.Agents.Architect,
		"coder":          c.Agents.Coder,
		"reviewer":       c.Agents.Reviewer,
		"test_generator": c.Agents.TestGenerator,
	}
	for name, role := range roles {
		if role.Model == "" {
			return fmt.Errorf("agents.%s.model is required", name)
		}
		if role.Temperature < 0 || role.Temperature > 1 {
			return fmt.Errorf("agents.%s.temperature must be between 0 and 1, got %g", name, role.Temperature)
		}
		if role.MaxTokens < 0 {
			return fmt.Errorf("agents.%s.max_tokens must be >= 0", name)
		}
	}

	if c.Pipeline.MaxIterations < 1 {
		return fmt.Errorf("pipeline.max_iterations must be >= 1, got %d", c.Pipeline.MaxIterations)
	}
	if c.Pipeline.Parallelism < 1 {
		return fmt.Errorf("pipeline.parallelism must be >= 1, got %d", c.Pipeline.Parallelism)
	}
	if c.Quality.ToolTimeout.Duration() <= 0 {
		return errors.New("quality.tool_timeout must be positive")
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	if c.Memory.Enabled && c.Memory.Results < 1 {
		return errors.New("memory.results must be >= 1 when memory is enabled")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return errors.New("events.url is required when events are enabled")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.MaxJobs < 1 {
		return errors.New("server.max_jobs must be >= 1")
	}
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	return nil
}
