package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete codewiki configuration
type Config struct {
	// RepoPath is the repository being documented. Its base name is the
	// repository name used for the whole-repo document.
	RepoPath string `mapstructure:"repo_path"`
	// DocsDir is the artifact directory (relative paths resolve against the
	// working directory).
	DocsDir string `mapstructure:"docs_dir"`
	// ComponentsFile is the dependency analyzer output feeding the component graph.
	ComponentsFile string `mapstructure:"components_file"`
	// CommitID is recorded in the run metadata.
	CommitID string `mapstructure:"commit_id"`
	// Projection is a built-in projection name or a path to a projection file.
	Projection string `mapstructure:"projection"`

	Clustering ClusteringConfig `mapstructure:"clustering"`
	Generation GenerationConfig `mapstructure:"generation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Tokens     TokensConfig     `mapstructure:"tokens"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ClusteringConfig controls how the component set is partitioned into modules
type ClusteringConfig struct {
	// MaxTokensPerModule is the clustering budget: component sets whose
	// formatted source fits under it are not subdivided (default: 36369)
	MaxTokensPerModule int `mapstructure:"max_tokens_per_module"`
	// MaxTokensPerLeafModule is the size at or above which a spawned
	// sub-module may be documented as a complex module (default: 16000)
	MaxTokensPerLeafModule int `mapstructure:"max_tokens_per_leaf_module"`
}

// GenerationConfig controls the documentation agents
type GenerationConfig struct {
	// MaxDepth is the deepest level a sub-module agent may itself spawn
	// sub-modules from (default: 2)
	MaxDepth int `mapstructure:"max_depth"`
	// AgentMaxTurns bounds the request/response turns of a single agent (default: 4)
	AgentMaxTurns int `mapstructure:"agent_max_turns"`
	// CustomInstructions are appended to every documentation prompt
	CustomInstructions string `mapstructure:"custom_instructions"`
}

// LLMConfig selects and configures the text-generation backend
type LLMConfig struct {
	// Backend is one of "openai", "claude", "codex" (default: "openai")
	Backend string `mapstructure:"backend"`
	// Model is the model name passed to the backend and recorded in metadata
	Model string `mapstructure:"model"`
	// BaseURL overrides the OpenAI-compatible endpoint
	BaseURL string `mapstructure:"base_url"`
	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Command overrides the CLI binary for the claude and codex backends
	Command string `mapstructure:"command"`
	// Temperature is the sampling temperature for the openai backend
	Temperature float64 `mapstructure:"temperature"`
	// TimeoutSeconds bounds a single generation call, 0 = no limit
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// RequestsPerMinute throttles generation calls, 0 = unthrottled
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// TokensConfig controls token counting
type TokensConfig struct {
	// Encoding is the tiktoken encoding name (default: "cl100k_base")
	Encoding string `mapstructure:"encoding"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written under <docs_dir>/.codewiki (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the size at which the log file is rotated, 0 = no rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		RepoPath:       ".",
		DocsDir:        "docs",
		ComponentsFile: "",
		CommitID:       "",
		Projection:     "",
		Clustering: ClusteringConfig{
			MaxTokensPerModule:     36369,
			MaxTokensPerLeafModule: 16000,
		},
		Generation: GenerationConfig{
			MaxDepth:           2,
			AgentMaxTurns:      4,
			CustomInstructions: "",
		},
		LLM: LLMConfig{
			Backend:        BackendOpenAI,
			Model:          "gpt-4o-mini",
			BaseURL:        "",
			APIKeyEnv:      "OPENAI_API_KEY",
			Command:        "",
			Temperature:    0,
			TimeoutSeconds: 300,
		},
		Tokens: TokensConfig{
			Encoding: "cl100k_base",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Backend names accepted by llm.backend
const (
	BackendOpenAI = "openai"
	BackendClaude = "claude"
	BackendCodex  = "codex"
)

// ValidBackends returns the list of valid llm.backend values
func ValidBackends() []string {
	return []string{BackendOpenAI, BackendClaude, BackendCodex}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("repo_path", defaults.RepoPath)
	viper.SetDefault("docs_dir", defaults.DocsDir)
	viper.SetDefault("components_file", defaults.ComponentsFile)
	viper.SetDefault("commit_id", defaults.CommitID)
	viper.SetDefault("projection", defaults.Projection)

	// Clustering defaults
	viper.SetDefault("clustering.max_tokens_per_module", defaults.Clustering.MaxTokensPerModule)
	viper.SetDefault("clustering.max_tokens_per_leaf_module", defaults.Clustering.MaxTokensPerLeafModule)

	// Generation defaults
	viper.SetDefault("generation.max_depth", defaults.Generation.MaxDepth)
	viper.SetDefault("generation.agent_max_turns", defaults.Generation.AgentMaxTurns)
	viper.SetDefault("generation.custom_instructions", defaults.Generation.CustomInstructions)

	// LLM defaults
	viper.SetDefault("llm.backend", defaults.LLM.Backend)
	viper.SetDefault("llm.model", defaults.LLM.Model)
	viper.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	viper.SetDefault("llm.api_key_env", defaults.LLM.APIKeyEnv)
	viper.SetDefault("llm.command", defaults.LLM.Command)
	viper.SetDefault("llm.temperature", defaults.LLM.Temperature)
	viper.SetDefault("llm.timeout_seconds", defaults.LLM.TimeoutSeconds)
	viper.SetDefault("llm.requests_per_minute", defaults.LLM.RequestsPerMinute)

	// Token defaults
	viper.SetDefault("tokens.encoding", defaults.Tokens.Encoding)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ResolveDocsDir returns the absolute artifact directory. A leading ~ expands
// to the user's home directory; relative paths resolve against baseDir.
func (c *Config) ResolveDocsDir(baseDir string) string {
	return resolvePath(c.DocsDir, baseDir)
}

// ResolveRepoPath returns the absolute repository path.
func (c *Config) ResolveRepoPath(baseDir string) string {
	return resolvePath(c.RepoPath, baseDir)
}

// RepoName returns the repository name: the base name of the resolved repo path.
func (c *Config) RepoName(baseDir string) string {
	return filepath.Base(c.ResolveRepoPath(baseDir))
}

// LogDir returns the directory debug logs are written to.
func (c *Config) LogDir(baseDir string) string {
	return filepath.Join(c.ResolveDocsDir(baseDir), ".codewiki")
}

func resolvePath(path, baseDir string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return filepath.Clean(path)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codewiki")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codewiki"
	}
	return filepath.Join(home, ".config", "codewiki")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
