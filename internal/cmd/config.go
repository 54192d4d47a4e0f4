package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aniruddha-adhikary/CodeWiki/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View CodeWiki configuration",
	Long: `View the effective CodeWiki configuration or create a config file.

Values come from, in increasing priority: built-in defaults, the config file,
CODEWIKI_* environment variables, and command flags.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "repo_path: %s\n", cfg.RepoPath)
	fmt.Fprintf(out, "docs_dir: %s\n", cfg.DocsDir)
	fmt.Fprintf(out, "components_file: %s\n", cfg.ComponentsFile)
	fmt.Fprintf(out, "commit_id: %s\n", cfg.CommitID)
	fmt.Fprintf(out, "projection: %s\n", cfg.Projection)

	fmt.Fprintln(out, "clustering:")
	fmt.Fprintf(out, "  max_tokens_per_module: %d\n", cfg.Clustering.MaxTokensPerModule)
	fmt.Fprintf(out, "  max_tokens_per_leaf_module: %d\n", cfg.Clustering.MaxTokensPerLeafModule)

	fmt.Fprintln(out, "generation:")
	fmt.Fprintf(out, "  max_depth: %d\n", cfg.Generation.MaxDepth)
	fmt.Fprintf(out, "  agent_max_turns: %d\n", cfg.Generation.AgentMaxTurns)
	fmt.Fprintf(out, "  custom_instructions: %q\n", cfg.Generation.CustomInstructions)

	fmt.Fprintln(out, "llm:")
	fmt.Fprintf(out, "  backend: %s\n", cfg.LLM.Backend)
	fmt.Fprintf(out, "  model: %s\n", cfg.LLM.Model)
	fmt.Fprintf(out, "  base_url: %s\n", cfg.LLM.BaseURL)
	fmt.Fprintf(out, "  api_key_env: %s\n", cfg.LLM.APIKeyEnv)
	fmt.Fprintf(out, "  command: %s\n", cfg.LLM.Command)
	fmt.Fprintf(out, "  temperature: %g\n", cfg.LLM.Temperature)
	fmt.Fprintf(out, "  timeout_seconds: %d\n", cfg.LLM.TimeoutSeconds)
	fmt.Fprintf(out, "  requests_per_minute: %d\n", cfg.LLM.RequestsPerMinute)

	fmt.Fprintln(out, "tokens:")
	fmt.Fprintf(out, "  encoding: %s\n", cfg.Tokens.Encoding)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configContent := `# CodeWiki Configuration

# Directory documentation is written to (relative to the working directory)
docs_dir: docs

# Built-in projection name or path to a projection file; empty for none
projection: ""

clustering:
  # Component sets whose formatted source fits under this many tokens are
  # not subdivided further
  max_tokens_per_module: 36369
  # Sub-modules at or above this size are documented as complex modules
  max_tokens_per_leaf_module: 16000

generation:
  # Deepest level a sub-module agent may itself spawn sub-modules from
  max_depth: 2
  # Request/response turns allowed per documentation agent
  agent_max_turns: 4

llm:
  # Options: openai, claude, codex
  backend: openai
  model: gpt-4o-mini
  # Environment variable holding the API key (openai backend)
  api_key_env: OPENAI_API_KEY
  timeout_seconds: 300
  # Throttle generation calls; 0 disables throttling
  requests_per_minute: 0

logging:
  enabled: true
  level: info
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/codewiki/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: CODEWIKI_* (e.g., CODEWIKI_LLM_MODEL)")

	return nil
}
