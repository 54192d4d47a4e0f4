package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is one invalid configuration value.
type ValidationError struct {
	Field   string // dotted key, e.g. "clustering.max_tokens_per_module"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is returned by Load when any value is invalid.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// maxLogSizeMB caps logging.max_size_mb.
const maxLogSizeMB = 1000

// checks accumulates validation failures.
type checks []ValidationError

// require records a failure on field unless ok holds.
func (c *checks) require(ok bool, field string, value any, format string, args ...any) {
	if !ok {
		*c = append(*c, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
	}
}

// Validate returns every invalid value in c; nil means c is usable.
func (c *Config) Validate() []ValidationError {
	var errs checks
	errs.require(strings.TrimSpace(c.DocsDir) != "", "docs_dir", c.DocsDir, "must not be empty")

	errs = append(errs, c.validateClustering()...)
	errs = append(errs, c.validateGeneration()...)
	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateClustering() []ValidationError {
	var errs checks
	module, leaf := c.Clustering.MaxTokensPerModule, c.Clustering.MaxTokensPerLeafModule

	errs.require(module > 0, "clustering.max_tokens_per_module", module, "must be positive")
	errs.require(leaf > 0, "clustering.max_tokens_per_leaf_module", leaf, "must be positive")
	if module > 0 && leaf > 0 {
		errs.require(leaf <= module, "clustering.max_tokens_per_leaf_module", leaf,
			"must not exceed clustering.max_tokens_per_module (%d)", module)
	}
	return errs
}

func (c *Config) validateGeneration() []ValidationError {
	var errs checks
	errs.require(c.Generation.MaxDepth >= 1, "generation.max_depth", c.Generation.MaxDepth, "must be at least 1")
	errs.require(c.Generation.AgentMaxTurns >= 1, "generation.agent_max_turns", c.Generation.AgentMaxTurns, "must be at least 1")
	return errs
}

func (c *Config) validateLLM() []ValidationError {
	var errs checks
	llm := c.LLM

	errs.require(slices.Contains(ValidBackends(), llm.Backend), "llm.backend", llm.Backend,
		"must be one of: %s", strings.Join(ValidBackends(), ", "))
	if llm.Backend == BackendOpenAI {
		errs.require(strings.TrimSpace(llm.Model) != "", "llm.model", llm.Model, "must be set for the openai backend")
	}
	errs.require(llm.Temperature >= 0 && llm.Temperature <= 2, "llm.temperature", llm.Temperature, "must be between 0 and 2")
	errs.require(llm.TimeoutSeconds >= 0, "llm.timeout_seconds", llm.TimeoutSeconds, "must be non-negative")
	errs.require(llm.RequestsPerMinute >= 0, "llm.requests_per_minute", llm.RequestsPerMinute, "must be non-negative")
	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs checks
	log := c.Logging

	if log.Level != "" {
		errs.require(slices.Contains(ValidLogLevels(), strings.ToLower(log.Level)), "logging.level", log.Level,
			"must be one of: %s", strings.Join(ValidLogLevels(), ", "))
	}
	errs.require(log.MaxSizeMB >= 0, "logging.max_size_mb", log.MaxSizeMB, "must be non-negative")
	errs.require(log.MaxSizeMB <= maxLogSizeMB, "logging.max_size_mb", log.MaxSizeMB, "exceeds maximum of %dMB", maxLogSizeMB)
	errs.require(log.MaxBackups >= 0, "logging.max_backups", log.MaxBackups, "must be non-negative")
	return errs
}
