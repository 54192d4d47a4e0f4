// Package llm provides the text-generation collaborator the pipeline uses for
// clustering, documentation, and overview synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/aniruddha-adhikary/CodeWiki/internal/config"
)

// Generator turns a prompt into text. Implementations may fail with transient
// errors; callers decide how to treat empty or malformed text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrUnknownBackend is returned when the configured backend is unsupported.
var ErrUnknownBackend = errors.New("unknown llm backend")

// NewFromConfig builds a Generator from configuration, wrapped with the
// configured per-call timeout.
func NewFromConfig(cfg *config.Config) (Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing config")
	}

	var gen Generator
	switch strings.ToLower(cfg.LLM.Backend) {
	case config.BackendOpenAI, "":
		apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable not set", cfg.LLM.APIKeyEnv)
		}
		gen = NewOpenAIGenerator(OpenAIOptions{
			APIKey:      apiKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: float32(cfg.LLM.Temperature),
		})
	case config.BackendClaude:
		gen = NewClaudeGenerator(cfg.LLM.Command, cfg.LLM.Model)
	case config.BackendCodex:
		gen = NewCodexGenerator(cfg.LLM.Command, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.LLM.Backend)
	}

	if cfg.LLM.TimeoutSeconds > 0 {
		gen = WithTimeout(gen, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	}
	if cfg.LLM.RequestsPerMinute > 0 {
		gen = WithRateLimit(gen, rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.LLM.RequestsPerMinute)), 1))
	}
	return gen, nil
}

// WithRateLimit waits for limiter before every call to gen. The wait is
// outside any timeout applied by gen itself.
func WithRateLimit(gen Generator, limiter *rate.Limiter) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limit: %w", err)
		}
		return gen.Generate(ctx, prompt)
	})
}

// WithTimeout bounds every call to gen by d.
func WithTimeout(gen Generator, d time.Duration) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return gen.Generate(ctx, prompt)
	})
}

// Counting wraps a Generator and counts calls. It is safe for concurrent use.
type Counting struct {
	next  Generator
	calls atomic.Int64
}

// NewCounting wraps next.
func NewCounting(next Generator) *Counting {
	return &Counting{next: next}
}

// Generate forwards to the wrapped generator and counts the call, whether or
// not it succeeds.
func (c *Counting) Generate(ctx context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	return c.next.Generate(ctx, prompt)
}

// Calls returns the number of Generate calls so far.
func (c *Counting) Calls() int {
	return int(c.calls.Load())
}
