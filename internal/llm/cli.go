package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// BackendName identifies a command-line generation backend.
type BackendName string

const (
	BackendClaude BackendName = "claude"
	BackendCodex  BackendName = "codex"
)

// Runner executes a command with the given stdin and returns its stdout.
type Runner func(ctx context.Context, name string, args []string, stdin string) (string, error)

// CLIGenerator generates text by running a one-shot agent CLI with the
// prompt on stdin.
type CLIGenerator struct {
	backend BackendName
	command string
	model   string
	run     Runner
}

// NewClaudeGenerator runs `claude --print`.
func NewClaudeGenerator(command, model string) *CLIGenerator {
	if command == "" {
		command = "claude"
	}
	return &CLIGenerator{backend: BackendClaude, command: command, model: model, run: execRunner}
}

// NewCodexGenerator runs `codex exec --full-auto`.
func NewCodexGenerator(command, model string) *CLIGenerator {
	if command == "" {
		command = "codex"
	}
	return &CLIGenerator{backend: BackendCodex, command: command, model: model, run: execRunner}
}

// WithRunner replaces the process runner. Used by tests.
func (c *CLIGenerator) WithRunner(run Runner) *CLIGenerator {
	c.run = run
	return c
}

// Name returns the backend name.
func (c *CLIGenerator) Name() BackendName { return c.backend }

// Args returns the arguments passed to the command.
func (c *CLIGenerator) Args() []string {
	var args []string
	switch c.backend {
	case BackendClaude:
		args = []string{"--print"}
		if c.model != "" {
			args = append(args, "--model", c.model)
		}
	case BackendCodex:
		args = []string{"exec", "--full-auto"}
		if c.model != "" {
			args = append(args, "--model", c.model)
		}
		// "-" makes codex read the prompt from stdin.
		args = append(args, "-")
	}
	return args
}

// Generate implements Generator.
func (c *CLIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.run(ctx, c.command, c.Args(), prompt)
	if err != nil {
		return "", fmt.Errorf("%s backend failed: %w", c.backend, err)
	}
	return out, nil
}

func execRunner(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
