package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedGenerator is a text generator for tests. Responses are chosen by
// the first registered rule whose marker occurs in the prompt; every prompt
// is recorded.
type ScriptedGenerator struct {
	mu       sync.Mutex
	rules    []*rule
	fallback *rule
	prompts  []string
}

type rule struct {
	marker    string
	responses []string
	err       error
	used      int
}

func (r *rule) next() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	i := r.used
	if i >= len(r.responses) {
		i = len(r.responses) - 1
	}
	r.used++
	return r.responses[i], nil
}

// NewScriptedGenerator creates a generator with no rules.
func NewScriptedGenerator() *ScriptedGenerator {
	return &ScriptedGenerator{}
}

// On answers prompts containing marker with responses in order, repeating
// the last one once they run out.
func (g *ScriptedGenerator) On(marker string, responses ...string) *ScriptedGenerator {
	if len(responses) == 0 {
		responses = []string{""}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, &rule{marker: marker, responses: responses})
	return g
}

// OnError fails prompts containing marker with err.
func (g *ScriptedGenerator) OnError(marker string, err error) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, &rule{marker: marker, err: err})
	return g
}

// Default answers prompts no rule matches.
func (g *ScriptedGenerator) Default(responses ...string) *ScriptedGenerator {
	if len(responses) == 0 {
		responses = []string{""}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fallback = &rule{responses: responses}
	return g
}

// Generate implements llm.Generator.
func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range g.rules {
		if strings.Contains(prompt, r.marker) {
			return r.next()
		}
	}
	if g.fallback != nil {
		return g.fallback.next()
	}
	return "", fmt.Errorf("no scripted response for prompt: %.80q", prompt)
}

// Calls returns the number of Generate calls.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompts returns a copy of every prompt received, in order.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// CallsMatching returns how many prompts contained marker.
func (g *ScriptedGenerator) CallsMatching(marker string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}
