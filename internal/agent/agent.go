// Package agent documents individual modules. A documentation agent writes
// one module's document; while it runs it may ask a Spawner to split its
// module into sub-modules, each documented by its own agent before the
// parent continues.
package agent

import (
	"context"

	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/supplementary"
)

// Task is one module for an agent to document.
type Task struct {
	// Name is the module name; the document is written as <Name>.md.
	Name  string
	Scope Scope
	// ComponentIDs are the module's core components.
	ComponentIDs []string
	// Tree is the working tree. Spawners extend it in place, so an agent
	// reading it after a spawn sees the new sub-modules.
	Tree moduletree.Tree
	// Supplementary holds the supplementary files relevant to this module.
	Supplementary supplementary.Files
}

// Spawner documents sub-modules on behalf of a running agent.
type Spawner interface {
	// Spawn records every sub-module in the working tree under the agent's
	// module, then documents each one in name order. The first failure is
	// returned immediately. On success it returns a confirmation naming the
	// documents written.
	Spawn(ctx context.Context, specs map[string][]string) (string, error)
}

// Agent writes the document for one module. A nil spawner means the module
// must be documented directly.
type Agent interface {
	Document(ctx context.Context, task Task, spawner Spawner) error
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, task Task, spawner Spawner) error

// Document calls f.
func (f AgentFunc) Document(ctx context.Context, task Task, spawner Spawner) error {
	return f(ctx, task, spawner)
}
