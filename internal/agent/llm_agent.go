package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/component"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/llm"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/prompt"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tagparse"
	"github.com/aniruddha-adhikary/CodeWiki/internal/util"
)

// DefaultMaxTurns is used when LLMAgentOptions.MaxTurns is not positive.
const DefaultMaxTurns = 4

// LLMAgentOptions configures an LLMAgent.
type LLMAgentOptions struct {
	Generator  llm.Generator
	Store      *artifact.Store
	Components component.Set
	// MaxTurns bounds the responses one agent may give.
	MaxTurns          int
	Blocks            prompt.Blocks
	SupplementaryRole string
	Logger            *logging.Logger
}

// LLMAgent documents a module through a short request/response loop with
// the text-generation backend. Each response may request component sources
// (READ_COMPONENTS), delegate sub-modules (SUB_MODULES, only when a spawner
// is available) or deliver the document (DOCUMENTATION).
type LLMAgent struct {
	gen               llm.Generator
	store             *artifact.Store
	components        component.Set
	maxTurns          int
	blocks            prompt.Blocks
	supplementaryRole string
	logger            *logging.Logger
}

// NewLLMAgent creates an LLMAgent.
func NewLLMAgent(opts LLMAgentOptions) *LLMAgent {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	turns := opts.MaxTurns
	if turns <= 0 {
		turns = DefaultMaxTurns
	}
	return &LLMAgent{
		gen:               opts.Generator,
		store:             opts.Store,
		components:        opts.Components,
		maxTurns:          turns,
		blocks:            opts.Blocks,
		supplementaryRole: opts.SupplementaryRole,
		logger:            logger,
	}
}

// Document implements Agent.
func (a *LLMAgent) Document(ctx context.Context, task Task, spawner Spawner) error {
	log := a.logger.WithModule(task.Scope.Path())
	path := task.Scope.Path()

	first, err := a.firstPrompt(task, spawner != nil)
	if err != nil {
		return cwerrors.NewGenerationError("failed to build prompt", err).WithModule(path)
	}

	transcript := first
	for turn := 1; turn <= a.maxTurns; turn++ {
		resp, err := a.gen.Generate(ctx, transcript)
		if err != nil {
			return cwerrors.NewGenerationError("generation request failed", err).WithModule(path)
		}
		if strings.TrimSpace(resp) == "" {
			return cwerrors.NewGenerationError("empty response", cwerrors.ErrEmptyResponse).WithModule(path)
		}

		doc, err := tagparse.Extract(resp, tagparse.TagDocumentation)
		switch {
		case err == nil:
			return a.write(task, doc)
		case errors.Is(err, tagparse.ErrEmptyBody):
			return cwerrors.NewGenerationError("documentation block is empty", cwerrors.ErrEmptyContent).WithModule(path)
		}

		results, err := a.handleRequests(ctx, resp, spawner)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			log.Warn("response has no documentation block, using raw response", "turn", turn, "response", util.Preview(resp, 200))
			return a.write(task, resp)
		}

		remaining := a.maxTurns - turn
		if remaining == 0 {
			break
		}
		followUp, err := prompt.AgentFollowUp(prompt.FollowUpInput{
			ModuleName: task.Name,
			Results:    results,
			Remaining:  remaining,
		})
		if err != nil {
			return cwerrors.NewGenerationError("failed to build follow-up prompt", err).WithModule(path)
		}
		transcript += "\n\n<PREVIOUS_RESPONSE>\n" + resp + "\n</PREVIOUS_RESPONSE>\n\n" + followUp
		log.Debug("agent turn finished", "turn", turn, "results", len(results))
	}

	return cwerrors.NewGenerationError(
		fmt.Sprintf("no documentation after %d responses", a.maxTurns),
		cwerrors.ErrTurnLimit,
	).WithModule(path)
}

func (a *LLMAgent) firstPrompt(task Task, canSpawn bool) (string, error) {
	treeJSON, err := json.MarshalIndent(task.Tree, "", "  ")
	if err != nil {
		return "", err
	}
	supp := make([]prompt.SupplementaryFile, 0, len(task.Supplementary))
	for _, p := range task.Supplementary.Paths() {
		supp = append(supp, prompt.SupplementaryFile{Path: p, Content: task.Supplementary[p]})
	}
	return prompt.Documentation(prompt.DocumentationInput{
		ModuleName:        task.Name,
		Path:              task.Scope.Path(),
		Complex:           canSpawn,
		CoreComponents:    a.components.FormatSources(task.ComponentIDs),
		ModuleTree:        string(treeJSON),
		MaxTurns:          a.maxTurns,
		Supplementary:     supp,
		SupplementaryRole: a.supplementaryRole,
		Blocks:            a.blocks,
	})
}

// handleRequests runs the requests in resp and returns their results. A
// spawn failure is returned as is, so it reaches the caller unchanged.
func (a *LLMAgent) handleRequests(ctx context.Context, resp string, spawner Spawner) ([]prompt.ToolResult, error) {
	var results []prompt.ToolResult

	if tagparse.Has(resp, tagparse.TagSubModules) {
		if spawner == nil {
			results = append(results, prompt.ToolResult{
				Name: tagparse.TagSubModules,
				Body: "Delegation is not available for this module. Document it directly.",
			})
		} else {
			var specs map[string][]string
			if err := tagparse.ExtractJSON(resp, tagparse.TagSubModules, &specs); err != nil {
				results = append(results, prompt.ToolResult{
					Name: tagparse.TagSubModules,
					Body: "Could not parse sub-modules: " + err.Error(),
				})
			} else {
				confirmation, err := spawner.Spawn(ctx, specs)
				if err != nil {
					return nil, err
				}
				results = append(results, prompt.ToolResult{Name: tagparse.TagSubModules, Body: confirmation})
			}
		}
	}

	if tagparse.Has(resp, tagparse.TagReadComponents) {
		body, _ := tagparse.Extract(resp, tagparse.TagReadComponents)
		results = append(results, prompt.ToolResult{
			Name: tagparse.TagReadComponents,
			Body: a.readComponents(body),
		})
	}
	return results, nil
}

func (a *LLMAgent) readComponents(body string) string {
	var ids []string
	for _, line := range strings.Split(body, "\n") {
		id := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if id != "" {
			ids = append(ids, id)
		}
	}
	known, unknown := a.components.Known(ids)

	var sb strings.Builder
	sb.WriteString(a.components.FormatSources(known))
	for _, id := range unknown {
		fmt.Fprintf(&sb, "Component %s not found.\n", id)
	}
	if sb.Len() == 0 {
		return "No components requested."
	}
	return sb.String()
}

func (a *LLMAgent) write(task Task, doc string) error {
	if strings.TrimSpace(doc) == "" {
		return cwerrors.NewGenerationError("documentation is empty", cwerrors.ErrEmptyContent).WithModule(task.Scope.Path())
	}
	if err := a.store.WriteDoc(task.Name, doc); err != nil {
		return cwerrors.NewGenerationError("failed to save documentation", err).WithModule(task.Scope.Path())
	}
	a.logger.WithModule(task.Scope.Path()).Info("documentation saved", "file", artifact.DocName(task.Name))
	return nil
}
