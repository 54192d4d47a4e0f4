package docgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aniruddha-adhikary/CodeWiki/internal/agent"
	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/prompt"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tagparse"
	"github.com/aniruddha-adhikary/CodeWiki/internal/util"
)

// TargetFlag marks the module whose overview is being written.
const TargetFlag = "is_target_for_overview_generation"

// synthesizeOverview writes the overview of the parent module at path from
// its children's documents. An empty path writes the repository overview.
func (d *Driver) synthesizeOverview(ctx context.Context, path []string, name string, working moduletree.Tree) (agent.Outcome, error) {
	log := d.logger.WithModule(path)
	root := len(path) == 0

	if d.store.Exists(artifact.Overview) {
		log.Info("overview already exists, skipping", "module_name", name)
		return agent.Skipped, nil
	}
	if !root && d.store.DocExists(name) {
		log.Info("module document already exists, skipping", "module_name", name)
		return agent.Skipped, nil
	}

	structure, err := d.overviewStructure(path, working)
	if err != nil {
		return agent.Generated, cwerrors.NewGenerationError("failed to build module structure", err).WithModule(path)
	}

	in := prompt.OverviewInput{Name: name, Structure: structure, Blocks: d.blocks()}
	var text string
	if root {
		text, err = prompt.RepoOverview(in)
	} else {
		text, err = prompt.ModuleOverview(in)
	}
	if err != nil {
		return agent.Generated, cwerrors.NewGenerationError("failed to build overview prompt", err).WithModule(path)
	}

	resp, err := d.gen.Generate(ctx, text)
	if err != nil {
		return agent.Generated, cwerrors.NewGenerationError("overview request failed", err).WithModule(path)
	}
	if strings.TrimSpace(resp) == "" {
		return agent.Generated, cwerrors.NewGenerationError("empty overview response", cwerrors.ErrEmptyResponse).WithModule(path)
	}

	content, found, err := tagparse.ExtractOr(resp, tagparse.TagOverview)
	if err != nil {
		return agent.Generated, cwerrors.NewGenerationError("overview is empty", cwerrors.ErrEmptyContent).WithModule(path)
	}
	if !found {
		log.Warn("overview response has no OVERVIEW block, using raw response", "module_name", name, "response", util.Preview(resp, 200))
	}

	if root {
		err = d.store.WriteOverview(content)
	} else {
		err = d.store.WriteDoc(name, content)
	}
	if err != nil {
		return agent.Generated, cwerrors.NewGenerationError("failed to save overview", err).WithModule(path)
	}
	log.Info("overview saved", "module_name", name)
	return agent.Generated, nil
}

// overviewStructure renders a deep copy of the working tree with the target
// flagged and each of its direct children carrying its document under
// "docs". For the repository overview every top-level module carries its
// document.
func (d *Driver) overviewStructure(path []string, working moduletree.Tree) (string, error) {
	data, err := json.Marshal(working)
	if err != nil {
		return "", err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return "", err
	}

	children := tree
	for i, part := range path {
		node, ok := children[part].(map[string]any)
		if !ok {
			return "", cwerrors.NewNotFoundError("module", cwerrors.FormatPath(path))
		}
		if i == len(path)-1 {
			node[TargetFlag] = true
		}
		children, _ = node["children"].(map[string]any)
	}

	log := d.logger.WithModule(path)
	for child, raw := range children {
		node, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		doc, err := d.store.ReadDoc(child)
		if err != nil {
			log.Warn("child documentation missing", "child", child)
			doc = fmt.Sprintf("(Documentation for %s was not generated)", child)
		}
		node["docs"] = doc
	}

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
