package component

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

// Graph is the analyzer output the pipeline consumes: every component plus
// the ids of the leaf components that clustering partitions.
type Graph struct {
	Components Set
	LeafIDs    []string
}

// analysisDocument accepts both analyzer layouts: a node list
// ({"nodes": [...]}) or a component map with an explicit leaf list.
type analysisDocument struct {
	Nodes      []Component          `json:"nodes"`
	Components map[string]Component `json:"components"`
	LeafNodes  []string             `json:"leaf_nodes"`
}

// Load reads an analyzer document from fs.
func Load(fs afero.Fs, path string) (*Graph, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, cwerrors.NewArtifactError("failed to read components file", err).WithPath(path)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, cwerrors.NewArtifactError("failed to parse components file", err).WithPath(path)
	}
	return g, nil
}

// Parse decodes an analyzer document. When no leaf list is given the leaves
// are the components no other component depends on; if every component is
// depended upon (a cycle) all components are leaves.
func Parse(data []byte) (*Graph, error) {
	var doc analysisDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cwerrors.ErrArtifactCorrupted, err)
	}

	set := make(Set, len(doc.Nodes)+len(doc.Components))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return nil, cwerrors.NewValidationError("component without id").WithField("nodes").WithValue(n.Name)
		}
		set[n.ID] = n
	}
	for id, c := range doc.Components {
		if c.ID == "" {
			c.ID = id
		}
		set[id] = c
	}

	leaves := doc.LeafNodes
	if len(leaves) == 0 {
		leaves = inferLeaves(set)
	} else {
		known, unknown := set.Known(leaves)
		if len(unknown) > 0 {
			return nil, cwerrors.NewNotFoundError("component", unknown[0]).WithCause(cwerrors.ErrUnknownComponent)
		}
		leaves = known
	}

	return &Graph{Components: set, LeafIDs: leaves}, nil
}

func inferLeaves(set Set) []string {
	dependedOn := make(map[string]bool)
	for _, c := range set {
		for _, dep := range c.DependsOn {
			if dep != c.ID {
				dependedOn[dep] = true
			}
		}
	}

	var leaves, all []string
	for id := range set {
		all = append(all, id)
		if !dependedOn[id] {
			leaves = append(leaves, id)
		}
	}
	if len(leaves) == 0 {
		leaves = all
	}
	sort.Strings(leaves)
	return leaves
}
