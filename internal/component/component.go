// Package component holds the immutable code-component model the pipeline
// documents, and loads it from dependency analyzer output.
package component

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Component is a single unit of source code discovered by the dependency
// analyzer (a type, function, or method). Components are never mutated by
// the pipeline.
type Component struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ComponentType string   `json:"component_type,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	FilePath      string   `json:"file_path,omitempty"`
	RelativePath  string   `json:"relative_path"`
	SourceCode    string   `json:"source_code,omitempty"`
	DependsOn     []string `json:"depends_on,omitempty"`
	Parameters    []string `json:"parameters,omitempty"`
}

// Label returns the display name, falling back to the plain name and then the id.
func (c Component) Label() string {
	switch {
	case c.DisplayName != "":
		return c.DisplayName
	case c.Name != "":
		return c.Name
	default:
		return c.ID
	}
}

// Dir returns the slash-separated directory of the component's file, "" for
// files at the repository root.
func (c Component) Dir() string {
	dir := path.Dir(toSlash(c.RelativePath))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Set maps component ids to components.
type Set map[string]Component

// Lookup returns the component for id.
func (s Set) Lookup(id string) (Component, bool) {
	c, ok := s[id]
	return c, ok
}

// Known splits ids into those present in the set and those that are not,
// preserving input order.
func (s Set) Known(ids []string) (known, unknown []string) {
	for _, id := range ids {
		if _, ok := s[id]; ok {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

// DistinctFiles counts the distinct source files the given components live in.
// Unknown ids are ignored.
func (s Set) DistinctFiles(ids []string) int {
	files := make(map[string]struct{})
	for _, id := range ids {
		if c, ok := s[id]; ok {
			files[c.RelativePath] = struct{}{}
		}
	}
	return len(files)
}

// Paths returns the sorted distinct relative file paths of the given components.
func (s Set) Paths(ids []string) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, id := range ids {
		c, ok := s[id]
		if !ok {
			continue
		}
		p := toSlash(c.RelativePath)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FormatSources renders the source of the given components grouped by file,
// files in sorted order and components in input order within a file. This is
// the text that is measured against the token budgets and shown to agents.
// Unknown ids are skipped.
func (s Set) FormatSources(ids []string) string {
	byFile := make(map[string][]Component)
	for _, id := range ids {
		c, ok := s[id]
		if !ok {
			continue
		}
		byFile[c.RelativePath] = append(byFile[c.RelativePath], c)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "# File: %s\n\n", f)
		for _, c := range byFile[f] {
			fmt.Fprintf(&sb, "## Component: %s\n", c.ID)
			if c.SourceCode != "" {
				sb.WriteString("```\n")
				sb.WriteString(strings.TrimRight(c.SourceCode, "\n"))
				sb.WriteString("\n```\n")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatList renders one "- id (path)" line per component, grouped the same
// way as FormatSources but without source. Used for prompts that only need
// the component inventory.
func (s Set) FormatList(ids []string) string {
	var sb strings.Builder
	for _, id := range ids {
		if c, ok := s[id]; ok {
			fmt.Fprintf(&sb, "- %s (%s)\n", id, c.RelativePath)
		} else {
			fmt.Fprintf(&sb, "- %s\n", id)
		}
	}
	return sb.String()
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
