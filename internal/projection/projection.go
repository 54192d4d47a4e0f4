// Package projection defines documentation projections: named views that
// steer clustering and documentation toward an audience and perspective.
package projection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

// Detail levels accepted by Projection.DetailLevel.
const (
	DetailStandard = "standard"
	DetailDetailed = "detailed"
	DetailConcise  = "concise"
)

// ValidDetailLevels returns the accepted detail levels.
func ValidDetailLevels() []string {
	return []string{DetailConcise, DetailDetailed, DetailStandard}
}

// CodeProvenance describes where non-standard source code came from, such as
// code produced by a transpiler.
type CodeProvenance struct {
	SourceLanguage           string            `json:"source_language,omitempty" yaml:"source_language,omitempty"`
	TranspilationTool        string            `json:"transpilation_tool,omitempty" yaml:"transpilation_tool,omitempty"`
	NamingConventions        map[string]string `json:"naming_conventions,omitempty" yaml:"naming_conventions,omitempty"`
	RuntimeLibraryPackages   []string          `json:"runtime_library_packages,omitempty" yaml:"runtime_library_packages,omitempty"`
	KnownBoilerplatePatterns []string          `json:"known_boilerplate_patterns,omitempty" yaml:"known_boilerplate_patterns,omitempty"`
}

// Projection configures one documentation view.
type Projection struct {
	Name               string   `json:"name" yaml:"name"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	ClusteringGoal     string   `json:"clustering_goal,omitempty" yaml:"clustering_goal,omitempty"`
	ClusteringExamples string   `json:"clustering_examples,omitempty" yaml:"clustering_examples,omitempty"`
	Audience           string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	Perspective        string   `json:"perspective,omitempty" yaml:"perspective,omitempty"`
	DocObjectives      []string `json:"doc_objectives,omitempty" yaml:"doc_objectives,omitempty"`
	DocAntiObjectives  []string `json:"doc_anti_objectives,omitempty" yaml:"doc_anti_objectives,omitempty"`
	DetailLevel        string   `json:"detail_level,omitempty" yaml:"detail_level,omitempty"`
	// MaxDepthOverride replaces generation.max_depth when positive.
	MaxDepthOverride int `json:"max_depth_override,omitempty" yaml:"max_depth_override,omitempty"`
	// SavedGrouping is a precomputed module tree that replaces clustering.
	SavedGrouping      moduletree.Tree `json:"saved_grouping,omitempty" yaml:"saved_grouping,omitempty"`
	ObjectivesOverride string          `json:"objectives_override,omitempty" yaml:"objectives_override,omitempty"`
	CodeProvenance     *CodeProvenance `json:"code_provenance,omitempty" yaml:"code_provenance,omitempty"`
	FrameworkContext   string          `json:"framework_context,omitempty" yaml:"framework_context,omitempty"`
	// SupplementaryFilePatterns are glob patterns (relative to the repository
	// root) of non-code files to give the documentation agents.
	SupplementaryFilePatterns []string `json:"supplementary_file_patterns,omitempty" yaml:"supplementary_file_patterns,omitempty"`
	SupplementaryFileRole     string   `json:"supplementary_file_role,omitempty" yaml:"supplementary_file_role,omitempty"`
}

// Directive returns the grouping strategy injected into clustering prompts,
// or "" when the projection has no clustering goal.
func (p *Projection) Directive() string {
	if p == nil || strings.TrimSpace(p.ClusteringGoal) == "" {
		return ""
	}
	directive := strings.TrimSpace(p.ClusteringGoal)
	if ex := strings.TrimSpace(p.ClusteringExamples); ex != "" {
		directive += "\n\nExamples:\n" + ex
	}
	return directive
}

// Precomputed returns a copy of the saved grouping, or nil when there is none.
func (p *Projection) Precomputed() moduletree.Tree {
	if p == nil || len(p.SavedGrouping) == 0 {
		return nil
	}
	return p.SavedGrouping.Clone()
}

// MaxDepth returns the override when set, otherwise fallback.
func (p *Projection) MaxDepth(fallback int) int {
	if p != nil && p.MaxDepthOverride > 0 {
		return p.MaxDepthOverride
	}
	return fallback
}

// Compiled holds the prompt sections derived from a projection.
type Compiled struct {
	CodeContext        string
	FrameworkContext   string
	ObjectivesOverride string
	CustomInstructions string
}

// Compile renders the projection into prompt sections. A nil projection
// compiles to empty sections.
func Compile(p *Projection) Compiled {
	var out Compiled
	if p == nil {
		return out
	}

	if prov := p.CodeProvenance; prov != nil {
		lines := []string{"<CODE_CONTEXT>"}
		if prov.SourceLanguage != "" {
			lines = append(lines, fmt.Sprintf("This codebase was originally written in %s.", prov.SourceLanguage))
		}
		if prov.TranspilationTool != "" {
			lines = append(lines, fmt.Sprintf("It was transpiled using %s.", prov.TranspilationTool))
		}
		if len(prov.NamingConventions) > 0 {
			lines = append(lines, "", "Naming conventions from the original language:")
			patterns := make([]string, 0, len(prov.NamingConventions))
			for pattern := range prov.NamingConventions {
				patterns = append(patterns, pattern)
			}
			sort.Strings(patterns)
			for _, pattern := range patterns {
				lines = append(lines, fmt.Sprintf("  - %s: %s", pattern, prov.NamingConventions[pattern]))
			}
		}
		if len(prov.RuntimeLibraryPackages) > 0 {
			lines = append(lines, "", "Runtime library packages (downweight in documentation): "+strings.Join(prov.RuntimeLibraryPackages, ", "))
		}
		if len(prov.KnownBoilerplatePatterns) > 0 {
			lines = append(lines, "", "Known boilerplate patterns to de-emphasize:")
			for _, pattern := range prov.KnownBoilerplatePatterns {
				lines = append(lines, "  - "+pattern)
			}
		}
		lines = append(lines, "</CODE_CONTEXT>")
		out.CodeContext = strings.Join(lines, "\n")
	}

	if p.FrameworkContext != "" {
		out.FrameworkContext = "<FRAMEWORK_CONTEXT>\n" + p.FrameworkContext + "\n</FRAMEWORK_CONTEXT>"
	}

	out.ObjectivesOverride = p.ObjectivesOverride

	var instructions []string
	if p.Audience != "" {
		instructions = append(instructions, fmt.Sprintf("Target audience: %s.", p.Audience))
	}
	if p.Perspective != "" {
		instructions = append(instructions, fmt.Sprintf("Documentation perspective: %s.", p.Perspective))
	}
	if p.DetailLevel != "" && p.DetailLevel != DetailStandard {
		instructions = append(instructions, fmt.Sprintf("Detail level: %s.", p.DetailLevel))
	}
	if len(p.DocObjectives) > 0 {
		instructions = append(instructions, "Documentation objectives:")
		for _, obj := range p.DocObjectives {
			instructions = append(instructions, "  - "+obj)
		}
	}
	if len(p.DocAntiObjectives) > 0 {
		instructions = append(instructions, "Do NOT include:")
		for _, anti := range p.DocAntiObjectives {
			instructions = append(instructions, "  - "+anti)
		}
	}
	out.CustomInstructions = strings.Join(instructions, "\n")

	return out
}
