package prompt

import "text/template"

// OverviewInput is the data for an overview synthesis prompt.
type OverviewInput struct {
	// Name is the module name, or the repository name for the root overview.
	Name string
	// Structure is the JSON of the working tree with the target module flagged
	// and its children's documentation embedded.
	Structure string
	Blocks    Blocks
}

const moduleOverviewTemplate = `You are writing the overview of the module "{{.Name}}".
Its sub-modules are already documented; their documentation is embedded in the
structure below under "docs". The module to summarise is flagged with
"is_target_for_overview_generation".
{{- template "blocks" .Blocks}}

<MODULE_STRUCTURE>
{{.Structure}}
</MODULE_STRUCTURE>

Write a concise overview of the module: its purpose, how the sub-modules fit
together (a Mermaid diagram is welcome), and links to each sub-module document
as [name](name.md).

Answer with the Markdown wrapped in {{open "OVERVIEW"}} tags.
`

const repoOverviewTemplate = `You are writing the top-level overview of the repository "{{.Name}}".
Its modules are already documented; their documentation is embedded in the
structure below under "docs".
{{- template "blocks" .Blocks}}

<REPO_STRUCTURE>
{{.Structure}}
</REPO_STRUCTURE>

Write the repository overview: what the repository does, its architecture
(a Mermaid diagram is welcome), and a guide to the modules with links
as [name](name.md).

Answer with the Markdown wrapped in {{open "OVERVIEW"}} tags.
`

const blocksTemplate = `{{define "blocks"}}
{{- if .CodeContext}}

{{.CodeContext}}
{{- end}}
{{- if .FrameworkContext}}

{{.FrameworkContext}}
{{- end}}
{{- if .CustomInstructions}}

<CUSTOM_INSTRUCTIONS>
{{trim .CustomInstructions}}
</CUSTOM_INSTRUCTIONS>
{{- end}}
{{- end}}`

var (
	moduleOverviewTmpl = template.Must(parse("module-overview", moduleOverviewTemplate).Parse(blocksTemplate))
	repoOverviewTmpl   = template.Must(parse("repo-overview", repoOverviewTemplate).Parse(blocksTemplate))
)

// ModuleOverview renders the prompt for a parent module's overview.
func ModuleOverview(in OverviewInput) (string, error) {
	return render(moduleOverviewTmpl, in)
}

// RepoOverview renders the prompt for the repository overview.
func RepoOverview(in OverviewInput) (string, error) {
	return render(repoOverviewTmpl, in)
}
