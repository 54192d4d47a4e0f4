package prompt

// SupplementaryFile is a non-code file given to the agent as context.
type SupplementaryFile struct {
	Path    string
	Content string
}

// DocumentationInput is the data for the first turn of a documentation agent.
type DocumentationInput struct {
	ModuleName string
	Path       []string
	// Complex selects the instructions that allow delegating sub-modules.
	Complex bool
	// CoreComponents is the formatted source of the module's components.
	CoreComponents string
	// ModuleTree is the JSON of the working tree, for cross-references.
	ModuleTree string
	// MaxTurns is the number of responses the agent may give.
	MaxTurns int

	Supplementary     []SupplementaryFile
	SupplementaryRole string
	Blocks            Blocks
}

const documentationTemplate = `You are documenting the module "{{.ModuleName}}" (location: {{.DisplayPath}}).
{{- if .Blocks.CodeContext}}

{{.Blocks.CodeContext}}
{{- end}}
{{- if .Blocks.FrameworkContext}}

{{.Blocks.FrameworkContext}}
{{- end}}

<OBJECTIVES>
{{- if .Blocks.ObjectivesOverride}}
{{trim .Blocks.ObjectivesOverride}}
{{- else}}
Write clear Markdown documentation for this module: its purpose, architecture,
main components and how they interact, and how the module fits into the rest
of the repository. Use Mermaid diagrams where they clarify structure or flow.
{{- end}}
</OBJECTIVES>
{{- if .Blocks.CustomInstructions}}

<CUSTOM_INSTRUCTIONS>
{{trim .Blocks.CustomInstructions}}
</CUSTOM_INSTRUCTIONS>
{{- end}}

<MODULE_TREE>
{{.ModuleTree}}
</MODULE_TREE>

<CORE_COMPONENTS>
{{.CoreComponents}}
</CORE_COMPONENTS>
{{- if .Supplementary}}

<SUPPLEMENTARY_CONFIGURATION>
{{- if .SupplementaryRole}}
{{trim .SupplementaryRole}}
{{- end}}
{{range .Supplementary}}
### {{.Path}}
{{.Content}}
{{end -}}
</SUPPLEMENTARY_CONFIGURATION>
{{- end}}

You have {{.MaxTurns}} responses. In each response you may:
- request the source of other components by listing their ids, one per line, in
  {{open "READ_COMPONENTS"}} tags;
{{- if .Complex}}
- delegate parts of this module by answering with a JSON object mapping each
  sub-module name to its component ids in {{open "SUB_MODULES"}} tags. The
  sub-modules are documented before you continue, and you will be told which
  files were written;
{{- end}}
- finish by answering with the complete documentation in {{open "DOCUMENTATION"}} tags.
{{- if .Complex}}

This module is large. Prefer delegating cohesive sub-modules, then write an
overview that links to their documents.
{{- end}}
`

var documentationTmpl = parse("documentation", documentationTemplate)

type documentationData struct {
	DocumentationInput
	DisplayPath string
}

// Documentation renders the first-turn prompt of a documentation agent.
func Documentation(in DocumentationInput) (string, error) {
	if in.MaxTurns < 1 {
		in.MaxTurns = 1
	}
	return render(documentationTmpl, documentationData{
		DocumentationInput: in,
		DisplayPath:        DisplayPath(in.Path),
	})
}

// ToolResult is the outcome of a request the agent made in its last response.
type ToolResult struct {
	Name string
	Body string
}

// FollowUpInput is the data for a follow-up turn.
type FollowUpInput struct {
	ModuleName string
	Results    []ToolResult
	// Remaining is the number of responses left, including the next one.
	Remaining int
}

const followUpTemplate = `Results for module "{{.ModuleName}}":
{{range .Results}}
<{{.Name}}>
{{.Body}}
</{{.Name}}>
{{end}}
You have {{.Remaining}} response(s) left.
{{- if eq .Remaining 1}} This is your last response: answer with the complete documentation in {{open "DOCUMENTATION"}} tags.{{end}}
`

var followUpTmpl = parse("follow-up", followUpTemplate)

// AgentFollowUp renders the prompt that returns tool results to the agent.
func AgentFollowUp(in FollowUpInput) (string, error) {
	return render(followUpTmpl, in)
}
