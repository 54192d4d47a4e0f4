package prompt

// ClusterInput is the data for a clustering prompt.
type ClusterInput struct {
	// Components is the formatted list of candidate core components.
	Components string
	// Directive is an optional grouping strategy placed before the components.
	Directive string
	// ModuleTree is the JSON of the tree built so far; empty for the top-level call.
	ModuleTree string
	// ModuleName is the module being subdivided; empty for the top-level call.
	ModuleName string
}

const clusterTemplate = `Here is the list of potential core components of {{if .ModuleName}}the module "{{.ModuleName}}"{{else}}the repository{{end}}.
{{- if .ModuleTree}}

The module tree built so far:
<MODULE_TREE>
{{.ModuleTree}}
</MODULE_TREE>
{{- end}}
{{- if .Directive}}

<GROUPING_STRATEGY>
{{trim .Directive}}
</GROUPING_STRATEGY>
{{- end}}

<POTENTIAL_CORE_COMPONENTS>
{{.Components}}
</POTENTIAL_CORE_COMPONENTS>

Group the components above into modules. Every component id must appear in exactly
one module; do not invent ids and do not drop any. Give each module a short, unique
name and the common directory of its files as "path".

Answer with a JSON object wrapped in {{open "GROUPED_COMPONENTS"}} tags, shaped like:
{{open "GROUPED_COMPONENTS"}}
{
  "module_name": {
    "path": "relative/dir",
    "components": ["component.id", "..."]
  }
}
{{close "GROUPED_COMPONENTS"}}
`

var clusterTmpl = parse("cluster", clusterTemplate)

// Cluster renders the clustering prompt.
func Cluster(in ClusterInput) (string, error) {
	return render(clusterTmpl, in)
}
