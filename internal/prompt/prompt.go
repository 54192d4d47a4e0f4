// Package prompt renders the prompts sent to the text-generation backend.
//
// Every prompt names the delimiter tag its answer must be wrapped in; the
// callers parse responses with the tagparse package.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/aniruddha-adhikary/CodeWiki/internal/tagparse"
)

// Blocks carries the projection-derived prompt sections. Empty fields are omitted.
type Blocks struct {
	CodeContext        string
	FrameworkContext   string
	ObjectivesOverride string
	CustomInstructions string
}

var funcs = template.FuncMap{
	"open":  tagparse.Open,
	"close": tagparse.Close,
	"join":  strings.Join,
	"trim":  strings.TrimSpace,
	"add":   func(a, b int) int { return a + b },
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// DisplayPath renders a module path for prompts, e.g. "api > handlers".
func DisplayPath(path []string) string {
	if len(path) == 0 {
		return "(repository root)"
	}
	return strings.Join(path, " > ")
}
