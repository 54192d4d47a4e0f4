package projection

import (
	"fmt"
	"slices"
)

// Validate checks a decoded projection document and returns every problem
// found. It accepts the generic shapes produced by both encoding/json and
// yaml.v3.
func Validate(raw any) []string {
	data, ok := raw.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("expected an object at the top level, got %s", typeName(raw))}
	}

	var problems []string

	if name, ok := data["name"].(string); !ok || name == "" {
		problems = append(problems, "'name' must be a non-empty string")
	}

	for _, field := range []string{
		"description", "clustering_goal", "clustering_examples", "audience", "perspective",
		"objectives_override", "framework_context", "supplementary_file_role",
	} {
		if val, present := data[field]; present && val != nil {
			if _, ok := val.(string); !ok {
				problems = append(problems, fmt.Sprintf("'%s' must be a string or null, got %s", field, typeName(val)))
			}
		}
	}

	if val, present := data["detail_level"]; present && val != nil {
		level, ok := val.(string)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("'detail_level' must be a string, got %s", typeName(val)))
		case !slices.Contains(ValidDetailLevels(), level):
			problems = append(problems, fmt.Sprintf("'detail_level' must be one of %v, got '%s'", ValidDetailLevels(), level))
		}
	}

	if val, present := data["max_depth_override"]; present && val != nil {
		if n, ok := asInt(val); !ok || n < 1 {
			problems = append(problems, "'max_depth_override' must be a positive integer or null")
		}
	}

	for _, field := range []string{"doc_objectives", "doc_anti_objectives", "supplementary_file_patterns"} {
		problems = append(problems, validateStringList(data[field], field)...)
	}

	if val, present := data["saved_grouping"]; present && val != nil {
		if _, ok := val.(map[string]any); !ok {
			problems = append(problems, "'saved_grouping' must be an object or null")
		}
	}

	if val, present := data["code_provenance"]; present && val != nil {
		problems = append(problems, validateProvenance(val)...)
	}

	return problems
}

func validateProvenance(raw any) []string {
	cp, ok := raw.(map[string]any)
	if !ok {
		return []string{"'code_provenance' must be an object or null"}
	}

	var problems []string
	for _, field := range []string{"source_language", "transpilation_tool"} {
		if val, present := cp[field]; present && val != nil {
			if _, ok := val.(string); !ok {
				problems = append(problems, fmt.Sprintf("'code_provenance.%s' must be a string or null", field))
			}
		}
	}

	if val, present := cp["naming_conventions"]; present && val != nil {
		naming, ok := val.(map[string]any)
		if !ok {
			problems = append(problems, "'code_provenance.naming_conventions' must be an object")
		} else {
			for _, v := range naming {
				if _, ok := v.(string); !ok {
					problems = append(problems, "'code_provenance.naming_conventions' must map strings to strings")
					break
				}
			}
		}
	}

	for _, field := range []string{"runtime_library_packages", "known_boilerplate_patterns"} {
		problems = append(problems, validateStringList(cp[field], "code_provenance."+field)...)
	}
	return problems
}

func validateStringList(raw any, field string) []string {
	if raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return []string{fmt.Sprintf("'%s' must be a list or null, got %s", field, typeName(raw))}
	}
	var problems []string
	for i, item := range list {
		if _, ok := item.(string); !ok {
			problems = append(problems, fmt.Sprintf("'%s[%d]' must be a string, got %s", field, i, typeName(item)))
		}
	}
	return problems
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
