package projection

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

//go:embed builtin/*.json
var builtinFS embed.FS

// LocalDir is the project-local projection directory, relative to the
// working directory.
const LocalDir = ".codewiki/projections"

// Default is the projection used when none is configured.
const Default = "developer"

// Builtins returns the names of the built-in projections, sorted.
func Builtins() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Builtin loads a built-in projection by name.
func Builtin(name string) (*Projection, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".json")
	if err != nil {
		return nil, unknown(name)
	}
	return Decode(data, name)
}

// Resolve finds a projection by built-in name, file path, or project-local
// name, in that order. Paths ending in .json, .yaml, or .yml are read from
// fs; otherwise <workDir>/.codewiki/projections/<name>.{json,yaml,yml} is tried.
func Resolve(fs afero.Fs, nameOrPath, workDir string) (*Projection, error) {
	if nameOrPath == "" {
		nameOrPath = Default
	}

	for _, name := range Builtins() {
		if name == nameOrPath {
			return Builtin(name)
		}
	}

	if isProjectionFile(nameOrPath) {
		path := nameOrPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		return Load(fs, path)
	}

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		local := filepath.Join(workDir, LocalDir, nameOrPath+ext)
		if ok, _ := afero.Exists(fs, local); ok {
			return Load(fs, local)
		}
	}

	return nil, unknown(nameOrPath)
}

// Load reads and validates a projection file.
func Load(fs afero.Fs, path string) (*Projection, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cwerrors.NewNotFoundError("projection file", path).WithCause(err)
		}
		return nil, cwerrors.NewProjectionError("failed to read projection file", err).WithSource(path)
	}
	return Decode(data, path)
}

// Decode parses and validates a projection document. YAML is used when the
// source ends in .yaml or .yml, JSON otherwise.
func Decode(data []byte, source string) (*Projection, error) {
	var raw any
	if isYAML(source) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, cwerrors.NewProjectionError("projection is not valid YAML", err).WithSource(source)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, cwerrors.NewProjectionError("projection is not valid JSON", err).WithSource(source)
		}
	}

	if problems := Validate(raw); len(problems) > 0 {
		return nil, cwerrors.NewProjectionError("invalid projection", cwerrors.ErrInvalidProjection).
			WithSource(source).
			WithProblems(problems)
	}

	// Normalise through JSON so both encodings share one set of field rules.
	normalised, err := json.Marshal(raw)
	if err != nil {
		return nil, cwerrors.NewProjectionError("failed to normalise projection", err).WithSource(source)
	}
	var p Projection
	if err := json.Unmarshal(normalised, &p); err != nil {
		return nil, cwerrors.NewProjectionError("projection has an unexpected shape", err).WithSource(source)
	}
	if p.DetailLevel == "" {
		p.DetailLevel = DetailStandard
	}
	return &p, nil
}

// EncodeYAML renders a projection as YAML.
func EncodeYAML(p *Projection) ([]byte, error) {
	return yaml.Marshal(p)
}

// EncodeJSON renders a projection as indented JSON.
func EncodeJSON(p *Projection) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func unknown(name string) error {
	return cwerrors.NewProjectionError(
		fmt.Sprintf("unknown projection %q (built-in: %s; or give a path to a .json or .yaml file)",
			name, strings.Join(Builtins(), ", ")),
		cwerrors.ErrUnknownProjection,
	)
}

func isProjectionFile(name string) bool {
	return strings.HasSuffix(name, ".json") || isYAML(name)
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
