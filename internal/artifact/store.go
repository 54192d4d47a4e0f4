// Package artifact persists the documentation run's outputs: module
// documents, the planning snapshot and working tree, and run metadata.
// Every artifact is a flat file in the docs directory, so an interrupted run
// resumes from whatever is already on disk.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

// Artifact file names inside the docs directory.
const (
	// FirstModuleTree is the planning snapshot written once after clustering.
	FirstModuleTree = "first_module_tree.json"
	// ModuleTree is the working tree, extended by sub-module agents.
	ModuleTree = "module_tree.json"
	// Overview is the repository overview document.
	Overview = "overview.md"
	// MetadataFile records how and when the documentation was generated.
	MetadataFile = "metadata.json"
)

// DocExt is the extension of module documents.
const DocExt = ".md"

// DocName returns the document file name for a module.
func DocName(module string) string {
	return module + DocExt
}

// ValidateModuleName rejects module names that cannot be used as a document
// file name directly inside the docs directory.
func ValidateModuleName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return cwerrors.NewValidationError("module name is empty").WithField("module")
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return cwerrors.NewValidationError("module name contains a path separator").WithField("module").WithValue(name)
	case name == "." || strings.Contains(name, ".."):
		return cwerrors.NewValidationError("module name is a relative path").WithField("module").WithValue(name)
	}
	return nil
}

// Store reads and writes artifacts in one docs directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// Dir returns the docs directory.
func (s *Store) Dir() string {
	return s.dir
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path returns the full path of an artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Ensure creates the docs directory if needed.
func (s *Store) Ensure() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return cwerrors.NewArtifactError("failed to create docs directory", err).WithPath(s.dir)
	}
	return nil
}

// Exists reports whether an artifact exists.
func (s *Store) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, s.Path(name))
	return err == nil && ok
}

// DocExists reports whether the document for module exists.
func (s *Store) DocExists(module string) bool {
	return s.Exists(DocName(module))
}

// ReadDoc returns the document for module.
func (s *Store) ReadDoc(module string) (string, error) {
	data, err := s.read(DocName(module))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteDoc writes the document for module.
func (s *Store) WriteDoc(module, content string) error {
	return s.write(DocName(module), []byte(content))
}

// WriteOverview writes the repository overview document.
func (s *Store) WriteOverview(content string) error {
	return s.write(Overview, []byte(content))
}

// Rename moves an artifact, replacing the destination.
func (s *Store) Rename(from, to string) error {
	if err := s.fs.Rename(s.Path(from), s.Path(to)); err != nil {
		if os.IsNotExist(err) {
			return cwerrors.NewArtifactError("artifact not found", cwerrors.ErrArtifactNotFound).WithPath(s.Path(from))
		}
		return cwerrors.NewArtifactError("failed to rename artifact", err).WithPath(s.Path(from))
	}
	return nil
}

// LoadTree reads a module tree document.
func (s *Store) LoadTree(name string) (moduletree.Tree, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}
	var tree moduletree.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, cwerrors.NewArtifactError("module tree is not valid JSON", cwerrors.ErrArtifactCorrupted).WithPath(s.Path(name))
	}
	if tree == nil {
		tree = moduletree.Tree{}
	}
	return tree, nil
}

// SaveTree writes a module tree document atomically.
func (s *Store) SaveTree(name string, tree moduletree.Tree) error {
	if tree == nil {
		tree = moduletree.Tree{}
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return cwerrors.NewArtifactError("failed to encode module tree", err).WithPath(s.Path(name))
	}
	return s.write(name, data)
}

// ListDocs returns the names of all Markdown documents, sorted.
func (s *Store) ListDocs() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, cwerrors.NewArtifactError("failed to list docs directory", err).WithPath(s.dir)
	}
	docs := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), DocExt) {
			docs = append(docs, e.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}

func (s *Store) read(name string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cwerrors.NewArtifactError("artifact not found", cwerrors.ErrArtifactNotFound).WithPath(s.Path(name))
		}
		return nil, cwerrors.NewArtifactError("failed to read artifact", err).WithPath(s.Path(name))
	}
	return data, nil
}

// write replaces an artifact through a temporary file and rename, so a
// crash never leaves a half-written artifact behind.
func (s *Store) write(name string, data []byte) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	target := s.Path(name)
	tmp := target + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return cwerrors.NewArtifactError("failed to write temp file", err).WithPath(tmp)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return cwerrors.NewArtifactError("failed to rename temp file", err).WithPath(target)
	}
	return nil
}
