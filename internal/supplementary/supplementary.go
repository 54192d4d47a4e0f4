// Package supplementary collects non-code files (deployment descriptors,
// configuration, schemas) that give documentation agents extra context, and
// narrows them to the files relevant to a module.
package supplementary

import (
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
)

// MaxFileBytes caps the content kept per file.
const MaxFileBytes = 50 * 1024

// TruncationMarker is appended to files cut at MaxFileBytes.
const TruncationMarker = "\n... [truncated]"

// maxReaders bounds concurrent file reads.
const maxReaders = 8

// Files maps slash-separated paths relative to the repository root to content.
type Files map[string]string

// Paths returns the file paths in sorted order.
func (f Files) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Collector gathers supplementary files from a repository.
type Collector struct {
	fs     afero.Fs
	logger *logging.Logger
}

// NewCollector creates a Collector reading from fsys.
func NewCollector(fsys afero.Fs, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Collector{fs: fsys, logger: logger}
}

// Collect walks repoPath and returns every regular file whose relative path
// matches one of patterns. Patterns use "/" separators and support "**".
// Files that are not valid UTF-8 or cannot be read are skipped.
func (c *Collector) Collect(repoPath string, patterns []string) (Files, error) {
	if len(patterns) == 0 {
		return Files{}, nil
	}

	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, cwerrors.NewValidationError("invalid supplementary file pattern").
				WithField("supplementary_file_patterns").
				WithValue(pattern).
				WithCause(err)
		}
		matchers = append(matchers, g)
	}

	var matched []string
	err := afero.Walk(c.fs, repoPath, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if p != repoPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(repoPath, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, g := range matchers {
			if g.Match(rel) {
				matched = append(matched, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, cwerrors.Wrap(err, "failed to walk repository for supplementary files")
	}

	type result struct {
		path    string
		content string
		ok      bool
	}
	p := pool.NewWithResults[result]().WithMaxGoroutines(maxReaders)
	for _, rel := range matched {
		p.Go(func() result {
			content, ok := c.read(filepath.Join(repoPath, filepath.FromSlash(rel)))
			return result{path: rel, content: content, ok: ok}
		})
	}

	files := Files{}
	for _, r := range p.Wait() {
		if r.ok {
			files[r.path] = r.content
		}
	}
	c.logger.Debug("collected supplementary files",
		"patterns", len(patterns),
		"matched", len(matched),
		"kept", len(files),
	)
	return files, nil
}

func (c *Collector) read(p string) (string, bool) {
	f, err := c.fs.Open(p)
	if err != nil {
		c.logger.Warn("skipping unreadable supplementary file", "path", p, "error", err)
		return "", false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileBytes+1))
	if err != nil {
		c.logger.Warn("skipping unreadable supplementary file", "path", p, "error", err)
		return "", false
	}

	truncated := len(data) > MaxFileBytes
	if truncated {
		data = data[:MaxFileBytes]
		// Do not split a multi-byte rune at the cap.
		for len(data) > 0 && !utf8.Valid(data) && len(data) > MaxFileBytes-utf8.UTFMax {
			data = data[:len(data)-1]
		}
	}
	if !utf8.Valid(data) {
		c.logger.Debug("skipping binary supplementary file", "path", p)
		return "", false
	}

	content := string(data)
	if truncated {
		content += TruncationMarker
	}
	return content, true
}

// Filter returns the files relevant to a module whose components live at
// componentPaths. A file is included when it sits at the repository root, or
// when its directory and some component's directory are equal or one
// contains the other.
func Filter(all Files, componentPaths []string) Files {
	out := Files{}
	if len(all) == 0 {
		return out
	}

	componentDirs := make([][]string, 0, len(componentPaths))
	for _, cp := range componentPaths {
		componentDirs = append(componentDirs, segments(path.Dir(filepath.ToSlash(cp))))
	}

	for p, content := range all {
		dir := segments(path.Dir(p))
		if len(dir) == 0 {
			out[p] = content
			continue
		}
		for _, cd := range componentDirs {
			if prefixRelated(dir, cd) {
				out[p] = content
				break
			}
		}
	}
	return out
}

func segments(dir string) []string {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(strings.Trim(dir, "/"), "/")
}

func prefixRelated(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
