package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/config"
	"github.com/aniruddha-adhikary/CodeWiki/internal/llm"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/projection"
	"github.com/aniruddha-adhikary/CodeWiki/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupWorkdir changes to a fresh directory with no config file, logging
// disabled, and the character-based token estimator.
func setupWorkdir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("CODEWIKI_LOGGING_ENABLED", "false")
	t.Setenv("CODEWIKI_TOKENS_ENCODING", "estimate")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return wd
}

func stubGenerator(t *testing.T, gen llm.Generator) {
	t.Helper()
	orig := newGenerator
	newGenerator = func(*config.Config) (llm.Generator, error) { return gen, nil }
	t.Cleanup(func() { newGenerator = orig })
}

func saveSnapshot(t *testing.T, docsDir string, tree moduletree.Tree) *artifact.Store {
	t.Helper()
	store := artifact.NewStore(afero.NewOsFs(), docsDir)
	if err := store.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := store.SaveTree(artifact.FirstModuleTree, tree); err != nil {
		t.Fatalf("SaveTree() error = %v", err)
	}
	return store
}

func coreTree() moduletree.Tree {
	return moduletree.Tree{
		"core": {
			Components: []string{"a1", "b1"},
			Children: moduletree.Tree{
				"a": moduletree.NewLeaf([]string{"a1"}),
				"b": moduletree.NewLeaf([]string{"b1"}),
			},
		},
		"util": moduletree.NewLeaf([]string{"c1"}),
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "codewiki" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "codewiki")
	}

	// Compare by Name(), not Use which includes args
	expectedCmds := []string{"generate", "cluster", "order", "status", "watch", "projections", "config", "logs"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expectedCmds {
		if !cmdMap[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := setupWorkdir(t)
	testutil.WriteComponents(t, afero.NewOsFs(), filepath.Join(dir, "components.json"), testutil.Components(map[string]string{
		"a1": "src/a.go",
		"b1": "src/b.go",
	}))
	gen := testutil.NewScriptedGenerator().Default("<DOCUMENTATION>the whole repository</DOCUMENTATION>")
	stubGenerator(t, gen)

	args := []string{"generate",
		"--components", "components.json",
		"--repo", dir,
		"--docs-dir", "docs",
		"--projection", "",
		"--commit", "abc123",
	}

	t.Run("first run documents the repository", func(t *testing.T) {
		out, err := executeCommand(rootCmd, args...)
		if err != nil {
			t.Fatalf("generate error = %v\n%s", err, out)
		}
		if !strings.Contains(out, "Generated: 1") {
			t.Errorf("output missing generated count:\n%s", out)
		}

		store := artifact.NewStore(afero.NewOsFs(), filepath.Join(dir, "docs"))
		if !store.Exists(artifact.Overview) {
			t.Fatalf("%s not written", artifact.Overview)
		}
		meta, err := store.ReadMetadata()
		if err != nil {
			t.Fatalf("ReadMetadata() error = %v", err)
		}
		if meta.GenerationInfo.CommitID != "abc123" {
			t.Errorf("CommitID = %q, want %q", meta.GenerationInfo.CommitID, "abc123")
		}
	})

	t.Run("rerun skips finished work", func(t *testing.T) {
		before := gen.Calls()
		out, err := executeCommand(rootCmd, args...)
		if err != nil {
			t.Fatalf("generate error = %v\n%s", err, out)
		}
		if gen.Calls() != before {
			t.Errorf("calls = %d, want %d", gen.Calls(), before)
		}
		if !strings.Contains(out, "Skipped: 1") {
			t.Errorf("output missing skipped count:\n%s", out)
		}
	})
}

func TestGenerateCommand_MissingComponentsFile(t *testing.T) {
	dir := setupWorkdir(t)
	stubGenerator(t, testutil.NewScriptedGenerator())

	_, err := executeCommand(rootCmd, "generate",
		"--components", "missing.json",
		"--repo", dir,
		"--docs-dir", "docs",
		"--projection", "",
	)
	if err == nil {
		t.Fatal("generate error = nil, want error for missing components file")
	}
}

func TestOrderCommand(t *testing.T) {
	dir := setupWorkdir(t)

	t.Run("without snapshot", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "order", "--docs-dir", "docs")
		if err == nil || !strings.Contains(err.Error(), "codewiki cluster") {
			t.Errorf("order error = %v, want hint to run cluster", err)
		}
	})

	t.Run("prints descendants before parents", func(t *testing.T) {
		saveSnapshot(t, filepath.Join(dir, "docs"), coreTree())

		out, err := executeCommand(rootCmd, "order", "--docs-dir", "docs")
		if err != nil {
			t.Fatalf("order error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		want := []string{"core/a", "core/b", "core ", "util", "(repository overview)"}
		if len(lines) != len(want) {
			t.Fatalf("order printed %d lines, want %d:\n%s", len(lines), len(want), out)
		}
		for i, w := range want {
			if !strings.Contains(lines[i], w) {
				t.Errorf("line %d = %q, want it to contain %q", i, lines[i], w)
			}
		}
		if !strings.Contains(lines[2], "(overview)") {
			t.Errorf("line 2 = %q, want parent marked as overview", lines[2])
		}
	})
}

func TestStatusCommand(t *testing.T) {
	dir := setupWorkdir(t)

	t.Run("no run", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "status", "--docs-dir", "docs")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		if !strings.Contains(out, "No documentation run found") {
			t.Errorf("status output = %q, want no-run message", out)
		}
	})

	t.Run("counts documented modules", func(t *testing.T) {
		store := saveSnapshot(t, filepath.Join(dir, "docs"), coreTree())
		if err := store.WriteDoc("a", "a doc"); err != nil {
			t.Fatalf("WriteDoc() error = %v", err)
		}

		out, err := executeCommand(rootCmd, "status", "--docs-dir", "docs")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		if !strings.Contains(out, "1/5 modules documented") {
			t.Errorf("status output missing count:\n%s", out)
		}
		if !strings.Contains(out, "(repository overview)") {
			t.Errorf("status output missing repository overview row:\n%s", out)
		}
	})
}

func TestProjectionsCommand(t *testing.T) {
	dir := setupWorkdir(t)

	t.Run("list", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "projections", "list")
		if err != nil {
			t.Fatalf("projections list error = %v", err)
		}
		for _, name := range projection.Builtins() {
			if !strings.Contains(out, name) {
				t.Errorf("list output missing %q:\n%s", name, out)
			}
		}
	})

	t.Run("show json", func(t *testing.T) {
		out, err := executeCommand(rootCmd, "projections", "show", "developer", "--format", "json")
		if err != nil {
			t.Fatalf("projections show error = %v", err)
		}
		if !strings.Contains(out, `"name": "developer"`) {
			t.Errorf("show output = %q, want developer projection as JSON", out)
		}
	})

	t.Run("validate", func(t *testing.T) {
		p, err := projection.Builtin("developer")
		if err != nil {
			t.Fatalf("Builtin() error = %v", err)
		}
		data, err := projection.EncodeYAML(p)
		if err != nil {
			t.Fatalf("EncodeYAML() error = %v", err)
		}
		good := filepath.Join(dir, "good.yaml")
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(good, data, 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}

		if out, err := executeCommand(rootCmd, "projections", "validate", good); err != nil {
			t.Errorf("validate(good) error = %v\n%s", err, out)
		}
		out, err := executeCommand(rootCmd, "projections", "validate", good, bad)
		if err == nil {
			t.Fatal("validate(good, bad) error = nil, want error")
		}
		if !strings.Contains(out, "bad.json") {
			t.Errorf("validate output missing invalid file:\n%s", out)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	dir := setupWorkdir(t)

	out, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "max_tokens_per_module: 36369") {
		t.Errorf("config show missing clustering budget:\n%s", out)
	}

	out, err = executeCommand(rootCmd, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(out, "CODEWIKI_") {
		t.Errorf("config path output missing env prefix:\n%s", out)
	}

	if _, err := executeCommand(rootCmd, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".config", "codewiki", "config.yaml")); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if _, err := executeCommand(rootCmd, "config", "init"); err == nil {
		t.Error("second config init error = nil, want already exists")
	}
}

func TestLogsCommand(t *testing.T) {
	dir := setupWorkdir(t)
	logDir := filepath.Join(dir, "docs", ".codewiki")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	lines := `{"time":"2026-01-01T10:00:00Z","level":"INFO","msg":"generation started","run_id":"r1"}
{"time":"2026-01-01T10:00:01Z","level":"WARN","msg":"overview tag missing","module":"core/a"}
{"time":"2026-01-01T10:00:02Z","level":"ERROR","msg":"module documentation failed","module":"util"}
`
	if err := os.WriteFile(filepath.Join(logDir, "debug.log"), []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all",
			args: []string{"--level", "", "--module", "", "-n", "0"},
			want: []string{"generation started", "overview tag missing", "module documentation failed"},
		},
		{
			name:    "level",
			args:    []string{"--level", "warn", "--module", "", "-n", "0"},
			want:    []string{"overview tag missing", "module documentation failed"},
			notWant: []string{"generation started"},
		},
		{
			name:    "module",
			args:    []string{"--level", "", "--module", "core", "-n", "0"},
			want:    []string{"overview tag missing"},
			notWant: []string{"module documentation failed"},
		},
		{
			name:    "tail",
			args:    []string{"--level", "", "--module", "", "-n", "1"},
			want:    []string{"module documentation failed"},
			notWant: []string{"generation started"},
		},
		{
			name:    "csv export",
			args:    []string{"--level", "error", "--module", "", "-n", "0", "--format", "csv"},
			want:    []string{"timestamp,level,message", "2026-01-01T10:00:02Z,ERROR,module documentation failed,,util,,"},
			notWant: []string{"overview tag missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"logs", "--docs-dir", "docs", "--format", ""}, tt.args...)
			out, err := executeCommand(rootCmd, args...)
			if err != nil {
				t.Fatalf("logs error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output contains %q:\n%s", w, out)
				}
			}
		})
	}
}
