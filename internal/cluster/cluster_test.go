package cluster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aniruddha-adhikary/CodeWiki/internal/component"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/testutil"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tokens"
)

// tenPerComponent sizes every component at ten tokens.
var tenPerComponent = tokens.CounterFunc(func(text string) int {
	return 10 * strings.Count(text, "## Component:")
})

func fixture() component.Set {
	return testutil.Components(map[string]string{
		"a1": "a/one.go",
		"a2": "a/two.go",
		"a3": "a/three.go",
		"b1": "b/one.go",
		"b2": "b/two.go",
	})
}

func grouped(body string) string {
	return "Here you go:\n<GROUPED_COMPONENTS>\n" + body + "\n</GROUPED_COMPONENTS>"
}

func TestClusterUnderBudget(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e := NewEngine(gen, tenPerComponent, nil)

	set := fixture()
	tree, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 51})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if len(tree) != 0 {
		t.Errorf("Cluster() = %v, want empty tree", tree)
	}
	if gen.Calls() != 0 {
		t.Errorf("generation calls = %d, want 0", gen.Calls())
	}
}

func TestClusterPrecomputed(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	e := NewEngine(gen, tenPerComponent, nil)
	set := fixture()
	pre := moduletree.Tree{"everything": moduletree.NewLeaf(testutil.IDs(set))}

	tree, err := e.Cluster(context.Background(), Request{
		IDs:         testutil.IDs(set),
		Components:  set,
		Budget:      1,
		Precomputed: pre,
	})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if diff := cmp.Diff(pre, tree); diff != "" {
		t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
	}
	if gen.Calls() != 0 {
		t.Errorf("generation calls = %d, want 0", gen.Calls())
	}
}

func TestClusterSingleLevel(t *testing.T) {
	gen := testutil.NewScriptedGenerator().Default(grouped(`{
		"alpha": {"path": "a", "components": ["a1", "a2", "a3"]},
		"beta": {"path": "b", "components": ["b1", "b2"]}
	}`))
	e := NewEngine(gen, tenPerComponent, nil)
	set := fixture()

	tree, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 40})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	want := moduletree.Tree{
		"alpha": {Path: "a", Components: []string{"a1", "a2", "a3"}, Children: moduletree.Tree{}},
		"beta":  {Path: "b", Components: []string{"b1", "b2"}, Children: moduletree.Tree{}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
	}
	if gen.Calls() != 1 {
		t.Errorf("generation calls = %d, want 1", gen.Calls())
	}
}

func TestClusterRecursesOverBudgetGroups(t *testing.T) {
	gen := testutil.NewScriptedGenerator().
		On(`the module "alpha"`, grouped(`{
			"first": {"components": ["a1"]},
			"rest": {"components": ["a2", "a3"]}
		}`)).
		Default(grouped(`{
			"alpha": {"path": "a", "components": ["a1", "a2", "a3"]},
			"beta": {"path": "b", "components": ["b1", "b2"]}
		}`))
	e := NewEngine(gen, tenPerComponent, nil)
	set := fixture()

	tree, err := e.Cluster(context.Background(), Request{
		IDs:        testutil.IDs(set),
		Components: set,
		Budget:     25,
		Directive:  "group by feature",
	})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	want := moduletree.Tree{
		"alpha": {Path: "a", Components: []string{"a1", "a2", "a3"}, Children: moduletree.Tree{
			"first": {Components: []string{"a1"}, Children: moduletree.Tree{}},
			"rest":  {Components: []string{"a2", "a3"}, Children: moduletree.Tree{}},
		}},
		"beta": {Path: "b", Components: []string{"b1", "b2"}, Children: moduletree.Tree{}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
	}

	prompts := gen.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("generation calls = %d, want 2", len(prompts))
	}
	for i, p := range prompts {
		if !strings.Contains(p, "group by feature") {
			t.Errorf("prompt %d missing directive", i)
		}
	}
	if !strings.Contains(prompts[1], "<MODULE_TREE>") {
		t.Error("nested prompt missing module tree")
	}
	listed := prompts[1][strings.Index(prompts[1], "<POTENTIAL_CORE_COMPONENTS>"):]
	if strings.Contains(listed, "b1") {
		t.Error("nested prompt lists components outside the module")
	}
}

func TestClusterSingleGroupStops(t *testing.T) {
	t.Run("top level leaves the tree empty", func(t *testing.T) {
		gen := testutil.NewScriptedGenerator().Default(grouped(`{
			"all": {"components": ["a1", "a2", "a3", "b1", "b2"]}
		}`))
		e := NewEngine(gen, tenPerComponent, nil)
		set := fixture()

		tree, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 10})
		if err != nil {
			t.Fatalf("Cluster() error = %v", err)
		}
		if len(tree) != 0 {
			t.Errorf("Cluster() = %v, want empty tree", tree)
		}
		if gen.Calls() != 1 {
			t.Errorf("generation calls = %d, want 1", gen.Calls())
		}
	})

	t.Run("nested module stays a leaf", func(t *testing.T) {
		gen := testutil.NewScriptedGenerator().
			On(`the module "alpha"`, grouped(`{
				"same": {"components": ["a1", "a2", "a3"]}
			}`)).
			Default(grouped(`{
				"alpha": {"path": "a", "components": ["a1", "a2", "a3"]},
				"beta": {"path": "b", "components": ["b1", "b2"]}
			}`))
		e := NewEngine(gen, tenPerComponent, nil)
		set := fixture()

		tree, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 25})
		if err != nil {
			t.Fatalf("Cluster() error = %v", err)
		}
		want := moduletree.Tree{
			"alpha": {Path: "a", Components: []string{"a1", "a2", "a3"}, Children: moduletree.Tree{}},
			"beta":  {Path: "b", Components: []string{"b1", "b2"}, Children: moduletree.Tree{}},
		}
		if diff := cmp.Diff(want, tree); diff != "" {
			t.Errorf("Cluster() mismatch (-want +got):\n%s", diff)
		}
		if !tree["alpha"].IsLeaf() {
			t.Errorf("alpha children = %v, want leaf", tree["alpha"].Children.Names())
		}
		if gen.Calls() != 2 {
			t.Errorf("generation calls = %d, want 2", gen.Calls())
		}
	})
}

func TestParseGroupingRejectsUnsafeNames(t *testing.T) {
	ids := []string{"a1", "b1"}
	for _, name := range []string{"core/utils", "../x", ".."} {
		t.Run(name, func(t *testing.T) {
			resp := grouped(`{"` + name + `": {"components": ["a1"]}, "ok": {"components": ["b1"]}}`)
			_, err := ParseGrouping(resp, ids)

			var cerr *cwerrors.ClusteringError
			if !errors.As(err, &cerr) {
				t.Fatalf("ParseGrouping() error = %v, want ClusteringError", err)
			}
			var verr *cwerrors.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("ParseGrouping() error = %v, want ValidationError cause", err)
			}
		})
	}
}

func TestClusterParseFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     error
	}{
		{
			name:     "missing id",
			response: grouped(`{"alpha": {"components": ["a1", "a2", "a3"]}, "beta": {"components": ["b1"]}}`),
			want:     cwerrors.ErrPartitionViolated,
		},
		{
			name:     "duplicate id",
			response: grouped(`{"alpha": {"components": ["a1", "a2", "a3", "b1"]}, "beta": {"components": ["b1", "b2"]}}`),
			want:     cwerrors.ErrPartitionViolated,
		},
		{
			name:     "unknown id",
			response: grouped(`{"alpha": {"components": ["a1", "a2", "a3", "zz"]}, "beta": {"components": ["b1", "b2"]}}`),
			want:     cwerrors.ErrPartitionViolated,
		},
		{
			name:     "no tag",
			response: `{"alpha": {"components": ["a1"]}}`,
			want:     cwerrors.ErrGroupingMissing,
		},
		{
			name:     "invalid json",
			response: grouped(`{"alpha": [`),
			want:     cwerrors.ErrGroupingInvalid,
		},
		{
			name:     "empty grouping",
			response: grouped(`{}`),
			want:     cwerrors.ErrGroupingInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := testutil.NewScriptedGenerator().Default(tt.response)
			e := NewEngine(gen, tenPerComponent, nil)
			set := fixture()

			tree, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 10})
			if tree != nil {
				t.Errorf("Cluster() tree = %v, want nil", tree)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Cluster() error = %v, want %v", err, tt.want)
			}
			var cerr *cwerrors.ClusteringError
			if !errors.As(err, &cerr) {
				t.Fatalf("Cluster() error type = %T, want *ClusteringError", err)
			}
			if cerr.Response != tt.response {
				t.Errorf("Response = %q, want raw response", cerr.Response)
			}
		})
	}
}

func TestClusterGeneratorError(t *testing.T) {
	boom := errors.New("rate limited")
	gen := testutil.NewScriptedGenerator().OnError("POTENTIAL_CORE_COMPONENTS", boom)
	e := NewEngine(gen, tenPerComponent, nil)
	set := fixture()

	_, err := e.Cluster(context.Background(), Request{IDs: testutil.IDs(set), Components: set, Budget: 10})
	if !errors.Is(err, boom) {
		t.Errorf("Cluster() error = %v, want wrapped %v", err, boom)
	}
}

func TestClusterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := testutil.NewScriptedGenerator()
	e := NewEngine(gen, tenPerComponent, nil)
	set := fixture()

	_, err := e.Cluster(ctx, Request{IDs: testutil.IDs(set), Components: set, Budget: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Cluster() error = %v, want context.Canceled", err)
	}
	if gen.Calls() != 0 {
		t.Errorf("generation calls = %d, want 0", gen.Calls())
	}
}

func TestParseGroupingMessage(t *testing.T) {
	_, err := ParseGrouping(grouped(`{"x": {"components": ["a"]}}`), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), `component "b" is not in any module`) {
		t.Errorf("ParseGrouping() error = %v, want missing component message", err)
	}
}
