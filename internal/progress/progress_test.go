package progress

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

func sampleTree() moduletree.Tree {
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

func TestTake(t *testing.T) {
	store := artifact.NewStore(afero.NewMemMapFs(), "/docs")

	if _, err := Take(store); !errors.Is(err, cwerrors.ErrArtifactNotFound) {
		t.Fatalf("Take() on empty dir error = %v, want ErrArtifactNotFound", err)
	}

	if err := store.SaveTree(artifact.FirstModuleTree, sampleTree()); err != nil {
		t.Fatal(err)
	}
	_ = store.WriteDoc("a", "a doc")
	_ = store.WriteDoc("util", "util doc")

	snap, err := Take(store)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if snap.Tree != artifact.FirstModuleTree {
		t.Errorf("Tree = %q, want planning snapshot", snap.Tree)
	}

	type row struct {
		Label  string
		Parent bool
		Done   bool
	}
	var got []row
	for _, m := range snap.Modules {
		got = append(got, row{m.Label(), m.Parent, m.Done})
	}
	want := []row{
		{"core/a", false, true},
		{"core/b", false, false},
		{"core", true, false},
		{"util", false, true},
		{"(repository overview)", true, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if snap.Done() != 2 || snap.Total() != 5 {
		t.Errorf("Done/Total = %d/%d, want 2/5", snap.Done(), snap.Total())
	}
	if snap.Complete() {
		t.Error("Complete() = true without an overview")
	}
}

func TestTake_PrefersWorkingTree(t *testing.T) {
	store := artifact.NewStore(afero.NewMemMapFs(), "/docs")
	_ = store.SaveTree(artifact.FirstModuleTree, sampleTree())

	working := sampleTree()
	working["util"].Children = moduletree.Tree{"helpers": moduletree.NewLeaf([]string{"c1"})}
	_ = store.SaveTree(artifact.ModuleTree, working)
	_ = store.WriteOverview("# Repo")

	snap, err := Take(store)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if snap.Tree != artifact.ModuleTree {
		t.Errorf("Tree = %q, want working tree", snap.Tree)
	}
	found := false
	for _, m := range snap.Modules {
		if m.Label() == "util/helpers" {
			found = true
		}
	}
	if !found {
		t.Error("spawned sub-module missing from snapshot")
	}
	if !snap.Complete() {
		t.Error("Complete() = false with an overview")
	}
}

func TestTake_ReadsMetadata(t *testing.T) {
	store := artifact.NewStore(afero.NewMemMapFs(), "/docs")
	_ = store.SaveTree(artifact.ModuleTree, moduletree.Tree{})
	if err := store.WriteMetadata(artifact.Metadata{GenerationInfo: artifact.GenerationInfo{RunID: "run-1"}}); err != nil {
		t.Fatal(err)
	}

	snap, err := Take(store)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if snap.Metadata == nil || snap.Metadata.GenerationInfo.RunID != "run-1" {
		t.Errorf("Metadata = %+v, want run-1", snap.Metadata)
	}
	if snap.Total() != 1 {
		t.Errorf("Total() = %d, want only the overview", snap.Total())
	}
}
