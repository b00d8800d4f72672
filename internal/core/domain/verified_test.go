//go:build unit

package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() []VerifiedReference {
	return []VerifiedReference{
		NewVerifiedReference(true, "#a", nil),
		NewVerifiedReference(true, "#m", []VerifiedReference{
			NewVerifiedReference(true, "#b", nil),
			NewVerifiedReference(false, "#c", nil),
		}),
		NewVerifiedReference(false, "#d", nil),
	}
}

func TestVerifiedReference_AllValid(t *testing.T) {
	tree := sampleTree()
	if AllValid(tree) {
		t.Error("AllValid(tree) = true with failing references")
	}
	if !tree[0].AllValid() {
		t.Error("valid leaf reported invalid")
	}
	if !tree[1].Valid() || tree[1].AllValid() {
		t.Error("manifest reference must be valid itself but fail through its nested result")
	}
	if !AllValid(nil) {
		t.Error("AllValid(nil) = false")
	}
}

func TestFailedReferences(t *testing.T) {
	want := []FailedReference{
		{URI: "#c", Depth: 1, Path: []int{1, 1}},
		{URI: "#d", Depth: 0, Path: []int{2}},
	}
	if diff := cmp.Diff(want, FailedReferences(sampleTree())); diff != "" {
		t.Errorf("FailedReferences mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifiedReference_Immutable(t *testing.T) {
	nested := []VerifiedReference{NewVerifiedReference(true, "#x", nil)}
	ref := NewVerifiedReference(true, "#m", nested)
	nested[0] = NewVerifiedReference(false, "#y", nil)

	got := ref.ManifestReferences()
	if got[0].URI() != "#x" {
		t.Error("reference shares the caller's slice")
	}
	got[0] = NewVerifiedReference(false, "#z", nil)
	if ref.ManifestReferences()[0].URI() != "#x" {
		t.Error("ManifestReferences exposes internal state")
	}
}

func TestReport_JSON(t *testing.T) {
	out, err := json.Marshal(Report(sampleTree()[1:2]))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `[{"uri":"#m","valid":true,"manifest":[{"uri":"#b","valid":true},{"uri":"#c","valid":false}]}]`
	if string(out) != want {
		t.Errorf("JSON = %s\nwant   %s", out, want)
	}
}
