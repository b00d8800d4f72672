//go:build unit

package domain

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

func TestNodeFilter_ExcludeNodeKeepsChildren(t *testing.T) {
	doc := mustParse(t, `<root><wrap>text<inner>1</inner><inner>2</inner></wrap><tail/></root>`)
	wrap := doc.Root().ChildElements()[0]
	in := NewNodeSetInput([]*etree.Element{doc.Root()}, true)

	filtered, err := in.WithFilter(NodeFilterFunc(func(el *etree.Element) FilterDecision {
		if el == wrap {
			return FilterExcludeNode
		}
		return FilterInclude
	}))
	if err != nil {
		t.Fatalf("WithFilter error: %v", err)
	}
	got, err := filtered.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if want := `<root><inner>1</inner><inner>2</inner><tail></tail></root>`; string(got) != want {
		t.Errorf("Bytes = %q, want %q", got, want)
	}
}

func TestNodeFilter_ApexExcluded(t *testing.T) {
	doc := mustParse(t, `<root><a>1</a><b>2</b></root>`)
	root := doc.Root()
	b := root.ChildElements()[1]

	tests := []struct {
		name   string
		filter NodeFilter
		want   string
	}{
		{"apex node dropped", NodeFilterFunc(func(el *etree.Element) FilterDecision {
			if el == root {
				return FilterExcludeNode
			}
			return FilterInclude
		}), `<a>1</a><b>2</b>`},
		{"apex subtree dropped", ExcludeElement(root), ``},
		{"child subtree dropped", ExcludeElement(b), `<root><a>1</a></root>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NewNodeSetInput([]*etree.Element{root}, true).WithFilter(tt.filter)
			if err != nil {
				t.Fatalf("WithFilter error: %v", err)
			}
			got, err := in.Bytes()
			if err != nil {
				t.Fatalf("Bytes error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Bytes = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecide_StrongestWins(t *testing.T) {
	el := etree.NewElement("x")
	include := NodeFilterFunc(func(*etree.Element) FilterDecision { return FilterInclude })
	node := NodeFilterFunc(func(*etree.Element) FilterDecision { return FilterExcludeNode })
	subtree := NodeFilterFunc(func(*etree.Element) FilterDecision { return FilterExcludeSubtree })

	tests := []struct {
		filters []NodeFilter
		want    FilterDecision
	}{
		{nil, FilterInclude},
		{[]NodeFilter{include, node}, FilterExcludeNode},
		{[]NodeFilter{node, subtree, include}, FilterExcludeSubtree},
	}
	for i, tt := range tests {
		if got := decide(tt.filters, el); got != tt.want {
			t.Errorf("case %d: decide = %v, want %v", i, got, tt.want)
		}
	}
}

func TestNodeFilter_VisitsInDocumentOrder(t *testing.T) {
	tests := []struct {
		name   string
		xml    string
		prune  string
		visits []string
		want   string
	}{
		{"siblings", `<r><a/><b/><c/></r>`, "", []string{"r", "a", "b", "c"}, `<r><a></a><b></b><c></c></r>`},
		{"nested", `<r><a><a1/><a2/></a><b/></r>`, "", []string{"r", "a", "a1", "a2", "b"}, `<r><a><a1></a1><a2></a2></a><b></b></r>`},
		{"pruned subtree not visited", `<r><a><a1/></a><b/></r>`, "a", []string{"r", "a", "b"}, `<r><b></b></r>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.xml)
			var visits []string
			f := NodeFilterFunc(func(el *etree.Element) FilterDecision {
				visits = append(visits, el.Tag)
				if el.Tag == tt.prune {
					return FilterExcludeSubtree
				}
				return FilterInclude
			})
			in, err := NewNodeSetInput([]*etree.Element{doc.Root()}, true).WithFilter(f)
			if err != nil {
				t.Fatalf("WithFilter error: %v", err)
			}
			got, err := in.Bytes()
			if err != nil {
				t.Fatalf("Bytes error: %v", err)
			}
			if diff := cmp.Diff(tt.visits, visits); diff != "" {
				t.Errorf("visit order mismatch (-want +got):\n%s", diff)
			}
			if string(got) != tt.want {
				t.Errorf("Bytes = %q, want %q", got, tt.want)
			}
		})
	}
}
