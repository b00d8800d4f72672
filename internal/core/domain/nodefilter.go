package domain

import (
	"github.com/beevik/etree"
)

// FilterDecision is the verdict of a NodeFilter for one element.
type FilterDecision int

const (
	// FilterInclude keeps the element and visits its children.
	FilterInclude FilterDecision = iota
	// FilterExcludeNode drops the element and its text but keeps its child
	// elements in place.
	FilterExcludeNode
	// FilterExcludeSubtree drops the element and all of its descendants.
	FilterExcludeSubtree
)

// NodeFilter suppresses or prunes parts of a node-set when it is serialized.
// Filters are consulted in document order, and an element is visited only if
// its ancestors were not pruned.
type NodeFilter interface {
	Decide(el *etree.Element) FilterDecision
}

// NodeFilterFunc adapts a function to NodeFilter.
type NodeFilterFunc func(el *etree.Element) FilterDecision

// Decide calls f(el).
func (f NodeFilterFunc) Decide(el *etree.Element) FilterDecision { return f(el) }

// ExcludeElement returns a filter that prunes exactly target and its subtree.
func ExcludeElement(target *etree.Element) NodeFilter {
	return NodeFilterFunc(func(el *etree.Element) FilterDecision {
		if el == target {
			return FilterExcludeSubtree
		}
		return FilterInclude
	})
}

// decide combines filters; the strongest exclusion wins.
func decide(filters []NodeFilter, el *etree.Element) FilterDecision {
	verdict := FilterInclude
	for _, f := range filters {
		if d := f.Decide(el); d > verdict {
			verdict = d
			if verdict == FilterExcludeSubtree {
				break
			}
		}
	}
	return verdict
}

// prune applies filters to cp, a structural copy of orig. Decisions are made
// against the original elements so identity based filters keep working, and
// each element is decided before any of its following siblings.
func prune(orig, cp *etree.Element, filters []NodeFilter, excludeComments bool) {
	if len(orig.Child) != len(cp.Child) {
		return
	}
	kept := make([]etree.Token, 0, len(cp.Child))
	for i, tok := range cp.Child {
		switch t := tok.(type) {
		case *etree.Comment:
			if excludeComments {
				continue
			}
		case *etree.Element:
			o, ok := orig.Child[i].(*etree.Element)
			if !ok {
				break
			}
			switch decide(filters, o) {
			case FilterExcludeSubtree:
				continue
			case FilterExcludeNode:
				prune(o, t, filters, excludeComments)
				for _, grandchild := range t.ChildElements() {
					kept = append(kept, grandchild)
				}
				continue
			default:
				prune(o, t, filters, excludeComments)
			}
		}
		kept = append(kept, tok)
	}
	for i := len(cp.Child) - 1; i >= 0; i-- {
		cp.RemoveChildAt(i)
	}
	for _, tok := range kept {
		cp.AddChild(tok)
	}
}
