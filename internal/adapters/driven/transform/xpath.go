package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Filter operations of XPath Filter 2.0.
const (
	FilterIntersect = "intersect"
	FilterSubtract  = "subtract"
	FilterUnion     = "union"
)

// XPathFilter2 implements XPath Filter 2.0. Expressions are evaluated with
// etree path syntax, plus "/" for the whole document and id('x') for an
// element ID lookup.
type XPathFilter2 struct{}

// Algorithm returns the transform URI.
func (XPathFilter2) Algorithm() string { return domain.TransformXPathFilter2 }

type filterStep struct {
	op      string
	matched map[*etree.Element]bool
}

// Apply evaluates the filter steps in order against the input document.
func (XPathFilter2) Apply(tc ports.TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	if tc.Element == nil {
		return nil, domain.MalformedError("XPath filter transform without parameters", nil)
	}
	nodeIn, err := in.ToNodeSet()
	if err != nil {
		return nil, err
	}
	nodes, err := nodeIn.NodeSet()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nodeIn, nil
	}
	root := documentRoot(nodes[0])

	var steps []filterStep
	for _, child := range tc.Element.ChildElements() {
		if child.Tag != domain.TagXPath || child.NamespaceURI() != domain.NamespaceXPathFilt2 {
			continue
		}
		op := child.SelectAttrValue(domain.AttrFilter, "")
		switch op {
		case FilterIntersect, FilterSubtract, FilterUnion:
		default:
			return nil, domain.MalformedError(fmt.Sprintf("unknown XPath filter operation %q", op), nil)
		}
		matched, err := evaluate(root, strings.TrimSpace(child.Text()))
		if err != nil {
			return nil, domain.MalformedError("invalid XPath filter expression", err)
		}
		steps = append(steps, filterStep{op: op, matched: matched})
	}
	if len(steps) == 0 {
		return nil, domain.MalformedError("XPath filter transform has no XPath elements", nil)
	}
	return nodeIn.WithFilter(newFilter2(steps))
}

// newFilter2 turns the steps into a node filter. An element is kept when its
// own inclusion survives all steps; elements with no kept descendants are
// pruned whole.
func newFilter2(steps []filterStep) domain.NodeFilter {
	included := func(el *etree.Element) bool {
		in := true
		for _, s := range steps {
			covered := inSubtreeOf(el, s.matched)
			switch s.op {
			case FilterIntersect:
				in = in && covered
			case FilterSubtract:
				in = in && !covered
			case FilterUnion:
				in = in || covered
			}
		}
		return in
	}
	var anyIncluded func(el *etree.Element) bool
	anyIncluded = func(el *etree.Element) bool {
		for _, child := range el.ChildElements() {
			if included(child) || anyIncluded(child) {
				return true
			}
		}
		return false
	}
	return domain.NodeFilterFunc(func(el *etree.Element) domain.FilterDecision {
		switch {
		case included(el):
			return domain.FilterInclude
		case anyIncluded(el):
			return domain.FilterExcludeNode
		default:
			return domain.FilterExcludeSubtree
		}
	})
}

func inSubtreeOf(el *etree.Element, matched map[*etree.Element]bool) bool {
	for e := el; e != nil; e = e.Parent() {
		if matched[e] {
			return true
		}
	}
	return false
}

var idCall = regexp.MustCompile(`^id\(\s*['"]([^'"]+)['"]\s*\)$`)

// evaluate returns the elements selected by expr.
func evaluate(root *etree.Element, expr string) (map[*etree.Element]bool, error) {
	matched := make(map[*etree.Element]bool)
	switch {
	case expr == "/":
		matched[root] = true
		return matched, nil
	case idCall.MatchString(expr):
		id := idCall.FindStringSubmatch(expr)[1]
		for _, el := range append(root.FindElements("//*"), root) {
			if hasID(el, id) {
				matched[el] = true
			}
		}
		return matched, nil
	}
	path, err := etree.CompilePath(expr)
	if err != nil {
		return nil, err
	}
	for _, el := range root.FindElementsPath(path) {
		matched[el] = true
	}
	return matched, nil
}

func hasID(el *etree.Element, id string) bool {
	for _, attr := range []string{"Id", "ID", "id"} {
		if el.SelectAttrValue(attr, "") == id {
			return true
		}
	}
	return false
}

// documentRoot walks up to the topmost element holding el.
func documentRoot(el *etree.Element) *etree.Element {
	for el.Parent() != nil {
		el = el.Parent()
	}
	return el
}

var _ ports.Transform = XPathFilter2{}
