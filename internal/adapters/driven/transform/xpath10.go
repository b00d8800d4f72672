package transform

import (
	"fmt"
	"math"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// XPath implements the XPath 1.0 filtering transform. The expression is
// evaluated once per element of the input node-set, with that element as the
// context node, and the element is kept when the result converts to true.
// Text and attributes follow their element.
type XPath struct{}

// Algorithm returns the transform URI.
func (XPath) Algorithm() string { return domain.TransformXPath }

// Apply compiles the ds:XPath parameter and filters the input with it.
func (XPath) Apply(tc ports.TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	if tc.Element == nil {
		return nil, domain.MalformedError("XPath transform without parameters", nil)
	}
	var param *etree.Element
	for _, child := range tc.Element.ChildElements() {
		if child.Tag == domain.TagXPath && child.NamespaceURI() == domain.NamespaceDSig {
			param = child
			break
		}
	}
	if param == nil {
		return nil, domain.MalformedError("XPath transform has no XPath element", nil)
	}
	expr, err := xpath.CompileWithNS(strings.TrimSpace(param.Text()), namespacesInScope(param))
	if err != nil {
		return nil, domain.MalformedError("invalid XPath expression", err)
	}

	nodeIn, err := in.ToNodeSet()
	if err != nil {
		return nil, err
	}
	f := &xpathFilter{expr: expr}
	out, err := nodeIn.WithFilter(f)
	if err != nil {
		return nil, err
	}
	// Evaluation errors surface while the filter runs, so serialize here.
	if _, err := out.Bytes(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return out, nil
}

type xpathFilter struct {
	expr *xpath.Expr
	err  error
}

func (f *xpathFilter) Decide(el *etree.Element) domain.FilterDecision {
	if f.err != nil {
		return domain.FilterExcludeSubtree
	}
	ok, err := evaluateBool(f.expr, el)
	if err != nil {
		f.err = domain.MalformedError("XPath evaluation failed", err)
		return domain.FilterExcludeSubtree
	}
	if ok {
		return domain.FilterInclude
	}
	return domain.FilterExcludeNode
}

// evaluateBool applies the XPath boolean() conversion to the result of expr.
func evaluateBool(expr *xpath.Expr, el *etree.Element) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	switch v := expr.Evaluate(newNavigator(el)).(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	case string:
		return v != "", nil
	case *xpath.NodeIterator:
		return v.MoveNext(), nil
	default:
		return false, fmt.Errorf("unexpected XPath result %T", v)
	}
}

// namespacesInScope collects the prefixes declared on el and its ancestors;
// the nearest declaration of a prefix wins.
func namespacesInScope(el *etree.Element) map[string]string {
	ns := make(map[string]string)
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space != "xmlns" {
				continue
			}
			if _, seen := ns[a.Key]; !seen {
				ns[a.Key] = a.Value
			}
		}
	}
	return ns
}

var _ ports.Transform = XPath{}
