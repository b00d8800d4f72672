package xmldsig

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// TransformSpec describes one transform to add when building a Reference.
type TransformSpec struct {
	// Algorithm is the transform URI.
	Algorithm string

	// PrefixList is the InclusiveNamespaces hint of exclusive C14N.
	PrefixList string

	// XPath is the expression of an XPath 1.0 filtering transform.
	XPath string
	// XPathNamespaces maps the prefixes used in XPath to namespace URIs.
	// They are declared on the ds:XPath element.
	XPathNamespaces map[string]string

	// XPathFilters are the steps of an XPath Filter 2.0 transform.
	XPathFilters []XPathFilter
}

// XPathFilter is one XPath Filter 2.0 step.
type XPathFilter struct {
	// Filter is intersect, subtract or union.
	Filter string
	// Expression selects the subtrees the step operates on.
	Expression string
}

// TransformChain is the ordered list of ds:Transform elements of a Reference.
type TransformChain struct {
	engine    *Engine
	container *etree.Element
	steps     []*etree.Element
}

// parseTransformChain reads the ds:Transforms child of ref. Under secure
// validation the transform count is checked before any step is examined.
func (e *Engine) parseTransformChain(ref *etree.Element, uri string) (*TransformChain, error) {
	chain := &TransformChain{engine: e, container: childDSig(ref, domain.TagTransforms)}
	if chain.container == nil {
		return chain, nil
	}
	steps := childrenDSig(chain.container, domain.TagTransform)
	if e.config.SecureValidation && len(steps) > e.config.MaxTransforms {
		return nil, domain.TooManyTransformsError(uri, len(steps), e.config.MaxTransforms)
	}
	for _, step := range steps {
		if step.SelectAttr(domain.AttrAlgorithm) == nil {
			return nil, domain.MalformedError("Transform without Algorithm attribute", nil)
		}
	}
	chain.steps = steps
	return chain, nil
}

// Len returns the number of transforms.
func (c *TransformChain) Len() int {
	return len(c.steps)
}

// Algorithms returns the transform URIs in order.
func (c *TransformChain) Algorithms() []string {
	out := make([]string, len(c.steps))
	for i, step := range c.steps {
		out[i] = step.SelectAttrValue(domain.AttrAlgorithm, "")
	}
	return out
}

// Elements returns the ds:Transform elements in order.
func (c *TransformChain) Elements() []*etree.Element {
	return append([]*etree.Element(nil), c.steps...)
}

// Apply runs every transform in order. Each transform consumes the previous
// output, whose kind may differ from its input.
func (c *TransformChain) Apply(signature *etree.Element, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	out := in
	for _, step := range c.steps {
		var err error
		out, err = c.applyStep(step, signature, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *TransformChain) applyStep(step, signature *etree.Element, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	uri := step.SelectAttrValue(domain.AttrAlgorithm, "")
	if err := c.engine.config.CheckAlgorithm(uri); err != nil {
		return nil, err
	}
	t, err := c.engine.transforms.Transform(uri)
	if err != nil {
		return nil, err
	}
	out, err := t.Apply(ports.TransformContext{
		Element:          step,
		Signature:        signature,
		SecureValidation: c.engine.config.SecureValidation,
	}, in)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", domain.AlgorithmName(uri), err)
	}
	return out, nil
}

// append adds a transform element at the end of the chain, creating the
// ds:Transforms container as the first child of ref when absent.
func (c *TransformChain) append(ref *etree.Element, spec TransformSpec) *etree.Element {
	if c.container == nil {
		c.container = etree.NewElement(dsigPrefix(ref) + domain.TagTransforms)
		ref.InsertChildAt(0, c.container)
	}
	step := createDSig(c.container, domain.TagTransform)
	step.CreateAttr(domain.AttrAlgorithm, spec.Algorithm)
	if spec.PrefixList != "" {
		inc := step.CreateElement("ec:" + domain.TagInclusiveNamespaces)
		inc.CreateAttr("xmlns:ec", domain.NamespaceExcC14N)
		inc.CreateAttr(domain.AttrPrefixList, spec.PrefixList)
	}
	if spec.XPath != "" {
		xp := createDSig(step, domain.TagXPath)
		prefixes := make([]string, 0, len(spec.XPathNamespaces))
		for prefix := range spec.XPathNamespaces {
			prefixes = append(prefixes, prefix)
		}
		sort.Strings(prefixes)
		for _, prefix := range prefixes {
			xp.CreateAttr("xmlns:"+prefix, spec.XPathNamespaces[prefix])
		}
		xp.SetText(spec.XPath)
	}
	for _, f := range spec.XPathFilters {
		xp := step.CreateElement("dsig-xpath:" + domain.TagXPath)
		xp.CreateAttr("xmlns:dsig-xpath", domain.NamespaceXPathFilt2)
		xp.CreateAttr(domain.AttrFilter, f.Filter)
		xp.SetText(f.Expression)
	}
	c.steps = append(c.steps, step)
	return step
}

// checkSpecs validates transforms requested for a new Reference.
func (e *Engine) checkSpecs(uri string, specs []TransformSpec) error {
	if e.config.SecureValidation && len(specs) > e.config.MaxTransforms {
		return domain.TooManyTransformsError(uri, len(specs), e.config.MaxTransforms)
	}
	for _, spec := range specs {
		if err := e.config.CheckAlgorithm(spec.Algorithm); err != nil {
			return err
		}
		if _, err := e.transforms.Transform(spec.Algorithm); err != nil {
			return err
		}
	}
	return nil
}
