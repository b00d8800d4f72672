package transform

import (
	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Canonical serializes a node-set with one of the C14N methods. The output is
// always an octet stream.
type Canonical struct {
	uri   string
	canon ports.CanonicalizerRegistry
}

// Algorithm returns the transform URI.
func (c *Canonical) Algorithm() string { return c.uri }

// Apply canonicalizes in. Octet input is parsed first.
func (c *Canonical) Apply(tc ports.TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	canonicalizer, err := c.canon.Canonicalizer(c.uri, PrefixList(tc.Element))
	if err != nil {
		return nil, err
	}
	out, err := in.CanonicalizeWith(canonicalizer.Canonicalize)
	if err != nil {
		return nil, err
	}
	result := domain.NewBytesInput(out)
	result.SetSourceURI(in.SourceURI())
	return result, nil
}

// PrefixList returns the InclusiveNamespaces PrefixList parameter of an
// exclusive canonicalization element, or "".
func PrefixList(el *etree.Element) string {
	if el == nil {
		return ""
	}
	for _, child := range el.ChildElements() {
		if child.Tag == domain.TagInclusiveNamespaces && child.NamespaceURI() == domain.NamespaceExcC14N {
			return child.SelectAttrValue(domain.AttrPrefixList, "")
		}
	}
	return ""
}

// Ensure implementations satisfy interfaces
var _ ports.Transform = (*Canonical)(nil)
