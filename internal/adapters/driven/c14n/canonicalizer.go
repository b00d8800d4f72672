// Package c14n adapts the goxmldsig canonicalizers to the Canonicalizer port.
package c14n

import (
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Canonicalizer wraps a goxmldsig canonicalizer.
type Canonicalizer struct {
	uri   string
	inner dsig.Canonicalizer
}

// Algorithm returns the canonicalization method URI.
func (c *Canonicalizer) Algorithm() string { return c.uri }

// Canonicalize serializes a copy of el.
func (c *Canonicalizer) Canonicalize(el *etree.Element) ([]byte, error) {
	return c.inner.Canonicalize(el.Copy())
}

// Registry builds canonicalizers for every supported C14N method.
type Registry struct{}

// NewRegistry creates a canonicalizer registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Canonicalizer returns the canonicalizer for uri. prefixList is a
// whitespace separated InclusiveNamespaces PrefixList and only matters for
// the exclusive methods.
func (r *Registry) Canonicalizer(uri, prefixList string) (ports.Canonicalizer, error) {
	prefixList = strings.Join(strings.Fields(prefixList), " ")

	var inner dsig.Canonicalizer
	switch uri {
	case domain.C14N10:
		inner = dsig.MakeC14N10RecCanonicalizer()
	case domain.C14N10WithComments:
		inner = dsig.MakeC14N10WithCommentsCanonicalizer()
	case domain.C14N11:
		inner = dsig.MakeC14N11Canonicalizer()
	case domain.C14N11WithComments:
		inner = dsig.MakeC14N11WithCommentsCanonicalizer()
	case domain.ExclusiveC14N10:
		inner = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixList)
	case domain.ExclusiveC14N10WithComment:
		inner = dsig.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixList)
	default:
		return nil, domain.UnsupportedAlgorithmError("canonicalization", uri)
	}
	return &Canonicalizer{uri: uri, inner: inner}, nil
}

// WithComments reports whether the method keeps comment nodes.
func WithComments(uri string) bool {
	switch uri {
	case domain.C14N10WithComments, domain.C14N11WithComments, domain.ExclusiveC14N10WithComment:
		return true
	}
	return false
}

// Ensure implementations satisfy interfaces
var _ ports.Canonicalizer = (*Canonicalizer)(nil)
var _ ports.CanonicalizerRegistry = (*Registry)(nil)
