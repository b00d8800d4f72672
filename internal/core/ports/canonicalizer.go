package ports

import (
	"github.com/beevik/etree"
)

// Canonicalizer serializes an element subtree to canonical bytes.
// This is a port interface - implementations are adapters.
type Canonicalizer interface {
	// Algorithm returns the canonicalization method URI.
	Algorithm() string

	// Canonicalize serializes el. The element must carry the namespace
	// declarations in scope at its original position; it may be modified.
	Canonicalize(el *etree.Element) ([]byte, error)
}

// CanonicalizerRegistry builds canonicalizers by method URI.
type CanonicalizerRegistry interface {
	// Canonicalizer returns a canonicalizer for uri. prefixList holds the
	// InclusiveNamespaces hint of exclusive methods and is ignored otherwise.
	Canonicalizer(uri, prefixList string) (Canonicalizer, error)
}
