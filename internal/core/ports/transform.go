package ports

import (
	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// TransformContext carries what a transform may need besides its input.
type TransformContext struct {
	// Element is the ds:Transform element; parameters are its children.
	Element *etree.Element

	// Signature is the ds:Signature element enclosing the reference, or nil
	// for references of a detached Manifest.
	Signature *etree.Element

	// SecureValidation is set when the signature is processed in secure mode.
	SecureValidation bool
}

// Transform is one step of a reference's transform chain.
// This is a port interface - implementations are adapters.
type Transform interface {
	// Algorithm returns the transform URI.
	Algorithm() string

	// Apply consumes in and returns the transformed content. Node filtering
	// transforms must keep document order.
	Apply(tc TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error)
}

// TransformRegistry looks transforms up by URI.
type TransformRegistry interface {
	// Transform returns the transform for uri or an unsupported_algorithm
	// error.
	Transform(uri string) (Transform, error)
}
