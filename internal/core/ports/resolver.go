package ports

import (
	"context"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// ResolverContext describes one URI to dereference.
type ResolverContext struct {
	// URI is the Reference URI attribute exactly as written. HasURI is false
	// when the attribute is absent.
	URI    string
	HasURI bool

	// BaseURI is the base against which relative URIs resolve.
	BaseURI string

	// Document is the document node holding the reference, used for
	// same-document URIs. Its first child element is the document element.
	Document *etree.Element

	// IDAttributes lists the attribute names that carry element IDs.
	IDAttributes []string

	// SecureValidation is set when the signature is processed in secure mode.
	SecureValidation bool

	// Properties are the resolver properties of the owning manifest.
	Properties map[string]string
}

// Property returns the named resolver property, or "".
func (rc ResolverContext) Property(key string) string {
	if rc.Properties == nil {
		return ""
	}
	return rc.Properties[key]
}

// ResourceResolver dereferences Reference URIs.
// This is a port interface - implementations are adapters.
type ResourceResolver interface {
	// CanResolve reports whether this resolver handles the URI.
	CanResolve(rc ResolverContext) bool

	// Resolve returns the content behind the URI. Failures are returned as
	// errors; the engine wraps them into reference_not_initialized errors.
	Resolve(ctx context.Context, rc ResolverContext) (*domain.SignatureInput, error)
}
