package transform

import (
	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Enveloped removes the enclosing ds:Signature element from the node-set.
type Enveloped struct{}

// Algorithm returns the transform URI.
func (Enveloped) Algorithm() string { return domain.TransformEnvelopedSignature }

// Apply filters the signature element out of in.
func (Enveloped) Apply(tc ports.TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	if tc.Signature == nil {
		return nil, domain.MalformedError("enveloped-signature transform outside a Signature", nil)
	}
	return in.WithFilter(domain.ExcludeElement(tc.Signature))
}

var _ ports.Transform = Enveloped{}
