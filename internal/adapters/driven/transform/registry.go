// Package transform implements the Reference transforms: the C14N methods,
// enveloped-signature, base64 decoding, XPath 1.0 filtering and XPath
// Filter 2.0.
package transform

import (
	"sync"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Registry maps transform URIs to implementations.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]ports.Transform
}

// NewRegistry creates a registry with every built-in transform. Canonical
// transforms obtain their serializers from canon.
func NewRegistry(canon ports.CanonicalizerRegistry) *Registry {
	r := &Registry{transforms: make(map[string]ports.Transform)}
	for _, uri := range []string{
		domain.C14N10, domain.C14N10WithComments,
		domain.C14N11, domain.C14N11WithComments,
		domain.ExclusiveC14N10, domain.ExclusiveC14N10WithComment,
	} {
		r.Register(&Canonical{uri: uri, canon: canon})
	}
	r.Register(Enveloped{})
	r.Register(Base64{})
	r.Register(XPath{})
	r.Register(XPathFilter2{})
	return r
}

// Register adds or replaces a transform.
func (r *Registry) Register(t ports.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[t.Algorithm()] = t
}

// Transform returns the transform for uri.
func (r *Registry) Transform(uri string) (ports.Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transforms[uri]
	if !ok {
		return nil, domain.UnsupportedAlgorithmError("transform", uri)
	}
	return t, nil
}

// Ensure implementations satisfy interfaces
var _ ports.TransformRegistry = (*Registry)(nil)
