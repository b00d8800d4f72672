package resolver

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Precalculated serves digests attested outside this process, keyed by the
// Reference URI exactly as written. Thread-safe.
type Precalculated struct {
	mu      sync.RWMutex
	digests map[string][]byte
}

// NewPrecalculated creates an empty precalculated-digest resolver.
func NewPrecalculated() *Precalculated {
	return &Precalculated{digests: make(map[string][]byte)}
}

// Set records the digest for uri.
func (p *Precalculated) Set(uri string, digest []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.digests[uri] = bytes.Clone(digest)
}

// CanResolve reports whether a digest is recorded for the URI.
func (p *Precalculated) CanResolve(rc ports.ResolverContext) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.digests[rc.URI]
	return ok
}

// Resolve returns a digest-only input.
func (p *Precalculated) Resolve(_ context.Context, rc ports.ResolverContext) (*domain.SignatureInput, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	digest, ok := p.digests[rc.URI]
	if !ok {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("no precalculated digest"))
	}
	in := domain.NewPrecalculatedDigestInput(digest)
	in.SetSourceURI(rc.URI)
	return in, nil
}

var _ ports.ResourceResolver = (*Precalculated)(nil)
