package xmldsig

import (
	"context"
	"fmt"
	"maps"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Manifest is an ordered list of references with its own resolvers and
// resolver properties. Reference objects are built on first access from the
// backing element handles.
type Manifest struct {
	engine    *Engine
	el        *etree.Element
	signing   bool
	refs      []*etree.Element
	items     map[int]*Reference
	resolvers []ports.ResourceResolver
	props     map[string]string
	baseURI   string
	results   []domain.VerifiedReference

	// changed is called after every structural change.
	changed func()
}

// NewManifest creates an empty ds:Manifest for signing. The element is
// detached; place it with Object.AppendManifest or insert it yourself.
func (e *Engine) NewManifest(id string) *Manifest {
	el := newDSig(domain.TagManifest)
	if id != "" {
		el.CreateAttr(domain.AttrID, id)
	}
	return e.newManifest(el, nil, true)
}

// ParseManifest reads a ds:Manifest element for verification. Under secure
// validation the reference count is checked before any Reference is read.
func (e *Engine) ParseManifest(el *etree.Element, baseURI string) (*Manifest, error) {
	if !isDSig(el, domain.TagManifest) {
		return nil, domain.MalformedError(fmt.Sprintf("expected Manifest element, got <%s>", el.FullTag()), nil)
	}
	refs, err := e.referenceHandles(el)
	if err != nil {
		return nil, err
	}
	m := e.newManifest(el, refs, false)
	m.baseURI = baseURI
	return m, nil
}

func (e *Engine) newManifest(el *etree.Element, refs []*etree.Element, signing bool) *Manifest {
	return &Manifest{
		engine:  e,
		el:      el,
		signing: signing,
		refs:    refs,
		items:   make(map[int]*Reference),
		props:   make(map[string]string),
		changed: func() {},
	}
}

// referenceHandles lists the ds:Reference children of el after checking the
// count limits.
func (e *Engine) referenceHandles(el *etree.Element) ([]*etree.Element, error) {
	refs := childrenDSig(el, domain.TagReference)
	if len(refs) == 0 {
		return nil, domain.MalformedError(fmt.Sprintf("<%s> holds no Reference", el.FullTag()), nil)
	}
	if e.config.SecureValidation && len(refs) > e.config.MaxReferences {
		return nil, domain.TooManyReferencesError(len(refs), e.config.MaxReferences)
	}
	return refs, nil
}

// Element returns the backing element.
func (m *Manifest) Element() *etree.Element { return m.el }

// ID returns the Id attribute, or "".
func (m *Manifest) ID() string { return m.el.SelectAttrValue(domain.AttrID, "") }

// Len returns the number of references.
func (m *Manifest) Len() int { return len(m.refs) }

// Item returns reference i, building it on first access.
func (m *Manifest) Item(i int) (*Reference, error) {
	if i < 0 || i >= len(m.refs) {
		return nil, domain.InvalidStateError(fmt.Sprintf("reference index %d out of range [0, %d)", i, len(m.refs)))
	}
	if ref, ok := m.items[i]; ok {
		return ref, nil
	}
	ref, err := m.engine.parseReference(m.refs[i], enclosingSignature(m.el))
	if err != nil {
		return nil, err
	}
	m.items[i] = ref
	return ref, nil
}

// BaseURI returns the base URI for relative reference URIs.
func (m *Manifest) BaseURI() string { return m.baseURI }

// SetBaseURI sets the base URI for relative reference URIs.
func (m *Manifest) SetBaseURI(uri string) { m.baseURI = uri }

// AddResolver registers a resolver consulted before the engine resolvers.
func (m *Manifest) AddResolver(r ports.ResourceResolver) {
	m.resolvers = append(m.resolvers, r)
}

// SetResolverProperty sets a property passed to every resolver call.
func (m *Manifest) SetResolverProperty(key, value string) {
	m.props[key] = value
}

// ResolverProperty returns a resolver property, or "".
func (m *Manifest) ResolverProperty(key string) string {
	return m.props[key]
}

// Scope returns the dereference scope of this manifest's references.
func (m *Manifest) Scope() Scope {
	return Scope{
		Resolvers:  append([]ports.ResourceResolver(nil), m.resolvers...),
		Properties: maps.Clone(m.props),
		BaseURI:    m.baseURI,
	}
}

// AddDocument appends a new Reference. The DigestValue stays empty until
// GenerateDigestValues runs.
func (m *Manifest) AddDocument(spec ReferenceSpec) (*Reference, error) {
	if !m.signing {
		return nil, domain.InvalidStateError("references can only be added while signing")
	}
	cfg := m.engine.config
	if cfg.SecureValidation && len(m.refs) >= cfg.MaxReferences {
		return nil, domain.TooManyReferencesError(len(m.refs)+1, cfg.MaxReferences)
	}
	if err := m.engine.checkSpecs(spec.URI, spec.Transforms); err != nil {
		return nil, err
	}
	if err := cfg.CheckAlgorithm(spec.DigestMethod); err != nil {
		return nil, err
	}
	if _, err := m.engine.algorithms.Digest(spec.DigestMethod); err != nil {
		return nil, err
	}

	el := createDSig(m.el, domain.TagReference)
	if spec.ID != "" {
		el.CreateAttr(domain.AttrID, spec.ID)
	}
	if !spec.OmitURI {
		el.CreateAttr(domain.AttrURI, spec.URI)
	}
	if spec.Type != "" {
		el.CreateAttr(domain.AttrType, spec.Type)
	}
	chain := &TransformChain{engine: m.engine}
	for _, t := range spec.Transforms {
		chain.append(el, t)
	}
	createDSig(el, domain.TagDigestMethod).CreateAttr(domain.AttrAlgorithm, spec.DigestMethod)
	createDSig(el, domain.TagDigestValue)

	ref := &Reference{engine: m.engine, el: el, signature: enclosingSignature(m.el), chain: chain}
	m.items[len(m.refs)] = ref
	m.refs = append(m.refs, el)
	m.changed()
	return ref, nil
}

// GenerateDigestValues computes every DigestValue in order.
func (m *Manifest) GenerateDigestValues(ctx context.Context) error {
	if !m.signing {
		return domain.InvalidStateError("digest values can only be generated while signing")
	}
	defer m.changed()
	scope := m.Scope()
	for i := range m.refs {
		ref, err := m.Item(i)
		if err != nil {
			return err
		}
		// The signature element may have been attached after AddDocument.
		ref.signature = enclosingSignature(m.el)
		if err := ref.GenerateDigestValue(ctx, scope); err != nil {
			return err
		}
	}
	return nil
}

// VerifyReferences checks every reference in order and, with
// followManifests, every nested manifest reached through references typed
// as Manifest. All references are visited even after a mismatch. The
// results replace those of any earlier run.
func (m *Manifest) VerifyReferences(ctx context.Context, followManifests bool) (bool, error) {
	m.results = nil
	w := &walk{
		follow:  followManifests,
		visited: map[*etree.Element]bool{m.el: true},
	}
	results, err := m.verify(ctx, w, 0)
	if err != nil {
		return false, err
	}
	m.results = results
	return domain.AllValid(results), nil
}

// VerificationResults returns the results of the last VerifyReferences run.
func (m *Manifest) VerificationResults() []domain.VerifiedReference {
	return append([]domain.VerifiedReference(nil), m.results...)
}

// VerificationResult reports whether reference i and its nested manifest
// verified in the last run.
func (m *Manifest) VerificationResult(i int) (bool, error) {
	if i < 0 || i >= len(m.results) {
		return false, domain.InvalidStateError(fmt.Sprintf("no verification result for reference %d", i))
	}
	return m.results[i].AllValid(), nil
}

// SignedContentItem returns the digested octets of reference i from the
// last verification or signing run.
func (m *Manifest) SignedContentItem(i int) ([]byte, error) {
	ref, err := m.Item(i)
	if err != nil {
		return nil, err
	}
	return ref.ReferencedBytes()
}

// walk carries the work budget of one verification tree.
type walk struct {
	follow  bool
	visited map[*etree.Element]bool
	total   int
}

func (m *Manifest) verify(ctx context.Context, w *walk, depth int) ([]domain.VerifiedReference, error) {
	cfg := m.engine.config
	scope := m.Scope()
	results := make([]domain.VerifiedReference, 0, len(m.refs))
	for i := range m.refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.total++
		if cfg.SecureValidation && w.total > cfg.MaxTotalReferences {
			return nil, domain.TooManyReferencesError(w.total, cfg.MaxTotalReferences)
		}

		ref, err := m.Item(i)
		if err != nil {
			return nil, err
		}
		valid, err := ref.Verify(ctx, scope)
		if err != nil {
			return nil, err
		}

		var nested []domain.VerifiedReference
		if w.follow && ref.IsReferenceToManifest() {
			nested, err = m.followManifest(ctx, ref, w, depth+1)
			if err != nil {
				return nil, err
			}
		}
		uri, _ := ref.URI()
		results = append(results, domain.NewVerifiedReference(valid, uri, nested))
	}
	return results, nil
}

// followManifest verifies the manifest a Manifest-typed reference points to.
func (m *Manifest) followManifest(ctx context.Context, ref *Reference, w *walk, depth int) ([]domain.VerifiedReference, error) {
	uri, _ := ref.URI()
	cfg := m.engine.config
	if cfg.SecureValidation && depth > cfg.MaxManifestDepth {
		return nil, domain.ManifestDepthError(fmt.Sprintf("manifest %q nested %d levels deep, maximum is %d", uri, depth, cfg.MaxManifestDepth))
	}

	el, err := locateManifest(ref)
	if err != nil {
		return nil, err
	}
	if w.visited[el] {
		return nil, domain.ManifestDepthError(fmt.Sprintf("manifest %q is referenced in a cycle", uri))
	}
	w.visited[el] = true
	defer delete(w.visited, el)

	nested, err := m.engine.ParseManifest(el, m.baseURI)
	if err != nil {
		return nil, err
	}
	nested.resolvers = m.resolvers
	nested.props = m.props

	m.engine.logger.Debug("following nested manifest", zap.String("uri", uri), zap.Int("depth", depth))
	results, err := nested.verify(ctx, w, depth)
	if err != nil {
		return nil, err
	}
	nested.results = results
	return results, nil
}

// locateManifest finds the ds:Manifest in the dereferenced content of ref.
// The pre-transform content is used so the manifest keeps its document.
func locateManifest(ref *Reference) (*etree.Element, error) {
	uri, _ := ref.URI()
	in := ref.ContentsBeforeTransformation()
	if in == nil || in.IsPrecalculatedDigest() {
		return nil, domain.MalformedError(fmt.Sprintf("reference %q has no content to read a Manifest from", uri), nil)
	}
	nodes, err := in.NodeSet()
	if err != nil {
		return nil, domain.ReferenceNotInitializedError(uri, err)
	}
	for _, n := range nodes {
		if el := findDSig(n, domain.TagManifest); el != nil {
			return el, nil
		}
	}
	return nil, domain.MalformedError(fmt.Sprintf("reference %q does not point to a Manifest", uri), nil)
}
