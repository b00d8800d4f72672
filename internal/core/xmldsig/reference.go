package xmldsig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// ReferenceSpec describes a Reference to add to a Manifest or SignedInfo.
type ReferenceSpec struct {
	// URI is the Reference URI. With OmitURI set the attribute is left out
	// and only a resolver that expects that can dereference it.
	URI     string
	OmitURI bool

	ID           string
	Type         string
	DigestMethod string
	Transforms   []TransformSpec
}

// Scope is what a Reference needs from its owning Manifest to dereference
// its URI. It is passed in explicitly on every call.
type Scope struct {
	Resolvers  []ports.ResourceResolver
	Properties map[string]string
	BaseURI    string
}

// Reference is one ds:Reference element.
type Reference struct {
	engine    *Engine
	el        *etree.Element
	signature *etree.Element
	chain     *TransformChain

	dereferenced *domain.SignatureInput
	transformed  *domain.SignatureInput
}

// parseReference checks the structure of el and reads its transforms.
func (e *Engine) parseReference(el, signature *etree.Element) (*Reference, error) {
	uri := el.SelectAttrValue(domain.AttrURI, "")
	chain, err := e.parseTransformChain(el, uri)
	if err != nil {
		return nil, err
	}
	dm := childDSig(el, domain.TagDigestMethod)
	if dm == nil || dm.SelectAttr(domain.AttrAlgorithm) == nil {
		return nil, domain.MalformedError(fmt.Sprintf("Reference %q has no DigestMethod Algorithm", uri), nil)
	}
	if childDSig(el, domain.TagDigestValue) == nil {
		return nil, domain.MalformedError(fmt.Sprintf("Reference %q has no DigestValue", uri), nil)
	}
	return &Reference{engine: e, el: el, signature: signature, chain: chain}, nil
}

// Element returns the ds:Reference element.
func (r *Reference) Element() *etree.Element { return r.el }

// URI returns the URI attribute and whether it is present.
func (r *Reference) URI() (string, bool) {
	a := r.el.SelectAttr(domain.AttrURI)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// ID returns the Id attribute, or "".
func (r *Reference) ID() string { return r.el.SelectAttrValue(domain.AttrID, "") }

// Type returns the Type attribute, or "".
func (r *Reference) Type() string { return r.el.SelectAttrValue(domain.AttrType, "") }

// IsReferenceToObject reports whether the Type marks a ds:Object target.
func (r *Reference) IsReferenceToObject() bool { return r.Type() == domain.TypeObject }

// IsReferenceToManifest reports whether the Type marks a ds:Manifest target.
func (r *Reference) IsReferenceToManifest() bool { return r.Type() == domain.TypeManifest }

// DigestMethod returns the DigestMethod Algorithm URI.
func (r *Reference) DigestMethod() string {
	return childDSig(r.el, domain.TagDigestMethod).SelectAttrValue(domain.AttrAlgorithm, "")
}

// DigestValue returns the decoded DigestValue. It is empty before the digest
// has been generated.
func (r *Reference) DigestValue() ([]byte, error) {
	b, err := decodeBase64(childDSig(r.el, domain.TagDigestValue).Text())
	if err != nil {
		return nil, domain.MalformedError("DigestValue is not valid base64", err)
	}
	return b, nil
}

// Transforms returns the transform chain.
func (r *Reference) Transforms() *TransformChain { return r.chain }

// ContentsBeforeTransformation returns the dereferenced content of the last
// digest computation, or nil.
func (r *Reference) ContentsBeforeTransformation() *domain.SignatureInput { return r.dereferenced }

// ContentsAfterTransformation returns the transformed content of the last
// digest computation, or nil.
func (r *Reference) ContentsAfterTransformation() *domain.SignatureInput { return r.transformed }

// ReferencedBytes returns the octets that were digested in the last digest
// computation.
func (r *Reference) ReferencedBytes() ([]byte, error) {
	if r.transformed == nil {
		return nil, domain.InvalidStateError("reference has not been dereferenced")
	}
	return r.transformed.Bytes()
}

// GenerateDigestValue dereferences, transforms and digests the content and
// stores the base64 digest in DigestValue. When the transform output is
// still a node-set and AddC14N11TransformIfNeeded is set, a C14N 1.1
// transform is appended to the Reference first.
func (r *Reference) GenerateDigestValue(ctx context.Context, scope Scope) error {
	digest, err := r.calculateDigest(ctx, scope, true)
	if err != nil {
		return err
	}
	childDSig(r.el, domain.TagDigestValue).SetText(encodeBase64(digest, r.engine.config.Base64LineLength))
	r.engine.logger.Debug("reference digest generated",
		zap.String("uri", r.el.SelectAttrValue(domain.AttrURI, "")),
		zap.String("digest_algorithm", domain.AlgorithmName(r.DigestMethod())))
	return nil
}

// Verify recomputes the digest and compares it with DigestValue. A mismatch
// returns (false, nil); errors mean the digest could not be computed at all.
func (r *Reference) Verify(ctx context.Context, scope Scope) (bool, error) {
	uri := r.el.SelectAttrValue(domain.AttrURI, "")
	expected, err := r.DigestValue()
	if err != nil {
		return false, err
	}
	actual, err := r.calculateDigest(ctx, scope, false)
	if err != nil {
		return false, err
	}

	valid := bytes.Equal(expected, actual)
	r.engine.metrics.RecordReferenceCheck(r.DigestMethod(), valid)
	if !valid {
		r.engine.logger.Warn("reference digest mismatch",
			zap.String("uri", uri),
			zap.String("digest_algorithm", domain.AlgorithmName(r.DigestMethod())),
			zap.String("expected", encodeBase64(expected, 0)),
			zap.String("actual", encodeBase64(actual, 0)))
		return false, nil
	}
	r.engine.logger.Debug("reference verified", zap.String("uri", uri))
	return true, nil
}

// calculateDigest runs the dereference, transform and digest pipeline.
func (r *Reference) calculateDigest(ctx context.Context, scope Scope, signing bool) ([]byte, error) {
	uri := r.el.SelectAttrValue(domain.AttrURI, "")
	digestURI := r.DigestMethod()
	if err := r.engine.config.CheckAlgorithm(digestURI); err != nil {
		return nil, err
	}
	alg, err := r.engine.algorithms.Digest(digestURI)
	if err != nil {
		return nil, err
	}

	r.dereferenced, r.transformed = nil, nil
	in, err := r.dereference(ctx, scope)
	if err != nil {
		return nil, err
	}
	r.dereferenced = in
	if in.IsPrecalculatedDigest() {
		r.transformed = in
		return in.PrecalculatedDigest(), nil
	}

	out, err := r.chain.Apply(r.signature, in)
	if err != nil {
		return nil, resourceError(uri, err)
	}
	if signing && out.IsNodeSet() && r.engine.config.AddC14N11TransformIfNeeded {
		step := r.chain.append(r.el, TransformSpec{Algorithm: domain.C14N11})
		if out, err = r.chain.applyStep(step, r.signature, out); err != nil {
			return nil, resourceError(uri, err)
		}
	}
	r.transformed = out

	h := alg.New()
	if _, err := out.WriteTo(h); err != nil {
		return nil, resourceError(uri, err)
	}
	return h.Sum(nil), nil
}

// dereference asks each resolver in scope order, then the engine resolvers,
// and uses the first that accepts the URI.
func (r *Reference) dereference(ctx context.Context, scope Scope) (*domain.SignatureInput, error) {
	attr := r.el.SelectAttr(domain.AttrURI)
	rc := ports.ResolverContext{
		HasURI:           attr != nil,
		BaseURI:          scope.BaseURI,
		Document:         documentOf(r.el),
		IDAttributes:     r.engine.config.IDAttributes,
		SecureValidation: r.engine.config.SecureValidation,
		Properties:       scope.Properties,
	}
	if attr != nil {
		rc.URI = attr.Value
	}
	scheme := uriScheme(rc.URI, rc.HasURI)

	for _, resolvers := range [][]ports.ResourceResolver{scope.Resolvers, r.engine.resolvers} {
		for _, res := range resolvers {
			if !res.CanResolve(rc) {
				continue
			}
			in, err := res.Resolve(ctx, rc)
			r.engine.metrics.RecordDereference(scheme, err == nil)
			if err != nil {
				return nil, domain.ReferenceNotInitializedError(rc.URI, err)
			}
			return in, nil
		}
	}
	r.engine.metrics.RecordDereference(scheme, false)
	return nil, domain.ReferenceNotInitializedError(rc.URI, domain.ResolverError(rc.URI, errors.New("no resolver accepts the URI")))
}

// resourceError passes configuration errors through and wraps everything
// else as reference_not_initialized.
func resourceError(uri string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code != domain.ErrCodeResolverFailed {
		return err
	}
	return domain.ReferenceNotInitializedError(uri, err)
}

// uriScheme names the kind of URI for metrics.
func uriScheme(uri string, present bool) string {
	switch {
	case !present:
		return "none"
	case uri == "" || strings.HasPrefix(uri, "#"):
		return "same-document"
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return "relative"
	}
	return strings.ToLower(u.Scheme)
}
