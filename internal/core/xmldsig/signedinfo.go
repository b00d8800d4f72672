package xmldsig

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/russellhaering/goxmldsig/etreeutils"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// SignedInfo is the signed core of a signature: a Manifest plus the
// canonicalization and signature methods. Manifest operations are promoted
// from the embedded Manifest.
type SignedInfo struct {
	Manifest

	c14nMethod *etree.Element
	sigMethod  *etree.Element
	canonical  []byte
}

// newSignedInfo creates a SignedInfo for signing under parent.
func (e *Engine) newSignedInfo(parent *etree.Element, c14nMethod, signatureMethod string, hmacOutputLength int) *SignedInfo {
	el := createDSig(parent, domain.TagSignedInfo)
	cm := createDSig(el, domain.TagCanonicalizationMethod)
	cm.CreateAttr(domain.AttrAlgorithm, c14nMethod)
	sm := createDSig(el, domain.TagSignatureMethod)
	sm.CreateAttr(domain.AttrAlgorithm, signatureMethod)
	if hmacOutputLength > 0 {
		createDSig(sm, domain.TagHMACOutputLength).SetText(strconv.Itoa(hmacOutputLength))
	}

	si := &SignedInfo{Manifest: *e.newManifest(el, nil, true), c14nMethod: cm, sigMethod: sm}
	si.changed = si.invalidate
	return si
}

// parseSignedInfo reads a ds:SignedInfo element for verification.
func (e *Engine) parseSignedInfo(el *etree.Element, baseURI string) (*SignedInfo, error) {
	cm := childDSig(el, domain.TagCanonicalizationMethod)
	if cm == nil || cm.SelectAttr(domain.AttrAlgorithm) == nil {
		return nil, domain.MalformedError("SignedInfo has no CanonicalizationMethod Algorithm", nil)
	}
	sm := childDSig(el, domain.TagSignatureMethod)
	if sm == nil || sm.SelectAttr(domain.AttrAlgorithm) == nil {
		return nil, domain.MalformedError("SignedInfo has no SignatureMethod Algorithm", nil)
	}
	refs, err := e.referenceHandles(el)
	if err != nil {
		return nil, err
	}
	si := &SignedInfo{Manifest: *e.newManifest(el, refs, false), c14nMethod: cm, sigMethod: sm}
	si.baseURI = baseURI
	si.changed = si.invalidate
	return si, nil
}

func (si *SignedInfo) invalidate() {
	si.canonical = nil
}

// CanonicalizationMethod returns the CanonicalizationMethod Algorithm URI.
func (si *SignedInfo) CanonicalizationMethod() string {
	return si.c14nMethod.SelectAttrValue(domain.AttrAlgorithm, "")
}

// InclusiveNamespaces returns the PrefixList of an exclusive
// CanonicalizationMethod, or "".
func (si *SignedInfo) InclusiveNamespaces() string {
	for _, child := range si.c14nMethod.ChildElements() {
		if child.Tag == domain.TagInclusiveNamespaces && child.NamespaceURI() == domain.NamespaceExcC14N {
			return child.SelectAttrValue(domain.AttrPrefixList, "")
		}
	}
	return ""
}

// SetInclusiveNamespaces sets the PrefixList hint of an exclusive
// CanonicalizationMethod.
func (si *SignedInfo) SetInclusiveNamespaces(prefixList string) error {
	if !si.signing {
		return domain.InvalidStateError("SignedInfo is read-only while verifying")
	}
	for _, child := range si.c14nMethod.ChildElements() {
		if child.Tag == domain.TagInclusiveNamespaces {
			si.c14nMethod.RemoveChild(child)
		}
	}
	if strings.TrimSpace(prefixList) != "" {
		inc := si.c14nMethod.CreateElement("ec:" + domain.TagInclusiveNamespaces)
		inc.CreateAttr("xmlns:ec", domain.NamespaceExcC14N)
		inc.CreateAttr(domain.AttrPrefixList, prefixList)
	}
	si.invalidate()
	return nil
}

// SignatureMethod returns the SignatureMethod Algorithm URI.
func (si *SignedInfo) SignatureMethod() string {
	return si.sigMethod.SelectAttrValue(domain.AttrAlgorithm, "")
}

// HMACOutputLength returns the HMACOutputLength parameter in bits, if set.
func (si *SignedInfo) HMACOutputLength() (int, bool, error) {
	el := childDSig(si.sigMethod, domain.TagHMACOutputLength)
	if el == nil {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(el.Text()))
	if err != nil {
		return 0, false, domain.MalformedError("HMACOutputLength is not an integer", err)
	}
	return n, true, nil
}

// signatureAlgorithm resolves the SignatureMethod, applying HMACOutputLength.
func (si *SignedInfo) signatureAlgorithm() (ports.SignatureAlgorithm, error) {
	uri := si.SignatureMethod()
	if err := si.engine.config.CheckAlgorithm(uri); err != nil {
		return nil, err
	}
	alg, err := si.engine.algorithms.Signature(uri)
	if err != nil {
		return nil, err
	}
	bits, ok, err := si.HMACOutputLength()
	if err != nil || !ok {
		return alg, err
	}
	setter, isHMAC := alg.(ports.HMACOutputLengthSetter)
	if !isHMAC {
		return nil, domain.MalformedError(fmt.Sprintf("HMACOutputLength given for non-HMAC method %q", uri), nil)
	}
	return setter.WithOutputLength(bits)
}

// CanonicalizedOctetStream returns the canonical form of the SignedInfo
// element. The result is computed once until the next structural change;
// every call returns an independent copy.
func (si *SignedInfo) CanonicalizedOctetStream() ([]byte, error) {
	if si.canonical == nil {
		out, err := si.canonicalize()
		if err != nil {
			return nil, err
		}
		si.canonical = out
	}
	return bytes.Clone(si.canonical), nil
}

// SignInOctetStream writes the canonical SignedInfo to w.
func (si *SignedInfo) SignInOctetStream(w io.Writer) error {
	b, err := si.CanonicalizedOctetStream()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (si *SignedInfo) canonicalize() ([]byte, error) {
	method := si.CanonicalizationMethod()
	if !domain.IsCanonicalizationMethod(method) {
		return nil, domain.UnsupportedAlgorithmError("canonicalization", method)
	}
	if err := si.engine.config.CheckAlgorithm(method); err != nil {
		return nil, err
	}
	c, err := si.engine.canon.Canonicalizer(method, si.InclusiveNamespaces())
	if err != nil {
		return nil, err
	}
	ctx, err := etreeutils.NSBuildParentContext(si.el)
	if err != nil {
		return nil, domain.MalformedError("namespace context of SignedInfo", err)
	}
	detached, err := etreeutils.NSDetatch(ctx, si.el)
	if err != nil {
		return nil, domain.MalformedError("detach SignedInfo", err)
	}
	return c.Canonicalize(detached)
}

// Verify checks every reference, following nested manifests when asked.
func (si *SignedInfo) Verify(ctx context.Context, followManifests bool) (bool, error) {
	return si.VerifyReferences(ctx, followManifests)
}
