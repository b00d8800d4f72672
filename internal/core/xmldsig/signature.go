package xmldsig

import (
	"context"
	"crypto/dsa" //nolint:staticcheck // DSA public keys cannot sign
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// Mode is fixed when a Signature is created.
type Mode int

const (
	// ModeSigning is the mode of signatures built with NewSignature.
	ModeSigning Mode = iota + 1
	// ModeVerifying is the mode of signatures read with ParseSignature.
	ModeVerifying
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSigning:
		return "signing"
	case ModeVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// SignatureSpec configures a new signature.
type SignatureSpec struct {
	ID                     string
	SignatureMethod        string
	CanonicalizationMethod string
	InclusiveNamespaces    string
	// HMACOutputLength truncates HMAC signatures to the given bits.
	HMACOutputLength int
	BaseURI          string
}

// Signature is one ds:Signature element.
type Signature struct {
	engine     *Engine
	mode       Mode
	el         *etree.Element
	signedInfo *SignedInfo
	value      *etree.Element
	manifests  []*Manifest

	followManifests bool
}

// NewSignature creates a ds:Signature for signing. With a non-nil parent
// the signature is appended to it, which is how enveloped signatures are
// built; otherwise it is detached.
func (e *Engine) NewSignature(parent *etree.Element, spec SignatureSpec) (*Signature, error) {
	if spec.CanonicalizationMethod == "" {
		spec.CanonicalizationMethod = domain.ExclusiveC14N10
	}
	if !domain.IsCanonicalizationMethod(spec.CanonicalizationMethod) {
		return nil, domain.UnsupportedAlgorithmError("canonicalization", spec.CanonicalizationMethod)
	}
	for _, uri := range []string{spec.CanonicalizationMethod, spec.SignatureMethod} {
		if err := e.config.CheckAlgorithm(uri); err != nil {
			return nil, err
		}
	}
	if _, err := e.algorithms.Signature(spec.SignatureMethod); err != nil {
		return nil, err
	}

	el := newDSig(domain.TagSignature)
	if parent != nil {
		parent.AddChild(el)
	}
	if spec.ID != "" {
		el.CreateAttr(domain.AttrID, spec.ID)
	}

	si := e.newSignedInfo(el, spec.CanonicalizationMethod, spec.SignatureMethod, spec.HMACOutputLength)
	si.baseURI = spec.BaseURI
	if spec.InclusiveNamespaces != "" {
		if err := si.SetInclusiveNamespaces(spec.InclusiveNamespaces); err != nil {
			return nil, err
		}
	}
	value := createDSig(el, domain.TagSignatureValue)

	return &Signature{
		engine:          e,
		mode:            ModeSigning,
		el:              el,
		signedInfo:      si,
		value:           value,
		followManifests: e.config.FollowNestedManifests,
	}, nil
}

// ParseSignature reads a ds:Signature element for verification.
func (e *Engine) ParseSignature(el *etree.Element, baseURI string) (*Signature, error) {
	if !isDSig(el, domain.TagSignature) {
		return nil, domain.MalformedError(fmt.Sprintf("expected Signature element, got <%s>", el.FullTag()), nil)
	}
	siEl := childDSig(el, domain.TagSignedInfo)
	if siEl == nil {
		return nil, domain.MalformedError("Signature has no SignedInfo", nil)
	}
	value := childDSig(el, domain.TagSignatureValue)
	if value == nil {
		return nil, domain.MalformedError("Signature has no SignatureValue", nil)
	}
	si, err := e.parseSignedInfo(siEl, baseURI)
	if err != nil {
		return nil, err
	}
	return &Signature{
		engine:          e,
		mode:            ModeVerifying,
		el:              el,
		signedInfo:      si,
		value:           value,
		followManifests: e.config.FollowNestedManifests,
	}, nil
}

// Mode returns the mode fixed at construction.
func (s *Signature) Mode() Mode { return s.mode }

// Element returns the ds:Signature element.
func (s *Signature) Element() *etree.Element { return s.el }

// ID returns the Id attribute, or "".
func (s *Signature) ID() string { return s.el.SelectAttrValue(domain.AttrID, "") }

// SignedInfo returns the SignedInfo.
func (s *Signature) SignedInfo() *SignedInfo { return s.signedInfo }

// FollowNestedManifests reports whether CheckSignatureValue descends into
// Manifest-typed references.
func (s *Signature) FollowNestedManifests() bool { return s.followManifests }

// SetFollowNestedManifests overrides the engine default for this signature.
func (s *Signature) SetFollowNestedManifests(follow bool) { s.followManifests = follow }

// SignatureValue returns the decoded SignatureValue, empty before signing.
func (s *Signature) SignatureValue() ([]byte, error) {
	b, err := decodeBase64(s.value.Text())
	if err != nil {
		return nil, domain.MalformedError("SignatureValue is not valid base64", err)
	}
	return b, nil
}

// AddDocument adds a reference to the SignedInfo.
func (s *Signature) AddDocument(spec ReferenceSpec) (*Reference, error) {
	return s.signedInfo.AddDocument(spec)
}

// Sign computes the digests of every manifest placed in an Object of this
// signature, then the SignedInfo digests, and finally the SignatureValue
// over the canonical SignedInfo. Public keys and certificates are rejected
// before any work is done.
func (s *Signature) Sign(ctx context.Context, key any) (err error) {
	if s.mode != ModeSigning {
		return domain.InvalidStateError("signature was parsed for verification and cannot be signed")
	}
	if err := checkSigningKey(key); err != nil {
		return err
	}
	method := s.signedInfo.SignatureMethod()
	defer func() {
		s.engine.metrics.RecordSigning(method, err == nil)
	}()

	for _, m := range s.manifests {
		if err := m.GenerateDigestValues(ctx); err != nil {
			return err
		}
	}
	if err := s.signedInfo.GenerateDigestValues(ctx); err != nil {
		return err
	}

	alg, err := s.signedInfo.signatureAlgorithm()
	if err != nil {
		return err
	}
	signer, err := alg.InitSign(key)
	if err != nil {
		return err
	}
	if err := s.signedInfo.SignInOctetStream(signer); err != nil {
		return err
	}
	sig, err := signer.Sign()
	if err != nil {
		return domain.InvalidKeyError("signing failed", err)
	}
	s.value.SetText(encodeBase64(sig, s.engine.config.Base64LineLength))

	s.engine.logger.Info("signature created",
		zap.String("algorithm", domain.AlgorithmName(method)),
		zap.String("c14n_method", domain.AlgorithmName(s.signedInfo.CanonicalizationMethod())),
		zap.Int("references", s.signedInfo.Len()))
	return nil
}

// CheckSignatureValue verifies the SignatureValue with key, a public key,
// certificate or HMAC secret, and only when that succeeds verifies every
// reference. It returns false when either check fails and an error only when
// verification could not be attempted.
func (s *Signature) CheckSignatureValue(ctx context.Context, key any) (bool, error) {
	if key == nil {
		return false, domain.InvalidKeyError("no verification key", nil)
	}
	method := s.signedInfo.SignatureMethod()
	alg, err := s.signedInfo.signatureAlgorithm()
	if err != nil {
		return false, err
	}
	verifier, err := alg.InitVerify(key)
	if err != nil {
		return false, err
	}
	sig, err := s.SignatureValue()
	if err != nil {
		return false, err
	}
	if err := s.signedInfo.SignInOctetStream(verifier); err != nil {
		return false, err
	}
	valid, err := verifier.Verify(sig)
	if err != nil {
		return false, domain.InvalidKeyError("signature verification failed", err)
	}

	s.engine.metrics.RecordSignatureCheck(method, valid)
	s.engine.logger.Debug("signature value checked",
		zap.String("algorithm", domain.AlgorithmName(method)),
		zap.String("c14n_method", domain.AlgorithmName(s.signedInfo.CanonicalizationMethod())),
		zap.Bool("valid", valid))
	if !valid {
		s.engine.logger.Warn("signature value does not verify",
			zap.String("algorithm", domain.AlgorithmName(method)),
			zap.String("signature_value", base64.StdEncoding.EncodeToString(sig)))
		return false, nil
	}
	return s.signedInfo.Verify(ctx, s.followManifests)
}

// checkSigningKey rejects keys that can only verify.
func checkSigningKey(key any) error {
	switch key.(type) {
	case nil:
		return domain.InvalidKeyError("no signing key", nil)
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey, *dsa.PublicKey, *x509.Certificate:
		return domain.InvalidKeyError(fmt.Sprintf("%T is a public key and cannot sign", key), nil)
	}
	return nil
}
