package signature

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
	"github.com/philiph/xmlsig/internal/core/xmldsig"
)

// idAttributes are checked on the document element, in order, when choosing
// the reference URI.
var idAttributes = []string{"ID", "Id", "id"}

// XMLDsigVerifier verifies enveloped signatures over the document element.
// It validates the signature against a set of trusted certificates.
type XMLDsigVerifier struct {
	engine    *xmldsig.Engine
	certStore dsig.X509CertificateStore
	logger    *zap.Logger
}

// NewXMLDsigVerifier creates a verifier with multiple trust anchor
// certificates. This supports certificate rollover scenarios.
func NewXMLDsigVerifier(engine *xmldsig.Engine, certs []*x509.Certificate, logger *zap.Logger) *XMLDsigVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XMLDsigVerifier{
		engine:    engine,
		certStore: &dsig.MemoryX509CertificateStore{Roots: certs},
		logger:    logger,
	}
}

// Verify validates the enveloped signature and returns the canonical octets
// its single reference covers. Anything outside those octets, including
// wrapped or injected elements, is not returned.
func (v *XMLDsigVerifier) Verify(ctx context.Context, data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &domain.AppError{
			Code:    domain.ErrCodeMalformedSignature,
			Message: "failed to parse XML",
			Cause:   err,
		}
	}
	root := doc.Root()
	if root == nil {
		return nil, domain.MalformedError("empty XML document", nil)
	}

	sigEl := signatureChild(root)
	if sigEl == nil {
		return nil, domain.MalformedError("document element has no Signature child", nil)
	}
	sig, err := v.engine.ParseSignature(sigEl, "")
	if err != nil {
		return nil, err
	}
	si := sig.SignedInfo()
	if si.Len() != 1 {
		return nil, domain.MalformedError(fmt.Sprintf("expected exactly one Reference, found %d", si.Len()), nil)
	}
	ref, err := si.Item(0)
	if err != nil {
		return nil, err
	}
	if uri, _ := ref.URI(); !coversRoot(root, uri) {
		return nil, &domain.AppError{
			Code:    domain.ErrCodeSignatureInvalid,
			Message: "signature does not cover the document element",
			URI:     uri,
		}
	}

	roots, err := v.certStore.Certificates()
	if err != nil {
		return nil, domain.InvalidKeyError("load trusted certificates", err)
	}
	for _, cert := range roots {
		valid, err := sig.CheckSignatureValue(ctx, cert)
		if err != nil {
			return nil, err
		}
		if !valid {
			continue
		}
		v.logger.Info("document signature verified",
			zap.String("algorithm", domain.AlgorithmName(si.SignatureMethod())),
			zap.String("cert_subject", cert.Subject.String()),
			zap.Time("cert_expiry", cert.NotAfter),
		)
		return ref.ReferencedBytes()
	}

	return nil, &domain.AppError{
		Code:    domain.ErrCodeSignatureInvalid,
		Message: fmt.Sprintf("signature does not verify against any of %d trusted certificates", len(roots)),
	}
}

// signatureChild returns the ds:Signature child of root, or nil.
func signatureChild(root *etree.Element) *etree.Element {
	for _, child := range root.ChildElements() {
		if child.Tag == dsig.SignatureTag && child.NamespaceURI() == dsig.Namespace {
			return child
		}
	}
	return nil
}

// coversRoot reports whether uri names the whole document or root itself.
func coversRoot(root *etree.Element, uri string) bool {
	if uri == "" {
		return true
	}
	if len(uri) < 2 || uri[0] != '#' {
		return false
	}
	for _, attr := range idAttributes {
		if root.SelectAttrValue(attr, "") == uri[1:] {
			return true
		}
	}
	return false
}

// XMLDsigSigner adds enveloped signatures to XML documents.
type XMLDsigSigner struct {
	engine      *xmldsig.Engine
	key         crypto.Signer
	certificate *x509.Certificate
	method      string
	digest      string
}

// SignerOption configures an XMLDsigSigner.
type SignerOption func(*XMLDsigSigner)

// WithSignatureMethod overrides the signature method derived from the key.
func WithSignatureMethod(uri string) SignerOption {
	return func(s *XMLDsigSigner) { s.method = uri }
}

// WithDigestMethod overrides the SHA-256 reference digest.
func WithDigestMethod(uri string) SignerOption {
	return func(s *XMLDsigSigner) { s.digest = uri }
}

// NewXMLDsigSigner creates a signer with the given key pair. The
// certificate may be nil, in which case no KeyInfo is written.
func NewXMLDsigSigner(engine *xmldsig.Engine, key crypto.Signer, certificate *x509.Certificate, opts ...SignerOption) (*XMLDsigSigner, error) {
	s := &XMLDsigSigner{
		engine:      engine,
		key:         key,
		certificate: certificate,
		digest:      domain.DigestSHA256,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.method == "" {
		method, err := defaultSignatureMethod(key)
		if err != nil {
			return nil, err
		}
		s.method = method
	}
	return s, nil
}

func defaultSignatureMethod(key crypto.Signer) (string, error) {
	switch key.(type) {
	case *rsa.PrivateKey:
		return domain.SignatureRSASHA256, nil
	case *ecdsa.PrivateKey:
		return domain.SignatureECDSASHA256, nil
	case ed25519.PrivateKey:
		return domain.SignatureEd25519, nil
	default:
		return "", domain.InvalidKeyError(fmt.Sprintf("no default signature method for %T", key), nil)
	}
}

// Sign adds an enveloped signature to the document element and returns the
// signed bytes.
func (s *XMLDsigSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty XML document")
	}

	sig, err := s.engine.NewSignature(root, xmldsig.SignatureSpec{SignatureMethod: s.method})
	if err != nil {
		return nil, err
	}
	if _, err := sig.AddDocument(xmldsig.ReferenceSpec{
		URI:          rootURI(root),
		DigestMethod: s.digest,
		Transforms: []xmldsig.TransformSpec{
			{Algorithm: domain.TransformEnvelopedSignature},
			{Algorithm: domain.ExclusiveC14N10},
		},
	}); err != nil {
		return nil, err
	}
	if s.certificate != nil {
		if err := sig.AddX509Certificate(s.certificate); err != nil {
			return nil, err
		}
	}
	if err := sig.Sign(ctx, s.key); err != nil {
		return nil, err
	}

	signed, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize signed XML: %w", err)
	}
	return signed, nil
}

// rootURI references root by its ID attribute when it has one.
func rootURI(root *etree.Element) string {
	for _, attr := range idAttributes {
		if id := root.SelectAttrValue(attr, ""); id != "" {
			return "#" + id
		}
	}
	return ""
}

// Ensure implementations satisfy interfaces
var _ ports.SignatureVerifier = (*XMLDsigVerifier)(nil)
var _ ports.DocumentSigner = (*XMLDsigSigner)(nil)
