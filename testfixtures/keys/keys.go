// Package keys generates signing material for tests, and signs documents
// with goxmldsig so the engine can be checked against an independent
// implementation.
package keys

import (
	"crypto/dsa" //nolint:staticcheck // DSA signature methods need test keys
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// Set holds one key of every supported kind.
type Set struct {
	RSA         *rsa.PrivateKey
	Certificate *x509.Certificate
	ECDSA       *ecdsa.PrivateKey
	Ed25519     ed25519.PrivateKey
	HMACSecret  []byte
}

var (
	dsaOnce sync.Once
	dsaKey  *dsa.PrivateKey
	dsaErr  error
)

// DSA returns a 1024/160 DSA key. Parameter generation is slow, so the key is
// shared by every test in the binary.
func DSA(t testing.TB) *dsa.PrivateKey {
	t.Helper()

	dsaOnce.Do(func() {
		key := new(dsa.PrivateKey)
		if dsaErr = dsa.GenerateParameters(&key.Parameters, rand.Reader, dsa.L1024N160); dsaErr != nil {
			return
		}
		if dsaErr = dsa.GenerateKey(key, rand.Reader); dsaErr != nil {
			return
		}
		dsaKey = key
	})
	if dsaErr != nil {
		t.Fatalf("failed to generate DSA key: %v", dsaErr)
	}
	return dsaKey
}

// New creates a Set with fresh keys and a self-signed RSA certificate.
func New(t testing.TB) *Set {
	t.Helper()

	key, cert, err := generateSelfSignedCert()
	if err != nil {
		t.Fatalf("failed to generate signing certificate: %v", err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate ECDSA key: %v", err)
	}
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate Ed25519 key: %v", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("failed to generate HMAC secret: %v", err)
	}

	return &Set{
		RSA:         key,
		Certificate: cert,
		ECDSA:       ecKey,
		Ed25519:     edKey,
		HMACSecret:  secret,
	}
}

// CertificatePEM returns the certificate in PEM form.
func (s *Set) CertificatePEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.Certificate.Raw})
}

// RSAKeyPEM returns the RSA key as a PKCS#8 PEM block.
func (s *Set) RSAKeyPEM() []byte {
	der, err := x509.MarshalPKCS8PrivateKey(s.RSA)
	if err != nil {
		panic(fmt.Sprintf("marshal RSA key: %v", err))
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// SignEnveloped signs the root of xml with goxmldsig (RSA-SHA256, exclusive
// C14N) and returns the signed document.
func (s *Set) SignEnveloped(xml []byte) ([]byte, error) {
	if len(xml) == 0 {
		return nil, errors.New("empty document")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty XML document")
	}

	keyStore := dsig.TLSCertKeyStore(tls.Certificate{
		Certificate: [][]byte{s.Certificate.Raw},
		PrivateKey:  s.RSA,
	})
	signingContext := dsig.NewDefaultSigningContext(keyStore)
	signingContext.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	signedRoot, err := signingContext.SignEnveloped(root)
	if err != nil {
		return nil, fmt.Errorf("sign XML: %w", err)
	}
	doc.SetRoot(signedRoot)

	signed, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize signed XML: %w", err)
	}
	return signed, nil
}

// generateSelfSignedCert creates a self-signed certificate for signing.
func generateSelfSignedCert() (*rsa.PrivateKey, *x509.Certificate, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Test XML Signer",
			Organization: []string{"Test"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}
	return key, cert, nil
}
