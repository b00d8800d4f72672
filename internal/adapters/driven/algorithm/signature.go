package algorithm

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"hash"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// hashStream hashes everything written to it and hands the digest to a
// finishing function.
type hashStream struct {
	hash.Hash
	sign   func(digest []byte) ([]byte, error)
	verify func(digest, sig []byte) bool
}

func (s *hashStream) Sign() ([]byte, error) { return s.sign(s.Sum(nil)) }

func (s *hashStream) Verify(sig []byte) (bool, error) { return s.verify(s.Sum(nil), sig), nil }

// RSA implements PKCS#1 v1.5 and PSS signature methods.
type RSA struct {
	uri  string
	hash crypto.Hash
	pss  bool
}

// URI returns the SignatureMethod algorithm URI.
func (a *RSA) URI() string { return a.uri }

func (a *RSA) pssOptions() *rsa.PSSOptions {
	return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: a.hash}
}

// InitSign prepares signing with an RSA private key or signer.
func (a *RSA) InitSign(key any) (ports.SigningStream, error) {
	signer, err := signerFor[*rsa.PublicKey](key, "RSA")
	if err != nil {
		return nil, err
	}
	return &hashStream{Hash: a.hash.New(), sign: func(digest []byte) ([]byte, error) {
		var opts crypto.SignerOpts = a.hash
		if a.pss {
			opts = a.pssOptions()
		}
		return signer.Sign(rand.Reader, digest, opts)
	}}, nil
}

// InitVerify prepares verification with an RSA public key.
func (a *RSA) InitVerify(key any) (ports.VerifyingStream, error) {
	pub, err := publicKeyFor[*rsa.PublicKey](key, "RSA")
	if err != nil {
		return nil, err
	}
	return &hashStream{Hash: a.hash.New(), verify: func(digest, sig []byte) bool {
		if a.pss {
			return rsa.VerifyPSS(pub, a.hash, digest, sig, a.pssOptions()) == nil
		}
		return rsa.VerifyPKCS1v15(pub, a.hash, digest, sig) == nil
	}}, nil
}

// ECDSA implements the ECDSA signature methods. Signature values use the
// fixed width r||s encoding of the signature schema, not ASN.1.
type ECDSA struct {
	uri  string
	hash crypto.Hash
}

// URI returns the SignatureMethod algorithm URI.
func (a *ECDSA) URI() string { return a.uri }

// InitSign prepares signing with an ECDSA private key or signer.
func (a *ECDSA) InitSign(key any) (ports.SigningStream, error) {
	signer, err := signerFor[*ecdsa.PublicKey](key, "ECDSA")
	if err != nil {
		return nil, err
	}
	size := (signer.Public().(*ecdsa.PublicKey).Curve.Params().BitSize + 7) / 8
	return &hashStream{Hash: a.hash.New(), sign: func(digest []byte) ([]byte, error) {
		der, err := signer.Sign(rand.Reader, digest, a.hash)
		if err != nil {
			return nil, err
		}
		return derToRaw(der, size)
	}}, nil
}

// InitVerify prepares verification with an ECDSA public key.
func (a *ECDSA) InitVerify(key any) (ports.VerifyingStream, error) {
	pub, err := publicKeyFor[*ecdsa.PublicKey](key, "ECDSA")
	if err != nil {
		return nil, err
	}
	size := (pub.Curve.Params().BitSize + 7) / 8
	return &hashStream{Hash: a.hash.New(), verify: func(digest, sig []byte) bool {
		if len(sig) != 2*size {
			return false
		}
		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		return ecdsa.Verify(pub, digest, r, s)
	}}, nil
}

// derToRaw converts an ASN.1 ECDSA signature into r||s of the given width.
func derToRaw(der []byte, size int) ([]byte, error) {
	r, s := new(big.Int), new(big.Int)
	var inner cryptobyte.String
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, fmt.Errorf("malformed ECDSA signature")
	}
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])
	return out, nil
}

// bufferStream keeps everything written to it for algorithms that sign the
// message itself rather than a digest.
type bufferStream struct {
	bytes.Buffer
	sign   func(msg []byte) ([]byte, error)
	verify func(msg, sig []byte) bool
}

func (s *bufferStream) Sign() ([]byte, error) { return s.sign(s.Bytes()) }

func (s *bufferStream) Verify(sig []byte) (bool, error) { return s.verify(s.Bytes(), sig), nil }

// Ed25519 implements the EdDSA Ed25519 signature method.
type Ed25519 struct{}

// URI returns the SignatureMethod algorithm URI.
func (Ed25519) URI() string { return domain.SignatureEd25519 }

// InitSign prepares signing with an Ed25519 private key or signer.
func (Ed25519) InitSign(key any) (ports.SigningStream, error) {
	signer, err := signerFor[ed25519.PublicKey](key, "Ed25519")
	if err != nil {
		return nil, err
	}
	return &bufferStream{sign: func(msg []byte) ([]byte, error) {
		return signer.Sign(rand.Reader, msg, crypto.Hash(0))
	}}, nil
}

// InitVerify prepares verification with an Ed25519 public key.
func (Ed25519) InitVerify(key any) (ports.VerifyingStream, error) {
	pub, err := publicKeyFor[ed25519.PublicKey](key, "Ed25519")
	if err != nil {
		return nil, err
	}
	return &bufferStream{verify: func(msg, sig []byte) bool {
		return ed25519.Verify(pub, msg, sig)
	}}, nil
}

// HMAC implements the HMAC signature methods with an optional truncated
// output length.
type HMAC struct {
	uri          string
	newHash      func() hash.Hash
	size         int
	outputLength int
}

// URI returns the SignatureMethod algorithm URI.
func (a *HMAC) URI() string { return a.uri }

// WithOutputLength returns a copy truncating the MAC to bits. Lengths below
// half the hash size or 80 bits are rejected.
func (a *HMAC) WithOutputLength(bits int) (ports.SignatureAlgorithm, error) {
	lo := max(80, a.size*8/2)
	if bits%8 != 0 || bits < lo || bits > a.size*8 {
		return nil, domain.MalformedError(
			fmt.Sprintf("HMACOutputLength %d is outside [%d, %d] or not a multiple of 8", bits, lo, a.size*8), nil)
	}
	out := *a
	out.outputLength = bits / 8
	return &out, nil
}

func (a *HMAC) secret(key any) ([]byte, error) {
	secret, ok := key.([]byte)
	if !ok {
		return nil, domain.InvalidKeyError(fmt.Sprintf("HMAC needs a []byte secret, got %T", key), nil)
	}
	if len(secret) == 0 {
		return nil, domain.InvalidKeyError("empty HMAC secret", nil)
	}
	return secret, nil
}

func (a *HMAC) truncate(mac []byte) []byte {
	if a.outputLength > 0 {
		return mac[:a.outputLength]
	}
	return mac
}

// InitSign prepares signing with a shared secret.
func (a *HMAC) InitSign(key any) (ports.SigningStream, error) {
	secret, err := a.secret(key)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(a.newHash, secret)
	return &hashStream{Hash: mac, sign: func(sum []byte) ([]byte, error) {
		return a.truncate(sum), nil
	}}, nil
}

// InitVerify prepares verification with a shared secret.
func (a *HMAC) InitVerify(key any) (ports.VerifyingStream, error) {
	secret, err := a.secret(key)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(a.newHash, secret)
	return &hashStream{Hash: mac, verify: func(sum, sig []byte) bool {
		return hmac.Equal(a.truncate(sum), sig)
	}}, nil
}

// Ensure implementations satisfy interfaces
var (
	_ ports.SignatureAlgorithm     = (*RSA)(nil)
	_ ports.SignatureAlgorithm     = (*ECDSA)(nil)
	_ ports.SignatureAlgorithm     = Ed25519{}
	_ ports.SignatureAlgorithm     = (*HMAC)(nil)
	_ ports.HMACOutputLengthSetter = (*HMAC)(nil)
)
