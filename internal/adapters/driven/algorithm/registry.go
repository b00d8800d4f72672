// Package algorithm implements the digest and signature methods of the
// signature schema.
package algorithm

import (
	"crypto"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"sync"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Registry maps algorithm URIs to implementations. Registration is safe for
// concurrent use with lookups.
type Registry struct {
	mu         sync.RWMutex
	digests    map[string]ports.DigestAlgorithm
	signatures map[string]ports.SignatureAlgorithm
}

// NewRegistry creates a registry holding every built-in algorithm.
func NewRegistry() *Registry {
	r := &Registry{
		digests:    make(map[string]ports.DigestAlgorithm),
		signatures: make(map[string]ports.SignatureAlgorithm),
	}
	for _, d := range builtinDigests() {
		r.RegisterDigest(d)
	}
	for _, s := range builtinSignatures() {
		r.RegisterSignature(s)
	}
	return r
}

// RegisterDigest adds or replaces a digest method.
func (r *Registry) RegisterDigest(d ports.DigestAlgorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.digests[d.URI()] = d
}

// RegisterSignature adds or replaces a signature method.
func (r *Registry) RegisterSignature(s ports.SignatureAlgorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signatures[s.URI()] = s
}

// Digest returns the digest method for uri.
func (r *Registry) Digest(uri string) (ports.DigestAlgorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.digests[uri]
	if !ok {
		return nil, domain.UnsupportedAlgorithmError("digest", uri)
	}
	return d, nil
}

// Signature returns the signature method for uri.
func (r *Registry) Signature(uri string) (ports.SignatureAlgorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.signatures[uri]
	if !ok {
		return nil, domain.UnsupportedAlgorithmError("signature", uri)
	}
	return s, nil
}

func builtinSignatures() []ports.SignatureAlgorithm {
	return []ports.SignatureAlgorithm{
		&RSA{uri: domain.SignatureRSAMD5, hash: crypto.MD5},
		&RSA{uri: domain.SignatureRSASHA1, hash: crypto.SHA1},
		&RSA{uri: domain.SignatureRSASHA224, hash: crypto.SHA224},
		&RSA{uri: domain.SignatureRSASHA256, hash: crypto.SHA256},
		&RSA{uri: domain.SignatureRSASHA384, hash: crypto.SHA384},
		&RSA{uri: domain.SignatureRSASHA512, hash: crypto.SHA512},
		&RSA{uri: domain.SignatureRSAPSSSHA256, hash: crypto.SHA256, pss: true},
		&RSA{uri: domain.SignatureRSAPSSSHA384, hash: crypto.SHA384, pss: true},
		&RSA{uri: domain.SignatureRSAPSSSHA512, hash: crypto.SHA512, pss: true},
		&ECDSA{uri: domain.SignatureECDSASHA1, hash: crypto.SHA1},
		&ECDSA{uri: domain.SignatureECDSASHA224, hash: crypto.SHA224},
		&ECDSA{uri: domain.SignatureECDSASHA256, hash: crypto.SHA256},
		&ECDSA{uri: domain.SignatureECDSASHA384, hash: crypto.SHA384},
		&ECDSA{uri: domain.SignatureECDSASHA512, hash: crypto.SHA512},
		Ed25519{},
		&DSA{uri: domain.SignatureDSASHA1, hash: crypto.SHA1},
		&DSA{uri: domain.SignatureDSASHA256, hash: crypto.SHA256},
		&HMAC{uri: domain.SignatureHMACMD5, newHash: md5.New, size: md5.Size},
		&HMAC{uri: domain.SignatureHMACSHA1, newHash: sha1.New, size: sha1.Size},
		&HMAC{uri: domain.SignatureHMACSHA224, newHash: sha256.New224, size: sha256.Size224},
		&HMAC{uri: domain.SignatureHMACSHA256, newHash: sha256.New, size: sha256.Size},
		&HMAC{uri: domain.SignatureHMACSHA384, newHash: sha512.New384, size: sha512.Size384},
		&HMAC{uri: domain.SignatureHMACSHA512, newHash: sha512.New, size: sha512.Size},
	}
}

// Ensure implementations satisfy interfaces
var _ ports.AlgorithmRegistry = (*Registry)(nil)
