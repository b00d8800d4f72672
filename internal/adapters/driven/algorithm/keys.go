package algorithm

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // verification keys of the DSA signature methods
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// IsPublicKey reports whether key can only verify.
func IsPublicKey(key any) bool {
	switch key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey, *dsa.PublicKey, *x509.Certificate:
		return true
	}
	return false
}

// signerFor returns key as a crypto.Signer whose public half has type P.
func signerFor[P crypto.PublicKey](key any, kind string) (crypto.Signer, error) {
	if key == nil {
		return nil, domain.InvalidKeyError("no signing key", nil)
	}
	if IsPublicKey(key) {
		return nil, domain.InvalidKeyError(fmt.Sprintf("%T is a public key and cannot sign", key), nil)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, domain.InvalidKeyError(fmt.Sprintf("%T cannot be used as a %s signing key", key, kind), nil)
	}
	if _, ok := signer.Public().(P); !ok {
		return nil, domain.InvalidKeyError(fmt.Sprintf("%s signature needs a %s key, got %T", kind, kind, signer.Public()), nil)
	}
	return signer, nil
}

// publicKeyFor extracts a public key of type P from a public key, a
// certificate, or the public half of a private key.
func publicKeyFor[P crypto.PublicKey](key any, kind string) (P, error) {
	var zero P
	switch k := key.(type) {
	case nil:
		return zero, domain.InvalidKeyError("no verification key", nil)
	case *x509.Certificate:
		key = k.PublicKey
	case crypto.Signer:
		key = k.Public()
	}
	pub, ok := key.(P)
	if !ok {
		return zero, domain.InvalidKeyError(fmt.Sprintf("%s signature needs a %s key, got %T", kind, kind, key), nil)
	}
	return pub, nil
}
