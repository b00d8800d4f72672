package algorithm

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA signature methods are part of the signature schema.
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// DSA implements the DSA signature methods. Signature values are r||s, each
// as wide as the subgroup order q.
type DSA struct {
	uri  string
	hash crypto.Hash
}

// URI returns the SignatureMethod algorithm URI.
func (a *DSA) URI() string { return a.uri }

// InitSign prepares signing with a DSA private key.
func (a *DSA) InitSign(key any) (ports.SigningStream, error) {
	priv, ok := key.(*dsa.PrivateKey)
	switch {
	case key == nil:
		return nil, domain.InvalidKeyError("no signing key", nil)
	case IsPublicKey(key):
		return nil, domain.InvalidKeyError(fmt.Sprintf("%T is a public key and cannot sign", key), nil)
	case !ok:
		return nil, domain.InvalidKeyError(fmt.Sprintf("DSA signature needs a *dsa.PrivateKey, got %T", key), nil)
	}
	size := qSize(&priv.PublicKey)
	return &hashStream{Hash: a.hash.New(), sign: func(digest []byte) ([]byte, error) {
		r, s, err := dsa.Sign(rand.Reader, priv, truncateHash(digest, size))
		if err != nil {
			return nil, err
		}
		out := make([]byte, 2*size)
		r.FillBytes(out[:size])
		s.FillBytes(out[size:])
		return out, nil
	}}, nil
}

// InitVerify prepares verification with a DSA public key, private key or
// certificate.
func (a *DSA) InitVerify(key any) (ports.VerifyingStream, error) {
	var pub *dsa.PublicKey
	switch k := key.(type) {
	case nil:
		return nil, domain.InvalidKeyError("no verification key", nil)
	case *dsa.PublicKey:
		pub = k
	case *dsa.PrivateKey:
		pub = &k.PublicKey
	case *x509.Certificate:
		p, ok := k.PublicKey.(*dsa.PublicKey)
		if !ok {
			return nil, domain.InvalidKeyError(fmt.Sprintf("DSA signature needs a DSA key, got %T", k.PublicKey), nil)
		}
		pub = p
	default:
		return nil, domain.InvalidKeyError(fmt.Sprintf("DSA signature needs a DSA key, got %T", key), nil)
	}
	size := qSize(pub)
	return &hashStream{Hash: a.hash.New(), verify: func(digest, sig []byte) bool {
		if len(sig) != 2*size {
			return false
		}
		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		return dsa.Verify(pub, truncateHash(digest, size), r, s)
	}}, nil
}

func qSize(pub *dsa.PublicKey) int {
	return (pub.Q.BitLen() + 7) / 8
}

// truncateHash keeps the leftmost size bytes of digest, as FIPS 186-3
// section 4.6 requires for hashes longer than q.
func truncateHash(digest []byte, size int) []byte {
	if len(digest) > size {
		return digest[:size]
	}
	return digest
}

var _ ports.SignatureAlgorithm = (*DSA)(nil)
