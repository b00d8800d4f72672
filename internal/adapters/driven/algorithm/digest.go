package algorithm

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Digest is a DigestMethod backed by a hash constructor.
type Digest struct {
	uri     string
	newHash func() hash.Hash
}

// NewDigest creates a digest algorithm for uri.
func NewDigest(uri string, newHash func() hash.Hash) *Digest {
	return &Digest{uri: uri, newHash: newHash}
}

// URI returns the DigestMethod algorithm URI.
func (d *Digest) URI() string { return d.uri }

// New returns a fresh hash.
func (d *Digest) New() hash.Hash { return d.newHash() }

// builtinDigests lists every digest method shipped with the registry.
func builtinDigests() []*Digest {
	return []*Digest{
		NewDigest(domain.DigestMD5, md5.New),
		NewDigest(domain.DigestSHA1, sha1.New),
		NewDigest(domain.DigestSHA224, sha256.New224),
		NewDigest(domain.DigestSHA256, sha256.New),
		NewDigest(domain.DigestSHA384, sha512.New384),
		NewDigest(domain.DigestSHA512, sha512.New),
		NewDigest(domain.DigestSHA3_224, sha3.New224),
		NewDigest(domain.DigestSHA3_256, sha3.New256),
		NewDigest(domain.DigestSHA3_384, sha3.New384),
		NewDigest(domain.DigestSHA3_512, sha3.New512),
		NewDigest(domain.DigestRIPEMD160, ripemd160.New),
	}
}

var _ ports.DigestAlgorithm = (*Digest)(nil)
