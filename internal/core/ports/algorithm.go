package ports

import (
	"hash"
	"io"
)

// DigestAlgorithm computes message digests.
type DigestAlgorithm interface {
	// URI returns the DigestMethod algorithm URI.
	URI() string

	// New returns a fresh streaming hash (update via Write, final via Sum,
	// reset via Reset).
	New() hash.Hash
}

// SigningStream accumulates data and produces a signature over it.
type SigningStream interface {
	io.Writer
	Sign() ([]byte, error)
}

// VerifyingStream accumulates data and checks a signature over it. A
// signature that does not match yields (false, nil).
type VerifyingStream interface {
	io.Writer
	Verify(signature []byte) (bool, error)
}

// SignatureAlgorithm signs and verifies byte streams.
type SignatureAlgorithm interface {
	// URI returns the SignatureMethod algorithm URI.
	URI() string

	// InitSign prepares signing with a private or secret key. Public keys
	// are rejected with an invalid_key error.
	InitSign(key any) (SigningStream, error)

	// InitVerify prepares verification with a public or secret key.
	InitVerify(key any) (VerifyingStream, error)
}

// AlgorithmRegistry looks algorithms up by URI.
// This is a port interface - implementations are adapters.
type AlgorithmRegistry interface {
	Digest(uri string) (DigestAlgorithm, error)
	Signature(uri string) (SignatureAlgorithm, error)
}

// HMACOutputLengthSetter is implemented by signature algorithms that honour
// the HMACOutputLength parameter, given in bits.
type HMACOutputLengthSetter interface {
	WithOutputLength(bits int) (SignatureAlgorithm, error)
}
