package ports

import "context"

// SignatureVerifier verifies enveloped XML signatures over whole documents.
// This is a port interface - implementations are adapters.
//
// The interface returns validated bytes (not just error) so that callers
// continue with exactly the content that was covered by the signature, which
// prevents signature wrapping attacks.
type SignatureVerifier interface {
	// Verify validates the enveloped signature and returns the validated XML
	// bytes. Returns error if the signature is invalid or missing.
	Verify(ctx context.Context, data []byte) ([]byte, error)
}

// DocumentSigner signs whole XML documents.
// This is a port interface - implementations are adapters.
type DocumentSigner interface {
	// Sign adds an enveloped XML signature to the document element and
	// returns the signed XML bytes.
	Sign(ctx context.Context, data []byte) ([]byte, error)
}
