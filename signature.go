package xmlsig

import (
	"github.com/philiph/xmlsig/internal/adapters/driven/signature"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Re-export whole-document signing and verification
type SignatureVerifier = ports.SignatureVerifier
type DocumentSigner = ports.DocumentSigner
type XMLDsigVerifier = signature.XMLDsigVerifier
type XMLDsigSigner = signature.XMLDsigSigner
type SignerOption = signature.SignerOption

var (
	NewXMLDsigVerifier      = signature.NewXMLDsigVerifier
	NewXMLDsigSigner        = signature.NewXMLDsigSigner
	WithSignatureMethod     = signature.WithSignatureMethod
	WithDigestMethod        = signature.WithDigestMethod
	LoadSigningCertificates = signature.LoadSigningCertificates
	LoadPrivateKey          = signature.LoadPrivateKey
)
