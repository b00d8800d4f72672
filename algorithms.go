package xmlsig

import "github.com/philiph/xmlsig/internal/core/domain"

// Re-export algorithm identifiers and namespaces

// Namespaces used by the signature schema.
const (
	NamespaceDSig       = domain.NamespaceDSig
	NamespaceDSig11     = domain.NamespaceDSig11
	NamespaceDSigMore   = domain.NamespaceDSigMore
	NamespaceXMLEnc     = domain.NamespaceXMLEnc
	NamespaceExcC14N    = domain.NamespaceExcC14N
	NamespaceXPathFilt2 = domain.NamespaceXPathFilt2
	DefaultPrefix       = domain.DefaultPrefix
)

// Reference type tags.
const (
	TypeObject              = domain.TypeObject
	TypeManifest            = domain.TypeManifest
	TypeSignatureProperties = domain.TypeSignatureProperties
)

// Canonicalization methods. These double as transform identifiers.
const (
	C14N10                     = domain.C14N10
	C14N10WithComments         = domain.C14N10WithComments
	C14N11                     = domain.C14N11
	C14N11WithComments         = domain.C14N11WithComments
	ExclusiveC14N10            = domain.ExclusiveC14N10
	ExclusiveC14N10WithComment = domain.ExclusiveC14N10WithComment
)

// Other transforms.
const (
	TransformEnvelopedSignature = domain.TransformEnvelopedSignature
	TransformBase64             = domain.TransformBase64
	TransformXPath              = domain.TransformXPath
	TransformXPathFilter2       = domain.TransformXPathFilter2
)

// Digest methods.
const (
	DigestMD5       = domain.DigestMD5
	DigestSHA1      = domain.DigestSHA1
	DigestSHA224    = domain.DigestSHA224
	DigestSHA256    = domain.DigestSHA256
	DigestSHA384    = domain.DigestSHA384
	DigestSHA512    = domain.DigestSHA512
	DigestSHA3_224  = domain.DigestSHA3_224
	DigestSHA3_256  = domain.DigestSHA3_256
	DigestSHA3_384  = domain.DigestSHA3_384
	DigestSHA3_512  = domain.DigestSHA3_512
	DigestRIPEMD160 = domain.DigestRIPEMD160
)

// Signature methods.
const (
	SignatureRSAMD5    = domain.SignatureRSAMD5
	SignatureRSASHA1   = domain.SignatureRSASHA1
	SignatureRSASHA224 = domain.SignatureRSASHA224
	SignatureRSASHA256 = domain.SignatureRSASHA256
	SignatureRSASHA384 = domain.SignatureRSASHA384
	SignatureRSASHA512 = domain.SignatureRSASHA512

	SignatureRSAPSSSHA256 = domain.SignatureRSAPSSSHA256
	SignatureRSAPSSSHA384 = domain.SignatureRSAPSSSHA384
	SignatureRSAPSSSHA512 = domain.SignatureRSAPSSSHA512

	SignatureECDSASHA1   = domain.SignatureECDSASHA1
	SignatureECDSASHA224 = domain.SignatureECDSASHA224
	SignatureECDSASHA256 = domain.SignatureECDSASHA256
	SignatureECDSASHA384 = domain.SignatureECDSASHA384
	SignatureECDSASHA512 = domain.SignatureECDSASHA512

	SignatureEd25519 = domain.SignatureEd25519

	SignatureDSASHA1   = domain.SignatureDSASHA1
	SignatureDSASHA256 = domain.SignatureDSASHA256

	SignatureHMACMD5    = domain.SignatureHMACMD5
	SignatureHMACSHA1   = domain.SignatureHMACSHA1
	SignatureHMACSHA224 = domain.SignatureHMACSHA224
	SignatureHMACSHA256 = domain.SignatureHMACSHA256
	SignatureHMACSHA384 = domain.SignatureHMACSHA384
	SignatureHMACSHA512 = domain.SignatureHMACSHA512
)
