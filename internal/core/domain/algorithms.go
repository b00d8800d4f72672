package domain

import "strings"

// Namespaces used by the signature schema.
const (
	NamespaceDSig       = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceDSig11     = "http://www.w3.org/2009/xmldsig11#"
	NamespaceDSigMore   = "http://www.w3.org/2001/04/xmldsig-more#"
	NamespaceXMLEnc     = "http://www.w3.org/2001/04/xmlenc#"
	NamespaceExcC14N    = "http://www.w3.org/2001/10/xml-exc-c14n#"
	NamespaceXPathFilt2 = "http://www.w3.org/2002/06/xmldsig-filter2"
	DefaultPrefix       = "ds"
)

// Element and attribute names of the signature schema.
const (
	TagSignature              = "Signature"
	TagSignedInfo             = "SignedInfo"
	TagCanonicalizationMethod = "CanonicalizationMethod"
	TagSignatureMethod        = "SignatureMethod"
	TagHMACOutputLength       = "HMACOutputLength"
	TagReference              = "Reference"
	TagTransforms             = "Transforms"
	TagTransform              = "Transform"
	TagDigestMethod           = "DigestMethod"
	TagDigestValue            = "DigestValue"
	TagSignatureValue         = "SignatureValue"
	TagKeyInfo                = "KeyInfo"
	TagX509Data               = "X509Data"
	TagX509Certificate        = "X509Certificate"
	TagObject                 = "Object"
	TagManifest               = "Manifest"
	TagInclusiveNamespaces    = "InclusiveNamespaces"
	TagXPath                  = "XPath"
	TagKeyName                = "KeyName"
	TagKeyValue               = "KeyValue"
	TagRSAKeyValue            = "RSAKeyValue"
	TagModulus                = "Modulus"
	TagExponent               = "Exponent"
	TagDSAKeyValue            = "DSAKeyValue"
	TagECKeyValue             = "ECKeyValue"
	TagNamedCurve             = "NamedCurve"
	TagPublicKey              = "PublicKey"

	AttrAlgorithm  = "Algorithm"
	AttrURI        = "URI"
	AttrID         = "Id"
	AttrType       = "Type"
	AttrMimeType   = "MimeType"
	AttrEncoding   = "Encoding"
	AttrPrefixList = "PrefixList"
	AttrFilter     = "Filter"
)

// Reference type tags.
const (
	TypeObject              = NamespaceDSig + "Object"
	TypeManifest            = NamespaceDSig + "Manifest"
	TypeSignatureProperties = NamespaceDSig + "SignatureProperties"
)

// Canonicalization methods. These double as transform identifiers.
const (
	C14N10                     = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	C14N10WithComments         = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315#WithComments"
	C14N11                     = "http://www.w3.org/2006/12/xml-c14n11"
	C14N11WithComments         = "http://www.w3.org/2006/12/xml-c14n11#WithComments"
	ExclusiveC14N10            = "http://www.w3.org/2001/10/xml-exc-c14n#"
	ExclusiveC14N10WithComment = "http://www.w3.org/2001/10/xml-exc-c14n#WithComments"
)

// Other transforms.
const (
	TransformEnvelopedSignature = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	TransformBase64             = "http://www.w3.org/2000/09/xmldsig#base64"
	TransformXPath              = "http://www.w3.org/TR/1999/REC-xpath-19991116"
	TransformXPathFilter2       = "http://www.w3.org/2002/06/xmldsig-filter2"
)

// Digest methods.
const (
	DigestMD5       = "http://www.w3.org/2001/04/xmldsig-more#md5"
	DigestSHA1      = "http://www.w3.org/2000/09/xmldsig#sha1"
	DigestSHA224    = "http://www.w3.org/2001/04/xmldsig-more#sha224"
	DigestSHA256    = "http://www.w3.org/2001/04/xmlenc#sha256"
	DigestSHA384    = "http://www.w3.org/2001/04/xmldsig-more#sha384"
	DigestSHA512    = "http://www.w3.org/2001/04/xmlenc#sha512"
	DigestSHA3_224  = "http://www.w3.org/2007/05/xmldsig-more#sha3-224"
	DigestSHA3_256  = "http://www.w3.org/2007/05/xmldsig-more#sha3-256"
	DigestSHA3_384  = "http://www.w3.org/2007/05/xmldsig-more#sha3-384"
	DigestSHA3_512  = "http://www.w3.org/2007/05/xmldsig-more#sha3-512"
	DigestRIPEMD160 = "http://www.w3.org/2001/04/xmlenc#ripemd160"
)

// Signature methods.
const (
	SignatureRSAMD5    = "http://www.w3.org/2001/04/xmldsig-more#rsa-md5"
	SignatureRSASHA1   = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	SignatureRSASHA224 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha224"
	SignatureRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	SignatureRSASHA384 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384"
	SignatureRSASHA512 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"

	SignatureRSAPSSSHA256 = "http://www.w3.org/2007/05/xmldsig-more#sha256-rsa-MGF1"
	SignatureRSAPSSSHA384 = "http://www.w3.org/2007/05/xmldsig-more#sha384-rsa-MGF1"
	SignatureRSAPSSSHA512 = "http://www.w3.org/2007/05/xmldsig-more#sha512-rsa-MGF1"

	SignatureECDSASHA1   = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha1"
	SignatureECDSASHA224 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha224"
	SignatureECDSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	SignatureECDSASHA384 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384"
	SignatureECDSASHA512 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512"

	SignatureEd25519 = "http://www.w3.org/2021/04/xmldsig-more#eddsa-ed25519"

	SignatureDSASHA1   = "http://www.w3.org/2000/09/xmldsig#dsa-sha1"
	SignatureDSASHA256 = "http://www.w3.org/2009/xmldsig11#dsa-sha256"

	SignatureHMACMD5    = "http://www.w3.org/2001/04/xmldsig-more#hmac-md5"
	SignatureHMACSHA1   = "http://www.w3.org/2000/09/xmldsig#hmac-sha1"
	SignatureHMACSHA224 = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha224"
	SignatureHMACSHA256 = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha256"
	SignatureHMACSHA384 = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha384"
	SignatureHMACSHA512 = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha512"
)

// algorithmURIToName maps algorithm URIs to short human-readable names.
var algorithmURIToName = map[string]string{
	DigestMD5:       "MD5",
	DigestSHA1:      "SHA1",
	DigestSHA224:    "SHA224",
	DigestSHA256:    "SHA256",
	DigestSHA384:    "SHA384",
	DigestSHA512:    "SHA512",
	DigestSHA3_224:  "SHA3-224",
	DigestSHA3_256:  "SHA3-256",
	DigestSHA3_384:  "SHA3-384",
	DigestSHA3_512:  "SHA3-512",
	DigestRIPEMD160: "RIPEMD160",

	SignatureRSAMD5:       "RSA-MD5",
	SignatureRSASHA1:      "RSA-SHA1",
	SignatureRSASHA224:    "RSA-SHA224",
	SignatureRSASHA256:    "RSA-SHA256",
	SignatureRSASHA384:    "RSA-SHA384",
	SignatureRSASHA512:    "RSA-SHA512",
	SignatureRSAPSSSHA256: "RSA-PSS-SHA256",
	SignatureRSAPSSSHA384: "RSA-PSS-SHA384",
	SignatureRSAPSSSHA512: "RSA-PSS-SHA512",
	SignatureECDSASHA1:    "ECDSA-SHA1",
	SignatureECDSASHA224:  "ECDSA-SHA224",
	SignatureECDSASHA256:  "ECDSA-SHA256",
	SignatureECDSASHA384:  "ECDSA-SHA384",
	SignatureECDSASHA512:  "ECDSA-SHA512",
	SignatureEd25519:      "Ed25519",
	SignatureDSASHA1:      "DSA-SHA1",
	SignatureDSASHA256:    "DSA-SHA256",
	SignatureHMACMD5:      "HMAC-MD5",
	SignatureHMACSHA1:     "HMAC-SHA1",
	SignatureHMACSHA224:   "HMAC-SHA224",
	SignatureHMACSHA256:   "HMAC-SHA256",
	SignatureHMACSHA384:   "HMAC-SHA384",
	SignatureHMACSHA512:   "HMAC-SHA512",

	C14N10:                     "C14N",
	C14N10WithComments:         "C14N-WithComments",
	C14N11:                     "C14N11",
	C14N11WithComments:         "C14N11-WithComments",
	ExclusiveC14N10:            "EXC-C14N",
	ExclusiveC14N10WithComment: "EXC-C14N-WithComments",

	TransformXPath: "XPath",
}

// AlgorithmName converts an algorithm URI to a human-readable name.
// Returns the URI unchanged if not recognized.
func AlgorithmName(uri string) string {
	if name, ok := algorithmURIToName[uri]; ok {
		return name
	}
	return uri
}

// AlgorithmURI converts a name returned by AlgorithmName back to its URI,
// ignoring case. Anything else is returned unchanged, so URIs pass through.
func AlgorithmURI(name string) string {
	for uri, n := range algorithmURIToName {
		if strings.EqualFold(n, name) {
			return uri
		}
	}
	return name
}

// IsCanonicalizationMethod reports whether uri names one of the C14N variants.
func IsCanonicalizationMethod(uri string) bool {
	switch uri {
	case C14N10, C14N10WithComments, C14N11, C14N11WithComments,
		ExclusiveC14N10, ExclusiveC14N10WithComment:
		return true
	}
	return false
}

// insecureAlgorithms are rejected when secure validation is on.
var insecureAlgorithms = []string{
	DigestMD5,
	SignatureRSAMD5,
	SignatureHMACMD5,
}
