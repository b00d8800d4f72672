package xmldsig

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSAKeyValue
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// Object is a ds:Object container for signed payloads, manifests and
// signature properties.
type Object struct {
	el *etree.Element
}

// ObjectSpec configures a new ds:Object.
type ObjectSpec struct {
	ID       string
	MimeType string
	Encoding string
}

// Element returns the ds:Object element.
func (o *Object) Element() *etree.Element { return o.el }

// ID returns the Id attribute, or "".
func (o *Object) ID() string { return o.el.SelectAttrValue(domain.AttrID, "") }

// MimeType returns the MimeType attribute, or "".
func (o *Object) MimeType() string { return o.el.SelectAttrValue(domain.AttrMimeType, "") }

// Encoding returns the Encoding attribute, or "".
func (o *Object) Encoding() string { return o.el.SelectAttrValue(domain.AttrEncoding, "") }

// AppendChild adds content to the object.
func (o *Object) AppendChild(el *etree.Element) {
	o.el.AddChild(el)
}

// SetText replaces the content with text, for example base64 payloads.
func (o *Object) SetText(text string) {
	o.el.SetText(text)
}

// AppendObject adds a ds:Object after the existing children.
func (s *Signature) AppendObject(spec ObjectSpec) (*Object, error) {
	if s.mode != ModeSigning {
		return nil, domain.InvalidStateError("objects can only be added while signing")
	}
	el := createDSig(s.el, domain.TagObject)
	if spec.ID != "" {
		el.CreateAttr(domain.AttrID, spec.ID)
	}
	if spec.MimeType != "" {
		el.CreateAttr(domain.AttrMimeType, spec.MimeType)
	}
	if spec.Encoding != "" {
		el.CreateAttr(domain.AttrEncoding, spec.Encoding)
	}
	return &Object{el: el}, nil
}

// AppendManifest moves m into obj. Its digests are generated by Sign before
// those of the SignedInfo, so a reference to it sees the final content.
func (s *Signature) AppendManifest(obj *Object, m *Manifest) error {
	if s.mode != ModeSigning || !m.signing {
		return domain.InvalidStateError("manifests can only be added while signing")
	}
	if p := m.el.Parent(); p != nil {
		p.RemoveChild(m.el)
	}
	if prefix, ok := declaredDSigPrefix(obj.el); ok && prefix == domain.DefaultPrefix+":" {
		m.el.RemoveAttr("xmlns:" + domain.DefaultPrefix)
	}
	obj.el.AddChild(m.el)
	s.manifests = append(s.manifests, m)
	return nil
}

// Objects returns the ds:Object containers in document order.
func (s *Signature) Objects() []*Object {
	var out []*Object
	for _, el := range childrenDSig(s.el, domain.TagObject) {
		out = append(out, &Object{el: el})
	}
	return out
}

// Manifests parses every ds:Manifest held directly by an Object.
func (s *Signature) Manifests() ([]*Manifest, error) {
	var out []*Manifest
	for _, obj := range s.Objects() {
		for _, el := range childrenDSig(obj.el, domain.TagManifest) {
			m, err := s.engine.ParseManifest(el, s.signedInfo.baseURI)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// KeyInfo returns the ds:KeyInfo element, or nil. Its content is opaque.
func (s *Signature) KeyInfo() *etree.Element {
	return childDSig(s.el, domain.TagKeyInfo)
}

// SetKeyInfo replaces the ds:KeyInfo element. It is placed right after
// SignatureValue.
func (s *Signature) SetKeyInfo(el *etree.Element) error {
	if s.mode != ModeSigning {
		return domain.InvalidStateError("KeyInfo can only be set while signing")
	}
	if old := s.KeyInfo(); old != nil {
		s.el.RemoveChild(old)
	}
	s.el.InsertChildAt(s.value.Index()+1, el)
	return nil
}

// ensureKeyInfo returns the ds:KeyInfo element, creating it when absent.
func (s *Signature) ensureKeyInfo() (*etree.Element, error) {
	if ki := s.KeyInfo(); ki != nil {
		return ki, nil
	}
	ki := etree.NewElement(dsigPrefix(s.el) + domain.TagKeyInfo)
	if err := s.SetKeyInfo(ki); err != nil {
		return nil, err
	}
	return ki, nil
}

// AddX509Certificate adds cert to KeyInfo/X509Data, creating both as needed.
func (s *Signature) AddX509Certificate(cert *x509.Certificate) error {
	if s.mode != ModeSigning {
		return domain.InvalidStateError("KeyInfo can only be changed while signing")
	}
	if cert == nil {
		return domain.InvalidKeyError("no certificate", nil)
	}
	ki, err := s.ensureKeyInfo()
	if err != nil {
		return err
	}
	data := childDSig(ki, domain.TagX509Data)
	if data == nil {
		data = createDSig(ki, domain.TagX509Data)
	}
	createDSig(data, domain.TagX509Certificate).SetText(base64.StdEncoding.EncodeToString(cert.Raw))
	return nil
}

// X509Certificates returns the DER certificates found in KeyInfo/X509Data.
// Nothing is validated.
func (s *Signature) X509Certificates() ([][]byte, error) {
	ki := s.KeyInfo()
	if ki == nil {
		return nil, nil
	}
	var out [][]byte
	for _, data := range childrenDSig(ki, domain.TagX509Data) {
		for _, c := range childrenDSig(data, domain.TagX509Certificate) {
			der, err := decodeBase64(c.Text())
			if err != nil {
				return nil, domain.MalformedError("X509Certificate is not valid base64", err)
			}
			out = append(out, der)
		}
	}
	return out, nil
}

// AddKeyName adds a ds:KeyName hint to KeyInfo.
func (s *Signature) AddKeyName(name string) error {
	if s.mode != ModeSigning {
		return domain.InvalidStateError("KeyInfo can only be changed while signing")
	}
	ki, err := s.ensureKeyInfo()
	if err != nil {
		return err
	}
	createDSig(ki, domain.TagKeyName).SetText(name)
	return nil
}

// KeyNames returns the ds:KeyName values of KeyInfo in order.
func (s *Signature) KeyNames() []string {
	ki := s.KeyInfo()
	if ki == nil {
		return nil
	}
	var out []string
	for _, el := range childrenDSig(ki, domain.TagKeyName) {
		out = append(out, el.Text())
	}
	return out
}

var curveOIDs = map[string]string{
	"P-256": "urn:oid:1.2.840.10045.3.1.7",
	"P-384": "urn:oid:1.3.132.0.34",
	"P-521": "urn:oid:1.3.132.0.35",
}

// AddKeyValue adds a ds:KeyValue holding pub. RSA and DSA keys use the
// RSAKeyValue and DSAKeyValue forms; ECDSA keys on the NIST curves use the
// dsig11:ECKeyValue form with a named curve.
func (s *Signature) AddKeyValue(pub crypto.PublicKey) error {
	if s.mode != ModeSigning {
		return domain.InvalidStateError("KeyInfo can only be changed while signing")
	}
	value := etree.NewElement(dsigPrefix(s.el) + domain.TagKeyValue)
	switch k := pub.(type) {
	case *rsa.PublicKey:
		rv := value.CreateElement(dsigPrefix(s.el) + domain.TagRSAKeyValue)
		addCryptoBinary(rv, dsigPrefix(s.el)+domain.TagModulus, k.N)
		addCryptoBinary(rv, dsigPrefix(s.el)+domain.TagExponent, big.NewInt(int64(k.E)))
	case *dsa.PublicKey:
		dv := value.CreateElement(dsigPrefix(s.el) + domain.TagDSAKeyValue)
		for _, p := range []struct {
			tag string
			v   *big.Int
		}{{"P", k.P}, {"Q", k.Q}, {"G", k.G}, {"Y", k.Y}} {
			addCryptoBinary(dv, dsigPrefix(s.el)+p.tag, p.v)
		}
	case *ecdsa.PublicKey:
		oid, ok := curveOIDs[k.Curve.Params().Name]
		if !ok {
			return domain.InvalidKeyError(fmt.Sprintf("no named curve for %s", k.Curve.Params().Name), nil)
		}
		point, err := k.ECDH()
		if err != nil {
			return domain.InvalidKeyError("invalid ECDSA public key", err)
		}
		ev := value.CreateElement("dsig11:" + domain.TagECKeyValue)
		ev.CreateAttr("xmlns:dsig11", domain.NamespaceDSig11)
		ev.CreateElement("dsig11:"+domain.TagNamedCurve).CreateAttr(domain.AttrURI, oid)
		ev.CreateElement("dsig11:" + domain.TagPublicKey).SetText(base64.StdEncoding.EncodeToString(point.Bytes()))
	default:
		return domain.InvalidKeyError(fmt.Sprintf("no KeyValue form for %T", pub), nil)
	}
	ki, err := s.ensureKeyInfo()
	if err != nil {
		return err
	}
	ki.AddChild(value)
	return nil
}

func addCryptoBinary(parent *etree.Element, tag string, v *big.Int) {
	parent.CreateElement(tag).SetText(base64.StdEncoding.EncodeToString(v.Bytes()))
}
