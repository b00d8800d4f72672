//go:build unit

package xmldsig

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/testfixtures/keys"
)

const sampleDoc = `<doc xmlns="urn:example"><item>1</item><item>2</item></doc>`

func TestSignature_RoundTrip(t *testing.T) {
	k := keys.New(t)
	dsaKey := keys.DSA(t)
	tests := []struct {
		method    string
		signKey   any
		verifyKey any
	}{
		{domain.SignatureRSASHA256, k.RSA, &k.RSA.PublicKey},
		{domain.SignatureRSASHA256, k.RSA, k.Certificate},
		{domain.SignatureRSAPSSSHA256, k.RSA, &k.RSA.PublicKey},
		{domain.SignatureECDSASHA256, k.ECDSA, &k.ECDSA.PublicKey},
		{domain.SignatureEd25519, k.Ed25519, k.Ed25519.Public()},
		{domain.SignatureHMACSHA256, k.HMACSecret, k.HMACSecret},
		{domain.SignatureDSASHA1, dsaKey, &dsaKey.PublicKey},
		{domain.SignatureDSASHA256, dsaKey, &dsaKey.PublicKey},
	}
	for _, tt := range tests {
		t.Run(domain.AlgorithmName(tt.method), func(t *testing.T) {
			e := newTestEngine(t)
			signed := signEnveloped(t, e, sampleDoc, tt.method, tt.signKey)

			sig := parseSignature(t, e, signed)
			if sig.Mode() != ModeVerifying {
				t.Errorf("Mode = %v, want verifying", sig.Mode())
			}
			valid, err := sig.CheckSignatureValue(context.Background(), tt.verifyKey)
			if err != nil {
				t.Fatalf("CheckSignatureValue error: %v", err)
			}
			if !valid {
				t.Error("freshly signed document did not verify")
			}
		})
	}
}

func TestSignature_CheckWithoutReparse(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	doc := parseDoc(t, sampleDoc)
	sig, err := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSASHA256})
	if err != nil {
		t.Fatalf("NewSignature error: %v", err)
	}
	if _, err := sig.AddDocument(envelopedSpec()); err != nil {
		t.Fatalf("AddDocument error: %v", err)
	}
	if err := sig.Sign(context.Background(), k.RSA); err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	valid, err := sig.CheckSignatureValue(context.Background(), &k.RSA.PublicKey)
	if err != nil || !valid {
		t.Errorf("CheckSignatureValue = %v, %v; want true, nil", valid, err)
	}
}

func TestSignature_TamperedContent(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	signed := signEnveloped(t, e, sampleDoc, domain.SignatureRSASHA256, k.RSA)

	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{"content", func(s string) string { return strings.Replace(s, "<item>2</item>", "<item>3</item>", 1) }},
		{"added element", func(s string) string { return strings.Replace(s, "<item>1</item>", "<item>1</item><item/>", 1) }},
		{"signature value", func(s string) string {
			start := strings.Index(s, "<ds:SignatureValue>") + len("<ds:SignatureValue>")
			b := []byte(s)
			if b[start] == 'A' {
				b[start] = 'B'
			} else {
				b[start] = 'A'
			}
			return string(b)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := parseSignature(t, e, tt.mutate(signed))
			valid, err := sig.CheckSignatureValue(context.Background(), &k.RSA.PublicKey)
			if err != nil {
				t.Fatalf("CheckSignatureValue error: %v", err)
			}
			if valid {
				t.Error("tampered document verified")
			}
		})
	}
}

func TestSignature_WrongKey(t *testing.T) {
	k := keys.New(t)
	other := keys.New(t)
	e := newTestEngine(t)
	sig := parseSignature(t, e, signEnveloped(t, e, sampleDoc, domain.SignatureRSASHA256, k.RSA))

	valid, err := sig.CheckSignatureValue(context.Background(), &other.RSA.PublicKey)
	if err != nil {
		t.Fatalf("CheckSignatureValue error: %v", err)
	}
	if valid {
		t.Error("signature verified with an unrelated key")
	}
}

func TestSignature_KeyRejection(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)

	t.Run("sign with public key", func(t *testing.T) {
		doc := parseDoc(t, sampleDoc)
		sig, _ := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSASHA256})
		sig.AddDocument(envelopedSpec())
		for _, key := range []any{&k.RSA.PublicKey, k.Certificate, &keys.DSA(t).PublicKey, nil} {
			if err := sig.Sign(context.Background(), key); !errors.Is(err, domain.ErrInvalidKey) {
				t.Errorf("Sign(%T) error = %v, want invalid_key", key, err)
			}
		}
		if v, _ := sig.SignatureValue(); len(v) != 0 {
			t.Error("rejected key still produced a SignatureValue")
		}
	})

	t.Run("check with nil key", func(t *testing.T) {
		sig := parseSignature(t, e, signEnveloped(t, e, sampleDoc, domain.SignatureRSASHA256, k.RSA))
		if _, err := sig.CheckSignatureValue(context.Background(), nil); !errors.Is(err, domain.ErrInvalidKey) {
			t.Errorf("error = %v, want invalid_key", err)
		}
	})

	t.Run("sign while verifying", func(t *testing.T) {
		sig := parseSignature(t, e, signEnveloped(t, e, sampleDoc, domain.SignatureRSASHA256, k.RSA))
		if err := sig.Sign(context.Background(), k.RSA); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("error = %v, want invalid_state", err)
		}
		if _, err := sig.AddDocument(envelopedSpec()); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("AddDocument error = %v, want invalid_state", err)
		}
	})
}

func TestSignature_DisallowedAlgorithms(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	doc := parseDoc(t, sampleDoc)

	if _, err := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSAMD5}); !errors.Is(err, domain.ErrDisallowedAlgorithm) {
		t.Errorf("NewSignature error = %v, want disallowed_algorithm", err)
	}

	sig, err := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSASHA256})
	if err != nil {
		t.Fatalf("NewSignature error: %v", err)
	}
	spec := envelopedSpec()
	spec.DigestMethod = domain.DigestMD5
	if _, err := sig.AddDocument(spec); !errors.Is(err, domain.ErrDisallowedAlgorithm) {
		t.Errorf("AddDocument error = %v, want disallowed_algorithm", err)
	}

	// An insecure engine signs with MD5; a secure one refuses to check it.
	insecure := newTestEngine(t, withConfig(func(c *domain.ValidationConfig) { c.SecureValidation = false }))
	signed := signEnveloped(t, insecure, sampleDoc, domain.SignatureRSAMD5, k.RSA)
	parsed := parseSignature(t, e, signed)
	if _, err := parsed.CheckSignatureValue(context.Background(), &k.RSA.PublicKey); !errors.Is(err, domain.ErrDisallowedAlgorithm) {
		t.Errorf("CheckSignatureValue error = %v, want disallowed_algorithm", err)
	}
}

func TestSignature_UnsupportedTransform(t *testing.T) {
	e := newTestEngine(t)
	doc := parseDoc(t, sampleDoc)
	sig, _ := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSASHA256})
	spec := envelopedSpec()
	spec.Transforms = append(spec.Transforms, TransformSpec{Algorithm: "http://www.w3.org/TR/1999/REC-xslt-19991116"})
	if _, err := sig.AddDocument(spec); !errors.Is(err, domain.ErrUnsupportedAlgorithm) {
		t.Errorf("AddDocument error = %v, want unsupported_algorithm", err)
	}
}

func TestSignature_VerifiesGoxmldsigOutput(t *testing.T) {
	k := keys.New(t)
	signed, err := k.SignEnveloped([]byte(`<Response xmlns="urn:example" ID="_resp1" Version="2.0"><Assertion>ok</Assertion></Response>`))
	if err != nil {
		t.Fatalf("SignEnveloped error: %v", err)
	}
	e := newTestEngine(t)
	sig := parseSignature(t, e, string(signed))

	valid, err := sig.CheckSignatureValue(context.Background(), k.Certificate)
	if err != nil {
		t.Fatalf("CheckSignatureValue error: %v", err)
	}
	if !valid {
		t.Error("document signed by goxmldsig did not verify")
	}
	certs, err := sig.X509Certificates()
	if err != nil || len(certs) != 1 {
		t.Errorf("X509Certificates = %d certs, %v; want 1", len(certs), err)
	}
}

func TestSignature_HMACOutputLength(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	doc := parseDoc(t, sampleDoc)
	sig, err := e.NewSignature(doc.Root(), SignatureSpec{
		SignatureMethod:  domain.SignatureHMACSHA256,
		HMACOutputLength: 160,
	})
	if err != nil {
		t.Fatalf("NewSignature error: %v", err)
	}
	sig.AddDocument(envelopedSpec())
	if err := sig.Sign(context.Background(), k.HMACSecret); err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	value, _ := sig.SignatureValue()
	if len(value) != 20 {
		t.Errorf("len(SignatureValue) = %d, want 20", len(value))
	}

	parsed := parseSignature(t, e, serialize(t, doc))
	if bits, ok, _ := parsed.SignedInfo().HMACOutputLength(); !ok || bits != 160 {
		t.Errorf("HMACOutputLength = %d, %v", bits, ok)
	}
	if valid, err := parsed.CheckSignatureValue(context.Background(), k.HMACSecret); err != nil || !valid {
		t.Errorf("CheckSignatureValue = %v, %v; want true, nil", valid, err)
	}
}

func TestSignature_KeyInfoAndObjects(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	doc := parseDoc(t, `<doc/>`)
	sig, _ := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: domain.SignatureRSASHA256, ID: "sig1"})

	obj, err := sig.AppendObject(ObjectSpec{ID: "payload", MimeType: "text/plain", Encoding: "http://www.w3.org/2000/09/xmldsig#base64"})
	if err != nil {
		t.Fatalf("AppendObject error: %v", err)
	}
	obj.SetText("aGVsbG8=")
	if err := sig.AddX509Certificate(k.Certificate); err != nil {
		t.Fatalf("AddX509Certificate error: %v", err)
	}
	if _, err := sig.AddDocument(ReferenceSpec{
		URI:          "#payload",
		Type:         domain.TypeObject,
		DigestMethod: domain.DigestSHA256,
		Transforms:   []TransformSpec{{Algorithm: domain.TransformBase64}},
	}); err != nil {
		t.Fatalf("AddDocument error: %v", err)
	}
	if err := sig.Sign(context.Background(), k.RSA); err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	var order []string
	for _, child := range sig.Element().ChildElements() {
		order = append(order, child.Tag)
	}
	if got := strings.Join(order, ","); got != "SignedInfo,SignatureValue,KeyInfo,Object" {
		t.Errorf("child order = %s", got)
	}

	ref, _ := sig.SignedInfo().Item(0)
	if !ref.IsReferenceToObject() || ref.IsReferenceToManifest() {
		t.Error("reference type predicates are wrong")
	}
	content, err := sig.SignedInfo().SignedContentItem(0)
	if err != nil {
		t.Fatalf("SignedContentItem error: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("SignedContentItem = %q, want hello", content)
	}

	parsed := parseSignature(t, e, serialize(t, doc))
	objs := parsed.Objects()
	if len(objs) != 1 || objs[0].ID() != "payload" || objs[0].MimeType() != "text/plain" {
		t.Fatalf("Objects = %+v", objs)
	}
	if parsed.ID() != "sig1" {
		t.Errorf("ID = %q, want sig1", parsed.ID())
	}
	if valid, err := parsed.CheckSignatureValue(context.Background(), k.Certificate); err != nil || !valid {
		t.Errorf("CheckSignatureValue = %v, %v; want true, nil", valid, err)
	}
}

func TestSignature_ParseErrors(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		xml  string
	}{
		{"not a signature", `<ds:SignedInfo xmlns:ds="http://www.w3.org/2000/09/xmldsig#"/>`},
		{"no SignedInfo", `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:SignatureValue/></ds:Signature>`},
		{"no SignatureValue", `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:SignedInfo/></ds:Signature>`},
		{"no CanonicalizationMethod", `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:SignedInfo><ds:SignatureMethod Algorithm="x"/></ds:SignedInfo><ds:SignatureValue/></ds:Signature>`},
		{"no Reference", `<ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"><ds:SignedInfo><ds:CanonicalizationMethod Algorithm="x"/><ds:SignatureMethod Algorithm="y"/></ds:SignedInfo><ds:SignatureValue/></ds:Signature>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.xml)
			if _, err := e.ParseSignature(doc.Root(), ""); !errors.Is(err, domain.ErrMalformedSignature) {
				t.Errorf("error = %v, want malformed_signature", err)
			}
		})
	}
}

func TestSignature_RoundTripProperty(t *testing.T) {
	k := keys.New(t)
	e := newTestEngine(t)
	f := func(content string) bool {
		doc := etree.NewDocument()
		root := doc.CreateElement("doc")
		root.CreateElement("v").SetText(content)
		sig, err := e.NewSignature(root, SignatureSpec{SignatureMethod: domain.SignatureHMACSHA256})
		if err != nil {
			return false
		}
		if _, err := sig.AddDocument(envelopedSpec()); err != nil {
			return false
		}
		if err := sig.Sign(context.Background(), k.HMACSecret); err != nil {
			return false
		}
		valid, err := sig.CheckSignatureValue(context.Background(), k.HMACSecret)
		return valid && err == nil
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 25}); err != nil {
		t.Error(err)
	}
}
