//go:build unit

package xmldsig

import (
	"context"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/adapters/driven/algorithm"
	"github.com/philiph/xmlsig/internal/adapters/driven/c14n"
	"github.com/philiph/xmlsig/internal/adapters/driven/resolver"
	"github.com/philiph/xmlsig/internal/adapters/driven/transform"
	"github.com/philiph/xmlsig/internal/core/domain"
)

// newTestEngine wires the production adapters with a same-document resolver.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	canon := c14n.NewRegistry()
	opts = append([]Option{WithResolvers(resolver.NewFragment())}, opts...)
	e, err := New(transform.NewRegistry(canon), algorithm.NewRegistry(), canon, opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return e
}

func withConfig(mutate func(*domain.ValidationConfig)) Option {
	cfg := domain.DefaultValidationConfig()
	mutate(&cfg)
	return WithConfig(cfg)
}

func parseDoc(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func serialize(t *testing.T, doc *etree.Document) string {
	t.Helper()
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return s
}

// envelopedSpec covers the whole document minus the signature.
func envelopedSpec() ReferenceSpec {
	return ReferenceSpec{
		URI:          "",
		DigestMethod: domain.DigestSHA256,
		Transforms: []TransformSpec{
			{Algorithm: domain.TransformEnvelopedSignature},
			{Algorithm: domain.ExclusiveC14N10},
		},
	}
}

// signEnveloped signs the root of xml and returns the serialized document.
func signEnveloped(t *testing.T, e *Engine, xml, method string, key any) string {
	t.Helper()
	doc := parseDoc(t, xml)
	sig, err := e.NewSignature(doc.Root(), SignatureSpec{SignatureMethod: method})
	if err != nil {
		t.Fatalf("NewSignature error: %v", err)
	}
	if _, err := sig.AddDocument(envelopedSpec()); err != nil {
		t.Fatalf("AddDocument error: %v", err)
	}
	if err := sig.Sign(context.Background(), key); err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	return serialize(t, doc)
}

// parseSignature reads the first ds:Signature in xml.
func parseSignature(t *testing.T, e *Engine, xml string) *Signature {
	t.Helper()
	doc := parseDoc(t, xml)
	el := findDSig(doc.Root(), domain.TagSignature)
	if el == nil {
		t.Fatal("no Signature element")
	}
	sig, err := e.ParseSignature(el, "")
	if err != nil {
		t.Fatalf("ParseSignature error: %v", err)
	}
	return sig
}

// manifestXML builds a detached manifest with n references to #a using
// placeholder digests.
func manifestXML(n int, transforms int) string {
	var sb strings.Builder
	sb.WriteString(`<root><data Id="a">x</data><ds:Manifest xmlns:ds="http://www.w3.org/2000/09/xmldsig#" Id="m">`)
	for i := 0; i < n; i++ {
		sb.WriteString(`<ds:Reference URI="#a">`)
		if transforms > 0 {
			sb.WriteString(`<ds:Transforms>`)
			for j := 0; j < transforms; j++ {
				sb.WriteString(`<ds:Transform Algorithm="` + domain.ExclusiveC14N10 + `"/>`)
			}
			sb.WriteString(`</ds:Transforms>`)
		}
		sb.WriteString(`<ds:DigestMethod Algorithm="` + domain.DigestSHA256 + `"/><ds:DigestValue>AAAA</ds:DigestValue></ds:Reference>`)
	}
	sb.WriteString(`</ds:Manifest></root>`)
	return sb.String()
}
