package xmldsig

import (
	"encoding/base64"
	"strings"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// isDSig reports whether el is the signature-namespace element called tag.
func isDSig(el *etree.Element, tag string) bool {
	return el != nil && el.Tag == tag && el.NamespaceURI() == domain.NamespaceDSig
}

// childDSig returns the first signature-namespace child called tag.
func childDSig(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if isDSig(child, tag) {
			return child
		}
	}
	return nil
}

// childrenDSig returns every signature-namespace child called tag.
func childrenDSig(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if isDSig(child, tag) {
			out = append(out, child)
		}
	}
	return out
}

// newDSig creates a detached signature-namespace element declaring the
// namespace itself.
func newDSig(tag string) *etree.Element {
	el := etree.NewElement(domain.DefaultPrefix + ":" + tag)
	el.CreateAttr("xmlns:"+domain.DefaultPrefix, domain.NamespaceDSig)
	return el
}

// createDSig appends a signature-namespace child using the prefix in scope
// at parent.
func createDSig(parent *etree.Element, tag string) *etree.Element {
	return parent.CreateElement(dsigPrefix(parent) + tag)
}

// dsigPrefix returns "prefix:" for the signature namespace at el, or "" when
// it is the default namespace. Undeclared, it falls back to "ds:".
func dsigPrefix(el *etree.Element) string {
	if prefix, ok := declaredDSigPrefix(el); ok {
		return prefix
	}
	return domain.DefaultPrefix + ":"
}

// declaredDSigPrefix looks up the declaration of the signature namespace in
// scope at el.
func declaredDSigPrefix(el *etree.Element) (string, bool) {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Value != domain.NamespaceDSig {
				continue
			}
			if a.Space == "xmlns" {
				return a.Key + ":", true
			}
			if a.Space == "" && a.Key == "xmlns" {
				return "", true
			}
		}
	}
	return "", false
}

// enclosingSignature returns the nearest ds:Signature ancestor of el, or el
// itself when it is one.
func enclosingSignature(el *etree.Element) *etree.Element {
	for e := el; e != nil; e = e.Parent() {
		if isDSig(e, domain.TagSignature) {
			return e
		}
	}
	return nil
}

// documentOf returns the topmost node holding el.
func documentOf(el *etree.Element) *etree.Element {
	for el.Parent() != nil {
		el = el.Parent()
	}
	return el
}

// findDSig returns el or its first descendant that is the signature-namespace
// element called tag, in document order.
func findDSig(el *etree.Element, tag string) *etree.Element {
	if isDSig(el, tag) {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findDSig(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// encodeBase64 encodes b, wrapping lines at width when width is positive.
func encodeBase64(b []byte, width int) string {
	s := base64.StdEncoding.EncodeToString(b)
	if width <= 0 || len(s) <= width {
		return s
	}
	var sb strings.Builder
	for len(s) > width {
		sb.WriteString(s[:width])
		sb.WriteByte('\n')
		s = s[width:]
	}
	sb.WriteString(s)
	return sb.String()
}

// decodeBase64 decodes s, ignoring whitespace.
func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
}
