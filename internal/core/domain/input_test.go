//go:build unit

package domain

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

type closeTracker struct {
	io.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func mustParse(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestSignatureInput_Kinds(t *testing.T) {
	doc := mustParse(t, `<a/>`)
	tests := []struct {
		in      *SignatureInput
		kind    InputKind
		octets  bool
		nodeSet bool
	}{
		{NewBytesInput([]byte("x")), InputBytes, true, false},
		{NewStreamInput(io.NopCloser(strings.NewReader("x"))), InputStream, true, false},
		{NewNodeSetInput([]*etree.Element{doc.Root()}, true), InputNodeSet, false, true},
		{NewSubtreeInput(doc.Root(), false), InputSubtree, false, true},
		{NewPrecalculatedDigestInput([]byte{1}), InputPrecalculatedDigest, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if tt.in.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.in.Kind(), tt.kind)
			}
			if tt.in.IsOctetStream() != tt.octets || tt.in.IsNodeSet() != tt.nodeSet {
				t.Errorf("IsOctetStream/IsNodeSet = %v/%v", tt.in.IsOctetStream(), tt.in.IsNodeSet())
			}
		})
	}
}

func TestSignatureInput_StreamReadOnce(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("<a>1</a>")}
	in := NewStreamInput(src)

	var first bytes.Buffer
	if _, err := in.WriteTo(&first); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	again, err := in.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if first.String() != "<a>1</a>" || string(again) != "<a>1</a>" {
		t.Errorf("got %q then %q", first.String(), again)
	}
	if src.closed != 1 {
		t.Errorf("stream closed %d times, want 1", src.closed)
	}

	nodes, err := in.NodeSet()
	if err != nil || len(nodes) != 1 || nodes[0].Tag != "a" {
		t.Errorf("NodeSet = %v, %v", nodes, err)
	}
}

func TestSignatureInput_NodeSetToBytes(t *testing.T) {
	doc := mustParse(t, `<root xmlns="urn:x"><!--c--><b   z="2" a="1"/></root>`)

	withComments := NewNodeSetInput([]*etree.Element{doc.Root()}, false)
	got, err := withComments.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if want := `<root xmlns="urn:x"><!--c--><b a="1" z="2"></b></root>`; string(got) != want {
		t.Errorf("with comments = %q, want %q", got, want)
	}

	noComments := NewNodeSetInput([]*etree.Element{doc.Root()}, true)
	got, _ = noComments.Bytes()
	if want := `<root xmlns="urn:x"><b a="1" z="2"></b></root>`; string(got) != want {
		t.Errorf("without comments = %q, want %q", got, want)
	}

	octets, err := noComments.ToOctets()
	if err != nil || !octets.IsOctetStream() {
		t.Fatalf("ToOctets = %v, %v", octets, err)
	}
	if b, _ := octets.Bytes(); !bytes.Equal(b, got) {
		t.Errorf("ToOctets bytes = %q", b)
	}
}

func TestSignatureInput_SubtreeKeepsNamespaces(t *testing.T) {
	doc := mustParse(t, `<p:root xmlns:p="urn:p"><p:child>v</p:child></p:root>`)
	child := doc.Root().ChildElements()[0]
	got, err := NewSubtreeInput(child, true).Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if want := `<p:child xmlns:p="urn:p">v</p:child>`; string(got) != want {
		t.Errorf("Bytes = %q, want %q", got, want)
	}
	if child.Parent() != doc.Root() {
		t.Error("serialization detached the source element")
	}
}

func TestSignatureInput_Precalculated(t *testing.T) {
	digest := []byte{1, 2, 3}
	in := NewPrecalculatedDigestInput(digest)
	digest[0] = 9
	if got := in.PrecalculatedDigest(); got[0] != 1 {
		t.Error("input shares the caller's digest slice")
	}
	if _, err := in.Bytes(); !errors.Is(err, ErrNoContent) {
		t.Errorf("Bytes error = %v, want ErrNoContent", err)
	}
	if _, err := in.NodeSet(); !errors.Is(err, ErrNoContent) {
		t.Errorf("NodeSet error = %v, want ErrNoContent", err)
	}
}

func TestSignatureInput_ToNodeSetFromOctets(t *testing.T) {
	in := NewBytesInput([]byte(`<a><b/></a>`))
	in.SetSourceURI("file:///tmp/a.xml")
	in.SetMIMEType("application/xml")

	nodes, err := in.ToNodeSet()
	if err != nil {
		t.Fatalf("ToNodeSet error: %v", err)
	}
	if nodes.Kind() != InputSubtree || nodes.SourceURI() != "file:///tmp/a.xml" || nodes.MIMEType() != "application/xml" {
		t.Errorf("ToNodeSet = %v %q %q", nodes.Kind(), nodes.SourceURI(), nodes.MIMEType())
	}

	if _, err := NewBytesInput([]byte("not xml <")).ToNodeSet(); err == nil {
		t.Error("ToNodeSet accepted malformed XML")
	}
}

func TestSignatureInput_WithFilter(t *testing.T) {
	doc := mustParse(t, `<root><keep>1</keep><drop>2</drop></root>`)
	drop := doc.Root().ChildElements()[1]
	base := NewNodeSetInput([]*etree.Element{doc.Root()}, true)

	filtered, err := base.WithFilter(ExcludeElement(drop))
	if err != nil {
		t.Fatalf("WithFilter error: %v", err)
	}
	got, _ := filtered.Bytes()
	if want := `<root><keep>1</keep></root>`; string(got) != want {
		t.Errorf("filtered = %q, want %q", got, want)
	}
	if len(base.Filters()) != 0 || len(filtered.Filters()) != 1 {
		t.Error("WithFilter modified the original input")
	}
	if len(doc.Root().ChildElements()) != 2 {
		t.Error("filter removed the element from the source document")
	}
}
