//go:build go1.18 && unit

package domain

import (
	"bytes"
	"testing"
)

// FuzzSignatureInput_Octets checks that octet input never panics when it is
// parsed and re-serialized, and that the octets themselves are preserved.
func FuzzSignatureInput_Octets(f *testing.F) {
	seeds := []string{
		`<a/>`,
		`<a xmlns="urn:x"><b c="1">t</b><!--c--></a>`,
		`<?xml version="1.0"?><r><![CDATA[x]]></r>`,
		``,
		`<unclosed>`,
		"\x00\xff",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		in := NewBytesInput(data)
		b, err := in.Bytes()
		if err != nil || !bytes.Equal(b, data) {
			t.Fatalf("Bytes() = %q, %v", b, err)
		}
		nodes, err := in.ToNodeSet()
		if err != nil {
			return
		}
		if _, err := nodes.Bytes(); err != nil {
			t.Logf("canonicalization failed: %v", err)
		}
	})
}
