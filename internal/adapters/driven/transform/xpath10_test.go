//go:build unit

package transform

import (
	"errors"
	"testing"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"

	"github.com/philiph/xmlsig/internal/adapters/driven/c14n"
	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

func xpath10Transform(t *testing.T, decls, expr string) *etree.Element {
	t.Helper()
	doc := parse(t, `<ds:Transform xmlns:ds="http://www.w3.org/2000/09/xmldsig#" Algorithm="`+domain.TransformXPath+`">`+
		`<ds:XPath`+decls+`>`+expr+`</ds:XPath></ds:Transform>`)
	return doc.Root()
}

func TestXPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		decls string
		expr  string
		want  string
	}{
		{
			name:  "boolean drops an element",
			input: `<root><a>1</a><b>2</b></root>`,
			expr:  "not(self::b)",
			want:  `<root><a>1</a></root>`,
		},
		{
			name:  "number keeps everything",
			input: `<root><a>1</a><b>2</b></root>`,
			expr:  "1",
			want:  `<root><a>1</a><b>2</b></root>`,
		},
		{
			name:  "node-set result",
			input: `<root keep="y"><a keep="y">1</a><b>2</b></root>`,
			expr:  "@keep",
			want:  `<root keep="y"><a keep="y">1</a></root>`,
		},
		{
			name:  "string result",
			input: `<root keep="y"><a keep="y">1</a><b>2</b></root>`,
			expr:  "string(@keep)",
			want:  `<root keep="y"><a keep="y">1</a></root>`,
		},
		{
			name:  "namespace prefix from the XPath element",
			input: `<root><a>1</a><s:Sig xmlns:s="urn:sig"><s:V>x</s:V></s:Sig></root>`,
			decls: ` xmlns:n="urn:sig"`,
			expr:  "not(ancestor-or-self::n:Sig)",
			want:  `<root><a>1</a></root>`,
		},
		{
			name:  "excluded parent keeps matching children",
			input: `<root><wrap><a>1</a></wrap></root>`,
			expr:  "not(self::wrap)",
			want:  `<root><a>1</a></root>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := ports.TransformContext{Element: xpath10Transform(t, tt.decls, tt.expr)}
			out := apply(t, domain.TransformXPath, tc, domain.NewBytesInput([]byte(tt.input)))
			if got := canonical(t, out); got != tt.want {
				t.Errorf("output = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestXPath_Malformed(t *testing.T) {
	tr, err := NewRegistry(c14n.NewRegistry()).Transform(domain.TransformXPath)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	noParam := parse(t, `<ds:Transform xmlns:ds="http://www.w3.org/2000/09/xmldsig#" Algorithm="`+domain.TransformXPath+`"/>`)

	tests := []struct {
		name string
		el   *etree.Element
	}{
		{"no parameters", nil},
		{"no XPath element", noParam.Root()},
		{"syntax error", xpath10Transform(t, "", "//[")},
		{"undeclared prefix", xpath10Transform(t, "", "self::x:a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Apply(ports.TransformContext{Element: tt.el}, domain.NewBytesInput([]byte(`<root><a/></root>`)))
			if !errors.Is(err, domain.ErrMalformedSignature) {
				t.Errorf("error = %v, want malformed_signature", err)
			}
		})
	}
}

func TestNavigator_Evaluate(t *testing.T) {
	doc := parse(t, `<?pi data?><root xmlns:x="urn:x" a="1" x:b="2"><!--c--><x:item>one</x:item>text<item>two</item></root>`)

	tests := []struct {
		expr string
		want any
	}{
		{"count(/root/@*)", float64(2)},
		{"string(/root/@y:b)", "2"},
		{"count(/root/y:item)", float64(1)},
		{"count(/root/item)", float64(1)},
		{"count(/root/node())", float64(4)},
		{"count(/root/comment())", float64(1)},
		{"string(/root)", "onetexttwo"},
		{"name(/*)", "root"},
		{"count(//item/preceding-sibling::node())", float64(3)},
		{"string(/root/item/parent::root/@a)", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := xpath.CompileWithNS(tt.expr, map[string]string{"y": "urn:x"})
			if err != nil {
				t.Fatalf("compile %q: %v", tt.expr, err)
			}
			got := expr.Evaluate(newNavigator(doc.Root()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestNamespacesInScope(t *testing.T) {
	doc := parse(t, `<a xmlns:p="urn:outer" xmlns:q="urn:q" xmlns="urn:default"><b xmlns:p="urn:inner"/></a>`)
	got := namespacesInScope(doc.Root().ChildElements()[0])
	want := map[string]string{"p": "urn:inner", "q": "urn:q"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("namespacesInScope mismatch (-want +got):\n%s", diff)
	}
}
