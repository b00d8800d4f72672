package transform

import (
	"encoding/base64"
	"strings"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Base64 decodes its input. Node-set input contributes the text content of
// its elements.
type Base64 struct{}

// Algorithm returns the transform URI.
func (Base64) Algorithm() string { return domain.TransformBase64 }

// Apply decodes in, ignoring whitespace.
func (Base64) Apply(_ ports.TransformContext, in *domain.SignatureInput) (*domain.SignatureInput, error) {
	var text string
	if in.IsNodeSet() {
		apexes, err := in.Materialize()
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for _, el := range apexes {
			collectText(&sb, el)
		}
		text = sb.String()
	} else {
		b, err := in.Bytes()
		if err != nil {
			return nil, err
		}
		text = string(b)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, domain.MalformedError("base64 transform input is not valid base64", err)
	}
	out := domain.NewBytesInput(decoded)
	out.SetSourceURI(in.SourceURI())
	return out, nil
}

func collectText(sb *strings.Builder, el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			collectText(sb, t)
		}
	}
}

var _ ports.Transform = Base64{}
