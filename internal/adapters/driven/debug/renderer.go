// Package debug renders signature inputs to HTML so the exact content that
// was digested can be inspected.
package debug

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// PageData holds data for rendering the input page template.
type PageData struct {
	Title  string
	Inputs []InputData
}

// InputData describes one rendered input.
type InputData struct {
	Label     string
	Kind      string
	SourceURI string
	MIMEType  string
	Digest    string
	Octets    string
	Lines     []NodeLine
	Error     string
}

// NodeLine is one node of a node-set with its inclusion state.
type NodeLine struct {
	Depth    int
	Text     string
	Included bool
}

// Indent returns the leading whitespace for the line.
func (l NodeLine) Indent() string {
	return strings.Repeat("  ", l.Depth)
}

// Renderer renders signature inputs as HTML.
type Renderer struct {
	page *template.Template
}

// NewRenderer creates a renderer using the embedded template.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(embeddedTemplates, "templates/input.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded input.html: %w", err)
	}
	return &Renderer{page: page}, nil
}

// NewRendererWithDir creates a renderer that loads input.html from dir,
// falling back to the embedded template when the file doesn't exist.
func NewRendererWithDir(dir string) (*Renderer, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path is not a directory: %s", dir)
	}

	customPath := filepath.Join(dir, "input.html")
	if _, err := os.Stat(customPath); err == nil {
		page, err := template.ParseFiles(customPath)
		if err != nil {
			return nil, fmt.Errorf("parse custom input.html: %w", err)
		}
		return &Renderer{page: page}, nil
	}
	return NewRenderer()
}

// Render writes a page describing every input.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	return r.page.Execute(w, data)
}

// Describe converts in to template data. Node content is listed element by
// element with filtered and excluded nodes marked; octet content is shown
// as text. Describe never consumes a stream that has not been read yet.
func Describe(label string, in *domain.SignatureInput) InputData {
	d := InputData{
		Label:     label,
		Kind:      in.Kind().String(),
		SourceURI: in.SourceURI(),
		MIMEType:  in.MIMEType(),
	}
	switch {
	case in.IsPrecalculatedDigest():
		d.Digest = base64.StdEncoding.EncodeToString(in.PrecalculatedDigest())
	case in.IsNodeSet():
		nodes, err := in.NodeSet()
		if err != nil {
			d.Error = err.Error()
			return d
		}
		for _, el := range nodes {
			d.Lines = appendLines(d.Lines, el, 0, true, in.Filters(), in.ExcludeComments())
		}
	case in.Kind() == domain.InputStream:
		d.Octets = "(unread stream)"
	default:
		b, err := in.Bytes()
		if err != nil {
			d.Error = err.Error()
			return d
		}
		d.Octets = string(b)
	}
	return d
}

// appendLines lists el and its descendants. parentIncluded is false below
// an excluded subtree.
func appendLines(lines []NodeLine, el *etree.Element, depth int, parentIncluded bool, filters []domain.NodeFilter, excludeComments bool) []NodeLine {
	verdict := domain.FilterInclude
	if parentIncluded {
		for _, f := range filters {
			if v := f.Decide(el); v > verdict {
				verdict = v
			}
		}
	} else {
		verdict = domain.FilterExcludeSubtree
	}
	included := verdict == domain.FilterInclude
	childrenIncluded := verdict != domain.FilterExcludeSubtree

	lines = append(lines, NodeLine{Depth: depth, Text: startTag(el), Included: included})
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			lines = appendLines(lines, t, depth+1, childrenIncluded, filters, excludeComments)
		case *etree.CharData:
			if text := strings.TrimSpace(t.Data); text != "" {
				lines = append(lines, NodeLine{Depth: depth + 1, Text: text, Included: included})
			}
		case *etree.Comment:
			lines = append(lines, NodeLine{Depth: depth + 1, Text: "<!--" + t.Data + "-->", Included: childrenIncluded && !excludeComments})
		}
	}
	return lines
}

// startTag renders the element name and attributes.
func startTag(el *etree.Element) string {
	var sb strings.Builder
	sb.WriteString("<" + el.FullTag())
	for _, a := range el.Attr {
		fmt.Fprintf(&sb, " %s=%q", a.FullKey(), a.Value)
	}
	sb.WriteString(">")
	return sb.String()
}
