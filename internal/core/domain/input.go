package domain

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
)

// InputKind identifies which representation a SignatureInput carries.
type InputKind int

const (
	InputBytes InputKind = iota + 1
	InputStream
	InputNodeSet
	InputSubtree
	InputPrecalculatedDigest
)

// String returns a short name for the kind.
func (k InputKind) String() string {
	switch k {
	case InputBytes:
		return "bytes"
	case InputStream:
		return "stream"
	case InputNodeSet:
		return "node-set"
	case InputSubtree:
		return "subtree"
	case InputPrecalculatedDigest:
		return "precalculated-digest"
	default:
		return "unknown"
	}
}

// ErrNoContent is returned when content is requested from an input that only
// carries a precalculated digest.
var ErrNoContent = errors.New("input carries a precalculated digest and no content")

// SignatureInput is dereferenced content in exactly one representation:
// raw bytes, a byte stream, a node-set of apex elements, a single subtree, or
// an externally attested digest.
//
// Conversions are one-directional and memoized: node content is serialized
// with C14N 1.0 on first request for bytes and that serialization is kept;
// octet content is parsed on first request for nodes. Conversions that change
// the kind return a new SignatureInput.
//
// A SignatureInput is not safe for concurrent use.
type SignatureInput struct {
	kind InputKind

	octets []byte
	stream io.ReadCloser
	nodes  []*etree.Element

	excludeComments bool
	filters         []NodeFilter
	digest          []byte

	sourceURI string
	mimeType  string

	consumed  bool
	canonical []byte
	parsed    *etree.Element
}

// NewBytesInput wraps a byte slice.
func NewBytesInput(b []byte) *SignatureInput {
	return &SignatureInput{kind: InputBytes, octets: b}
}

// NewStreamInput wraps a stream. The stream is closed once it has been read,
// or by Close.
func NewStreamInput(r io.ReadCloser) *SignatureInput {
	return &SignatureInput{kind: InputStream, stream: r}
}

// NewNodeSetInput wraps document-ordered apex elements. Each apex stands for
// itself and all of its descendants.
func NewNodeSetInput(nodes []*etree.Element, excludeComments bool) *SignatureInput {
	return &SignatureInput{kind: InputNodeSet, nodes: nodes, excludeComments: excludeComments}
}

// NewSubtreeInput wraps a single element subtree.
func NewSubtreeInput(el *etree.Element, excludeComments bool) *SignatureInput {
	return &SignatureInput{kind: InputSubtree, nodes: []*etree.Element{el}, excludeComments: excludeComments}
}

// NewPrecalculatedDigestInput wraps a digest attested outside this process.
func NewPrecalculatedDigestInput(digest []byte) *SignatureInput {
	return &SignatureInput{kind: InputPrecalculatedDigest, digest: bytes.Clone(digest)}
}

// Kind returns the representation currently carried.
func (in *SignatureInput) Kind() InputKind { return in.kind }

// IsOctetStream reports whether the content is byte based.
func (in *SignatureInput) IsOctetStream() bool {
	return in.kind == InputBytes || in.kind == InputStream
}

// IsNodeSet reports whether the content is node based.
func (in *SignatureInput) IsNodeSet() bool {
	return in.kind == InputNodeSet || in.kind == InputSubtree
}

// IsPrecalculatedDigest reports whether the input only carries a digest.
func (in *SignatureInput) IsPrecalculatedDigest() bool {
	return in.kind == InputPrecalculatedDigest
}

// PrecalculatedDigest returns a copy of the attested digest, or nil.
func (in *SignatureInput) PrecalculatedDigest() []byte {
	return bytes.Clone(in.digest)
}

// ExcludeComments reports whether comment nodes are outside the node-set.
func (in *SignatureInput) ExcludeComments() bool { return in.excludeComments }

// SourceURI returns the URI the content was dereferenced from.
func (in *SignatureInput) SourceURI() string { return in.sourceURI }

// SetSourceURI records the URI the content was dereferenced from.
func (in *SignatureInput) SetSourceURI(uri string) { in.sourceURI = uri }

// MIMEType returns the content type reported by the resolver, if any.
func (in *SignatureInput) MIMEType() string { return in.mimeType }

// SetMIMEType records the content type reported by the resolver.
func (in *SignatureInput) SetMIMEType(t string) { in.mimeType = t }

// Filters returns the node filters applied on serialization.
func (in *SignatureInput) Filters() []NodeFilter {
	return append([]NodeFilter(nil), in.filters...)
}

// WithFilter returns a node input that additionally applies f. Octet input is
// parsed first.
func (in *SignatureInput) WithFilter(f NodeFilter) (*SignatureInput, error) {
	nodeIn, err := in.ToNodeSet()
	if err != nil {
		return nil, err
	}
	out := nodeIn.derive()
	out.filters = append(append([]NodeFilter(nil), nodeIn.filters...), f)
	return out, nil
}

// derive copies the node payload and metadata, dropping memoized state.
func (in *SignatureInput) derive() *SignatureInput {
	return &SignatureInput{
		kind:            in.kind,
		nodes:           in.nodes,
		excludeComments: in.excludeComments,
		filters:         in.filters,
		sourceURI:       in.sourceURI,
		mimeType:        in.mimeType,
	}
}

// Bytes returns the octet content. Node content is canonicalized with C14N
// 1.0 (with comments unless comments are excluded) and the result is kept.
func (in *SignatureInput) Bytes() ([]byte, error) {
	switch in.kind {
	case InputBytes:
		return in.octets, nil
	case InputStream:
		if err := in.drain(); err != nil {
			return nil, err
		}
		return in.octets, nil
	case InputNodeSet, InputSubtree:
		if in.canonical == nil {
			c := dsig.MakeC14N10RecCanonicalizer()
			if !in.excludeComments {
				c = dsig.MakeC14N10WithCommentsCanonicalizer()
			}
			out, err := in.CanonicalizeWith(c.Canonicalize)
			if err != nil {
				return nil, err
			}
			in.canonical = out
		}
		return in.canonical, nil
	default:
		return nil, ErrNoContent
	}
}

// CanonicalizeWith serializes every apex of the filtered node-set with fn and
// concatenates the results in document order. Octet input is parsed first.
func (in *SignatureInput) CanonicalizeWith(fn func(*etree.Element) ([]byte, error)) ([]byte, error) {
	apexes, err := in.Materialize()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, el := range apexes {
		out, err := fn(el)
		if err != nil {
			return nil, fmt.Errorf("canonicalize <%s>: %w", el.FullTag(), err)
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

// drain reads and closes the stream once, keeping the bytes.
func (in *SignatureInput) drain() error {
	if in.consumed {
		return nil
	}
	if in.stream == nil {
		return errors.New("read input stream: stream already closed")
	}
	defer in.Close()
	data, err := io.ReadAll(in.stream)
	if err != nil {
		return fmt.Errorf("read input stream: %w", err)
	}
	in.octets = data
	in.consumed = true
	return nil
}

// Close releases an unread stream. It is a no-op for other kinds.
func (in *SignatureInput) Close() error {
	if in.kind != InputStream || in.stream == nil {
		return nil
	}
	s := in.stream
	in.stream = nil
	return s.Close()
}

// WriteTo pushes the octet form of the content into w. An unread stream is
// copied through without materializing it first; the copy is kept so the
// content can still be inspected afterwards.
func (in *SignatureInput) WriteTo(w io.Writer) (int64, error) {
	if in.kind == InputStream && !in.consumed && in.stream != nil {
		defer in.Close()
		var keep bytes.Buffer
		n, err := io.Copy(io.MultiWriter(w, &keep), in.stream)
		if err != nil {
			return n, fmt.Errorf("stream input: %w", err)
		}
		in.octets = keep.Bytes()
		in.consumed = true
		return n, nil
	}
	b, err := in.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// NodeSet returns the apex elements of the content without applying filters.
// Octet content is parsed on first call; the parse is kept.
func (in *SignatureInput) NodeSet() ([]*etree.Element, error) {
	switch in.kind {
	case InputNodeSet, InputSubtree:
		return in.nodes, nil
	case InputBytes, InputStream:
		if in.parsed == nil {
			b, err := in.Bytes()
			if err != nil {
				return nil, err
			}
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(b); err != nil {
				return nil, fmt.Errorf("parse octet input: %w", err)
			}
			if doc.Root() == nil {
				return nil, errors.New("parse octet input: no root element")
			}
			in.parsed = doc.Root()
		}
		return []*etree.Element{in.parsed}, nil
	default:
		return nil, ErrNoContent
	}
}

// ToNodeSet returns node input for the content. Node input is returned as is.
func (in *SignatureInput) ToNodeSet() (*SignatureInput, error) {
	if in.IsNodeSet() {
		return in, nil
	}
	nodes, err := in.NodeSet()
	if err != nil {
		return nil, err
	}
	out := NewSubtreeInput(nodes[0], false)
	out.sourceURI = in.sourceURI
	out.mimeType = in.mimeType
	return out, nil
}

// ToOctets returns byte input for the content. Octet input is returned as is.
func (in *SignatureInput) ToOctets() (*SignatureInput, error) {
	if in.IsOctetStream() {
		return in, nil
	}
	b, err := in.Bytes()
	if err != nil {
		return nil, err
	}
	out := NewBytesInput(b)
	out.sourceURI = in.sourceURI
	out.mimeType = in.mimeType
	return out, nil
}

// Materialize returns detached copies of the apex elements with filters
// applied in document order and, when excluded, comments removed. Each copy
// carries the namespace declarations in scope at its original position.
func (in *SignatureInput) Materialize() ([]*etree.Element, error) {
	nodes, err := in.NodeSet()
	if err != nil {
		return nil, err
	}
	var out []*etree.Element
	for _, el := range nodes {
		apexes, err := in.materializeApex(el)
		if err != nil {
			return nil, err
		}
		out = append(out, apexes...)
	}
	return out, nil
}

// materializeApex detaches el, or its children when a filter drops el alone.
func (in *SignatureInput) materializeApex(el *etree.Element) ([]*etree.Element, error) {
	switch decide(in.filters, el) {
	case FilterExcludeSubtree:
		return nil, nil
	case FilterExcludeNode:
		var out []*etree.Element
		for _, child := range el.ChildElements() {
			apexes, err := in.materializeApex(child)
			if err != nil {
				return nil, err
			}
			out = append(out, apexes...)
		}
		return out, nil
	}
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil, fmt.Errorf("namespace context of <%s>: %w", el.FullTag(), err)
	}
	detached, err := etreeutils.NSDetatch(ctx, el)
	if err != nil {
		return nil, fmt.Errorf("detach <%s>: %w", el.FullTag(), err)
	}
	prune(el, detached, in.filters, in.excludeComments)
	return []*etree.Element{detached}, nil
}
