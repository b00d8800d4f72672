package resolver

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// File resolves file: URIs and paths relative to a file: base URI. It never
// resolves under secure validation.
type File struct{}

// NewFile creates a local file resolver.
func NewFile() *File {
	return &File{}
}

// CanResolve reports whether rc names a local file.
func (f *File) CanResolve(rc ports.ResolverContext) bool {
	if rc.SecureValidation || !rc.HasURI || rc.URI == "" || strings.HasPrefix(rc.URI, "#") {
		return false
	}
	u, err := resolveURI(rc)
	return err == nil && u.Scheme == "file"
}

// Resolve opens the file as a stream input.
func (f *File) Resolve(_ context.Context, rc ports.ResolverContext) (*domain.SignatureInput, error) {
	u, err := resolveURI(rc)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, err)
	}
	if u.Scheme != "file" {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("not a file URI"))
	}
	path := filepath.FromSlash(u.Path)
	fh, err := os.Open(path)
	if err != nil {
		return nil, domain.ResolverError(rc.URI, fmt.Errorf("open %s: %w", path, err))
	}
	in := domain.NewStreamInput(fh)
	in.SetSourceURI(u.String())
	in.SetMIMEType(mime.TypeByExtension(filepath.Ext(path)))
	return in, nil
}

// resolveURI resolves the reference URI against the base URI. Fragments are
// not supported for external resources.
func resolveURI(rc ports.ResolverContext) (*url.URL, error) {
	ref, err := url.Parse(rc.URI)
	if err != nil {
		return nil, fmt.Errorf("parse URI: %w", err)
	}
	if ref.Fragment != "" {
		return nil, fmt.Errorf("fragment in external URI %q", rc.URI)
	}
	if ref.IsAbs() || rc.BaseURI == "" {
		return ref, nil
	}
	base, err := url.Parse(rc.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("parse base URI: %w", err)
	}
	return base.ResolveReference(ref), nil
}

var _ ports.ResourceResolver = (*File)(nil)
