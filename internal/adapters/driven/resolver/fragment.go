// Package resolver dereferences Reference URIs: same-document fragments,
// local files, HTTP resources and externally attested digests.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// ErrElementNotFound is returned when no element carries the requested ID.
var ErrElementNotFound = errors.New("no element with the requested ID")

// ErrDuplicateID is returned under secure validation when an ID is not unique.
var ErrDuplicateID = errors.New("ID is not unique in the document")

var (
	xpointerRoot = regexp.MustCompile(`^#xpointer\(\s*/\s*\)$`)
	xpointerID   = regexp.MustCompile(`^#xpointer\(\s*id\(\s*['"]([^'"]+)['"]\s*\)\s*\)$`)
)

// Fragment resolves same-document references.
//
//	""                   whole document, comments excluded
//	#xpointer(/)         whole document, comments kept
//	#id                  element with that ID, comments excluded
//	#xpointer(id('id'))  element with that ID, comments kept
type Fragment struct{}

// NewFragment creates a same-document resolver.
func NewFragment() *Fragment {
	return &Fragment{}
}

// CanResolve reports whether rc is a same-document URI.
func (f *Fragment) CanResolve(rc ports.ResolverContext) bool {
	return rc.HasURI && (rc.URI == "" || strings.HasPrefix(rc.URI, "#"))
}

// Resolve returns the referenced node-set.
func (f *Fragment) Resolve(_ context.Context, rc ports.ResolverContext) (*domain.SignatureInput, error) {
	if rc.Document == nil {
		return nil, domain.ResolverError(rc.URI, errors.New("same-document reference without a document"))
	}
	root := DocumentElement(rc.Document)
	if root == nil {
		return nil, domain.ResolverError(rc.URI, errors.New("document has no root element"))
	}

	var (
		in  *domain.SignatureInput
		err error
	)
	switch {
	case rc.URI == "":
		in = domain.NewNodeSetInput([]*etree.Element{root}, true)
	case xpointerRoot.MatchString(rc.URI):
		in = domain.NewNodeSetInput([]*etree.Element{root}, false)
	case xpointerID.MatchString(rc.URI):
		var el *etree.Element
		el, err = FindByID(root, xpointerID.FindStringSubmatch(rc.URI)[1], rc.IDAttributes, rc.SecureValidation)
		if err == nil {
			in = domain.NewSubtreeInput(el, false)
		}
	case strings.HasPrefix(rc.URI, "#xpointer("):
		err = fmt.Errorf("unsupported XPointer expression")
	default:
		var el *etree.Element
		el, err = FindByID(root, rc.URI[1:], rc.IDAttributes, rc.SecureValidation)
		if err == nil {
			in = domain.NewSubtreeInput(el, true)
		}
	}
	if err != nil {
		return nil, domain.ResolverError(rc.URI, err)
	}
	in.SetSourceURI(rc.URI)
	return in, nil
}

// DocumentElement returns the document element for doc, which is either a
// document node or any element of the document.
func DocumentElement(doc *etree.Element) *etree.Element {
	for doc.Parent() != nil {
		doc = doc.Parent()
	}
	if doc.Tag == "" && doc.Space == "" {
		return firstChildElement(doc)
	}
	return doc
}

func firstChildElement(el *etree.Element) *etree.Element {
	for _, tok := range el.Child {
		if child, ok := tok.(*etree.Element); ok {
			return child
		}
	}
	return nil
}

// FindByID returns the element under root whose ID equals id. Attribute
// names are tried in order. With unique set, a second match is an error.
func FindByID(root *etree.Element, id string, attrs []string, unique bool) (*etree.Element, error) {
	if len(attrs) == 0 {
		attrs = domain.DefaultValidationConfig().IDAttributes
	}
	var found *etree.Element
	var walk func(el *etree.Element) error
	walk = func(el *etree.Element) error {
		for _, name := range attrs {
			if a := el.SelectAttr(name); a != nil && a.Value == id {
				if found != nil && found != el {
					return fmt.Errorf("%w: %q", ErrDuplicateID, id)
				}
				found = el
				if !unique {
					return nil
				}
				break
			}
		}
		for _, child := range el.ChildElements() {
			if err := walk(child); err != nil {
				return err
			}
			if found != nil && !unique {
				return nil
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	return found, nil
}

// Ensure implementations satisfy interfaces
var _ ports.ResourceResolver = (*Fragment)(nil)
