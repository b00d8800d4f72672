// Package xmlsig creates and verifies XML signatures: enveloped, enveloping
// and detached, with manifests, transform chains and pluggable resource
// resolvers.
//
// The types are defined in internal packages and re-exported here. New wires
// the built-in canonicalizers, transforms, algorithms and the same-document
// resolver.
package xmlsig

import (
	"github.com/philiph/xmlsig/internal/adapters/driven/algorithm"
	"github.com/philiph/xmlsig/internal/adapters/driven/c14n"
	"github.com/philiph/xmlsig/internal/adapters/driven/resolver"
	"github.com/philiph/xmlsig/internal/adapters/driven/transform"
	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
	"github.com/philiph/xmlsig/internal/core/xmldsig"
)

// Re-export engine types
type (
	Engine         = xmldsig.Engine
	Option         = xmldsig.Option
	Signature      = xmldsig.Signature
	SignatureSpec  = xmldsig.SignatureSpec
	SignedInfo     = xmldsig.SignedInfo
	Manifest       = xmldsig.Manifest
	Reference      = xmldsig.Reference
	ReferenceSpec  = xmldsig.ReferenceSpec
	Scope          = xmldsig.Scope
	TransformChain = xmldsig.TransformChain
	TransformSpec  = xmldsig.TransformSpec
	XPathFilter    = xmldsig.XPathFilter
	Object         = xmldsig.Object
	ObjectSpec     = xmldsig.ObjectSpec
	Mode           = xmldsig.Mode
)

// Re-export domain types
type (
	ValidationConfig   = domain.ValidationConfig
	SignatureInput     = domain.SignatureInput
	InputKind          = domain.InputKind
	NodeFilter         = domain.NodeFilter
	FilterDecision     = domain.FilterDecision
	VerifiedReference  = domain.VerifiedReference
	FailedReference    = domain.FailedReference
	VerificationReport = domain.VerificationReport
)

// Re-export port types for custom resolvers and metrics
type (
	ResourceResolver = ports.ResourceResolver
	ResolverContext  = ports.ResolverContext
	MetricsRecorder  = ports.MetricsRecorder
)

const (
	ModeSigning   = xmldsig.ModeSigning
	ModeVerifying = xmldsig.ModeVerifying
)

var (
	WithConfig          = xmldsig.WithConfig
	WithResolvers       = xmldsig.WithResolvers
	WithLogger          = xmldsig.WithLogger
	WithMetricsRecorder = xmldsig.WithMetricsRecorder

	DefaultValidationConfig = domain.DefaultValidationConfig
	NewVerifiedReference    = domain.NewVerifiedReference
	AllValid                = domain.AllValid
	FailedReferences        = domain.FailedReferences
	Report                  = domain.Report
	AlgorithmName           = domain.AlgorithmName
	AlgorithmURI            = domain.AlgorithmURI

	NewBytesInput               = domain.NewBytesInput
	NewStreamInput              = domain.NewStreamInput
	NewNodeSetInput             = domain.NewNodeSetInput
	NewSubtreeInput             = domain.NewSubtreeInput
	NewPrecalculatedDigestInput = domain.NewPrecalculatedDigestInput
)

// Re-export resolvers
type (
	FragmentResolver      = resolver.Fragment
	FileResolver          = resolver.File
	HTTPResolver          = resolver.HTTP
	CachingResolver       = resolver.Caching
	PrecalculatedResolver = resolver.Precalculated
)

// Resolver properties understood by the HTTP resolver.
const (
	PropertyBasicUsername = resolver.PropertyBasicUsername
	PropertyBasicPassword = resolver.PropertyBasicPassword
	PropertyProxyHost     = resolver.PropertyProxyHost
	PropertyProxyPort     = resolver.PropertyProxyPort
	PropertyProxyUsername = resolver.PropertyProxyUsername
	PropertyProxyPassword = resolver.PropertyProxyPassword
)

var (
	NewFragmentResolver      = resolver.NewFragment
	NewFileResolver          = resolver.NewFile
	NewHTTPResolver          = resolver.NewHTTP
	NewCachingResolver       = resolver.NewCaching
	WithMaxResourceSize      = resolver.WithMaxResourceSize
	WithHTTPClient           = resolver.WithHTTPClient
	NewPrecalculatedResolver = resolver.NewPrecalculated
)

// New creates an engine with the built-in canonicalizers, transforms and
// algorithms. The same-document resolver comes first; resolvers passed with
// WithResolvers follow it.
func New(opts ...Option) (*Engine, error) {
	canon := c14n.NewRegistry()
	opts = append([]Option{WithResolvers(resolver.NewFragment())}, opts...)
	return xmldsig.New(transform.NewRegistry(canon), algorithm.NewRegistry(), canon, opts...)
}
