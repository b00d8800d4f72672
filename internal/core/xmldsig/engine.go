// Package xmldsig implements XML signature generation and verification:
// transform chains, references, manifests, SignedInfo and the Signature
// element itself.
//
// The package is concurrency-light. An Engine is immutable after New and may
// be shared; Signature, SignedInfo, Manifest and Reference values are not
// safe for concurrent use.
package xmldsig

import (
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

// Option is a functional option for configuring an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	config          *domain.ValidationConfig
	resolvers       []ports.ResourceResolver
	logger          *zap.Logger
	metricsRecorder ports.MetricsRecorder
}

// WithConfig sets the validation config. DefaultValidationConfig is used
// otherwise.
func WithConfig(cfg domain.ValidationConfig) Option {
	return func(o *engineOptions) {
		o.config = &cfg
	}
}

// WithResolvers appends engine-level resolvers. They are consulted after the
// resolvers registered on a Manifest.
func WithResolvers(resolvers ...ports.ResourceResolver) Option {
	return func(o *engineOptions) {
		o.resolvers = append(o.resolvers, resolvers...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMetricsRecorder sets the metrics recorder.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(o *engineOptions) {
		o.metricsRecorder = recorder
	}
}

// Engine holds the collaborators shared by every signature it creates or
// parses.
type Engine struct {
	config     domain.ValidationConfig
	transforms ports.TransformRegistry
	algorithms ports.AlgorithmRegistry
	canon      ports.CanonicalizerRegistry
	resolvers  []ports.ResourceResolver
	logger     *zap.Logger
	metrics    ports.MetricsRecorder
}

// New creates an engine. It fails with config_invalid when the config does
// not validate.
func New(transforms ports.TransformRegistry, algorithms ports.AlgorithmRegistry, canon ports.CanonicalizerRegistry, opts ...Option) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	cfg := domain.DefaultValidationConfig()
	if options.config != nil {
		cfg = *options.config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transforms == nil || algorithms == nil || canon == nil {
		return nil, domain.ConfigError("transform, algorithm and canonicalizer registries are required")
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := options.metricsRecorder
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Engine{
		config:     cfg,
		transforms: transforms,
		algorithms: algorithms,
		canon:      canon,
		resolvers:  options.resolvers,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Config returns the validation config.
func (e *Engine) Config() domain.ValidationConfig {
	return e.config
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// noopMetrics keeps the core free of an adapter import.
type noopMetrics struct{}

func (noopMetrics) RecordSignatureCheck(string, bool) {}
func (noopMetrics) RecordReferenceCheck(string, bool) {}
func (noopMetrics) RecordDereference(string, bool)    {}
func (noopMetrics) RecordSigning(string, bool)        {}
