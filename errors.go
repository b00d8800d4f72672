package xmlsig

import (
	"github.com/philiph/xmlsig/internal/core/domain"
)

// Re-export error types from domain package
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError
type JSONErrorResponse = domain.JSONErrorResponse
type JSONErrorDetail = domain.JSONErrorDetail

// Re-export error code constants
const (
	ErrCodeConfigInvalid           = domain.ErrCodeConfigInvalid
	ErrCodeUnsupportedAlgorithm    = domain.ErrCodeUnsupportedAlgorithm
	ErrCodeDisallowedAlgorithm     = domain.ErrCodeDisallowedAlgorithm
	ErrCodeMalformedSignature      = domain.ErrCodeMalformedSignature
	ErrCodeReferenceNotInitialized = domain.ErrCodeReferenceNotInitialized
	ErrCodeTooManyReferences       = domain.ErrCodeTooManyReferences
	ErrCodeTooManyTransforms       = domain.ErrCodeTooManyTransforms
	ErrCodeManifestDepthExceeded   = domain.ErrCodeManifestDepthExceeded
	ErrCodeInvalidKey              = domain.ErrCodeInvalidKey
	ErrCodeInvalidState            = domain.ErrCodeInvalidState
	ErrCodeResolverFailed          = domain.ErrCodeResolverFailed
	ErrCodeSignatureInvalid        = domain.ErrCodeSignatureInvalid
)

// Re-export code sentinels for errors.Is
var (
	ErrConfigInvalid           = domain.ErrConfigInvalid
	ErrUnsupportedAlgorithm    = domain.ErrUnsupportedAlgorithm
	ErrDisallowedAlgorithm     = domain.ErrDisallowedAlgorithm
	ErrMalformedSignature      = domain.ErrMalformedSignature
	ErrReferenceNotInitialized = domain.ErrReferenceNotInitialized
	ErrTooManyReferences       = domain.ErrTooManyReferences
	ErrTooManyTransforms       = domain.ErrTooManyTransforms
	ErrManifestDepthExceeded   = domain.ErrManifestDepthExceeded
	ErrInvalidKey              = domain.ErrInvalidKey
	ErrInvalidState            = domain.ErrInvalidState
	ErrResolverFailed          = domain.ErrResolverFailed
	ErrSignatureInvalid        = domain.ErrSignatureInvalid
	ErrNoContent               = domain.ErrNoContent
)

// Re-export error constructors
var (
	ConfigError          = domain.ConfigError
	NewJSONErrorResponse = domain.NewJSONErrorResponse
)
