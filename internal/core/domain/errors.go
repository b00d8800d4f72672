package domain

import (
	"fmt"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeConfigInvalid           ErrorCode = "config_invalid"
	ErrCodeUnsupportedAlgorithm    ErrorCode = "unsupported_algorithm"
	ErrCodeDisallowedAlgorithm     ErrorCode = "disallowed_algorithm"
	ErrCodeMalformedSignature      ErrorCode = "malformed_signature"
	ErrCodeReferenceNotInitialized ErrorCode = "reference_not_initialized"
	ErrCodeTooManyReferences       ErrorCode = "too_many_references"
	ErrCodeTooManyTransforms       ErrorCode = "too_many_transforms"
	ErrCodeManifestDepthExceeded   ErrorCode = "manifest_depth_exceeded"
	ErrCodeInvalidKey              ErrorCode = "invalid_key"
	ErrCodeInvalidState            ErrorCode = "invalid_state"
	ErrCodeResolverFailed          ErrorCode = "resolver_failed"
	ErrCodeSignatureInvalid        ErrorCode = "signature_invalid"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Title returns a short human-readable title for this error code.
func (c ErrorCode) Title() string {
	switch c {
	case ErrCodeConfigInvalid:
		return "Configuration Error"
	case ErrCodeUnsupportedAlgorithm:
		return "Unsupported Algorithm"
	case ErrCodeDisallowedAlgorithm:
		return "Disallowed Algorithm"
	case ErrCodeMalformedSignature:
		return "Malformed Signature"
	case ErrCodeReferenceNotInitialized:
		return "Reference Not Initialized"
	case ErrCodeTooManyReferences:
		return "Too Many References"
	case ErrCodeTooManyTransforms:
		return "Too Many Transforms"
	case ErrCodeManifestDepthExceeded:
		return "Manifest Depth Exceeded"
	case ErrCodeInvalidKey:
		return "Invalid Key"
	case ErrCodeInvalidState:
		return "Invalid State"
	case ErrCodeResolverFailed:
		return "Resolver Failed"
	case ErrCodeSignatureInvalid:
		return "Signature Invalid"
	default:
		return "Error"
	}
}

// AppError is a structured error with code, message, and optional cause.
// URI is set for errors tied to a single dereferenced resource so callers can
// retry with a different resolver.
type AppError struct {
	Code    ErrorCode
	Message string
	URI     string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if e.URI != "" {
		msg = fmt.Sprintf("%s (uri %q)", msg, e.URI)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError carrying the same code.
// This lets the code sentinels below be used with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Code sentinels for errors.Is.
var (
	ErrConfigInvalid           = &AppError{Code: ErrCodeConfigInvalid, Message: "invalid configuration"}
	ErrUnsupportedAlgorithm    = &AppError{Code: ErrCodeUnsupportedAlgorithm, Message: "unsupported algorithm"}
	ErrDisallowedAlgorithm     = &AppError{Code: ErrCodeDisallowedAlgorithm, Message: "algorithm not allowed"}
	ErrMalformedSignature      = &AppError{Code: ErrCodeMalformedSignature, Message: "malformed signature structure"}
	ErrReferenceNotInitialized = &AppError{Code: ErrCodeReferenceNotInitialized, Message: "reference not initialized"}
	ErrTooManyReferences       = &AppError{Code: ErrCodeTooManyReferences, Message: "too many references"}
	ErrTooManyTransforms       = &AppError{Code: ErrCodeTooManyTransforms, Message: "too many transforms"}
	ErrManifestDepthExceeded   = &AppError{Code: ErrCodeManifestDepthExceeded, Message: "manifest nesting too deep"}
	ErrInvalidKey              = &AppError{Code: ErrCodeInvalidKey, Message: "invalid key"}
	ErrInvalidState            = &AppError{Code: ErrCodeInvalidState, Message: "invalid state"}
	ErrResolverFailed          = &AppError{Code: ErrCodeResolverFailed, Message: "resolver failed"}
	ErrSignatureInvalid        = &AppError{Code: ErrCodeSignatureInvalid, Message: "signature invalid"}
)

// JSONErrorResponse is the JSON error format printed by the CLI.
type JSONErrorResponse struct {
	Error JSONErrorDetail `json:"error"`
}

// JSONErrorDetail contains error details.
type JSONErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	URI     string `json:"uri,omitempty"`
}

// NewJSONErrorResponse creates a JSON error response from an AppError.
func NewJSONErrorResponse(err *AppError) JSONErrorResponse {
	return JSONErrorResponse{
		Error: JSONErrorDetail{
			Code:    err.Code.String(),
			Message: err.Error(),
			URI:     err.URI,
		},
	}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfigInvalid, Message: message}
}

// UnsupportedAlgorithmError reports an algorithm identifier with no implementation.
func UnsupportedAlgorithmError(kind, uri string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedAlgorithm,
		Message: fmt.Sprintf("unsupported %s algorithm %q", kind, uri),
	}
}

// DisallowedAlgorithmError reports an algorithm rejected by the validation policy.
func DisallowedAlgorithmError(uri string) *AppError {
	return &AppError{
		Code:    ErrCodeDisallowedAlgorithm,
		Message: fmt.Sprintf("algorithm %q is not allowed under secure validation", uri),
	}
}

// MalformedError reports a signature structure missing required parts.
func MalformedError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeMalformedSignature, Message: message, Cause: cause}
}

// ReferenceNotInitializedError reports that the content behind uri could not
// be obtained, so its digest could not be checked at all.
func ReferenceNotInitializedError(uri string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeReferenceNotInitialized,
		Message: "could not dereference reference",
		URI:     uri,
		Cause:   cause,
	}
}

// TooManyReferencesError reports a manifest above the reference limit.
func TooManyReferencesError(count, max int) *AppError {
	return &AppError{
		Code:    ErrCodeTooManyReferences,
		Message: fmt.Sprintf("%d references exceed the maximum of %d", count, max),
	}
}

// TooManyTransformsError reports a reference above the transform limit.
func TooManyTransformsError(uri string, count, max int) *AppError {
	return &AppError{
		Code:    ErrCodeTooManyTransforms,
		Message: fmt.Sprintf("%d transforms exceed the maximum of %d", count, max),
		URI:     uri,
	}
}

// ManifestDepthError reports nested manifest verification above the budget.
func ManifestDepthError(message string) *AppError {
	return &AppError{Code: ErrCodeManifestDepthExceeded, Message: message}
}

// InvalidKeyError reports a key that cannot be used for the requested operation.
func InvalidKeyError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidKey, Message: message, Cause: cause}
}

// InvalidStateError reports an operation not permitted in the object's mode.
func InvalidStateError(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidState, Message: message}
}

// ResolverError reports a resolver failure for uri.
func ResolverError(uri string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeResolverFailed,
		Message: "resource resolution failed",
		URI:     uri,
		Cause:   cause,
	}
}
