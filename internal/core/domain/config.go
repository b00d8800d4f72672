package domain

import (
	"fmt"
	"slices"
)

// Defaults for ValidationConfig.
const (
	DefaultMaxReferences      = 30
	DefaultMaxTransforms      = 5
	DefaultMaxManifestDepth   = 3
	DefaultMaxTotalReferences = 300
)

// ValidationConfig holds the tunables of signature processing. It is passed
// explicitly to the engine; nothing here is read from the environment.
//
// The reference, transform, depth and total-reference limits only apply when
// SecureValidation is set.
type ValidationConfig struct {
	SecureValidation bool `json:"secure_validation" yaml:"secure_validation"`

	// MaxReferences caps the references of a single Manifest or SignedInfo.
	MaxReferences int `json:"max_references" yaml:"max_references"`

	// MaxTransforms caps the transforms of a single Reference.
	MaxTransforms int `json:"max_transforms" yaml:"max_transforms"`

	// MaxManifestDepth caps how many nested Manifest levels are followed
	// below the SignedInfo.
	MaxManifestDepth int `json:"max_manifest_depth" yaml:"max_manifest_depth"`

	// MaxTotalReferences caps the references verified across one whole
	// verification tree, nested manifests included.
	MaxTotalReferences int `json:"max_total_references" yaml:"max_total_references"`

	// FollowNestedManifests makes signature verification descend into
	// references typed as Manifest.
	FollowNestedManifests bool `json:"follow_nested_manifests" yaml:"follow_nested_manifests"`

	// AddC14N11TransformIfNeeded appends a C14N 1.1 transform at signing
	// time when a reference's transform output is still a node-set.
	AddC14N11TransformIfNeeded bool `json:"add_c14n11_transform_if_needed" yaml:"add_c14n11_transform_if_needed"`

	// IDAttributes lists the attribute names treated as element IDs by the
	// same-document resolver, in lookup order.
	IDAttributes []string `json:"id_attributes" yaml:"id_attributes"`

	// DisallowedAlgorithms are rejected under secure validation, in addition
	// to the built-in MD5 family.
	DisallowedAlgorithms []string `json:"disallowed_algorithms" yaml:"disallowed_algorithms"`

	// Base64LineLength wraps DigestValue and SignatureValue text at the given
	// width. Zero disables wrapping.
	Base64LineLength int `json:"base64_line_length" yaml:"base64_line_length"`
}

// DefaultValidationConfig returns the secure defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		SecureValidation:   true,
		MaxReferences:      DefaultMaxReferences,
		MaxTransforms:      DefaultMaxTransforms,
		MaxManifestDepth:   DefaultMaxManifestDepth,
		MaxTotalReferences: DefaultMaxTotalReferences,
		IDAttributes:       []string{"Id", "ID", "id"},
	}
}

// Validate checks that the configured limits are usable.
func (c ValidationConfig) Validate() error {
	if c.MaxReferences <= 0 {
		return ConfigError(fmt.Sprintf("max_references must be positive, got %d", c.MaxReferences))
	}
	if c.MaxTransforms <= 0 {
		return ConfigError(fmt.Sprintf("max_transforms must be positive, got %d", c.MaxTransforms))
	}
	if c.MaxManifestDepth <= 0 {
		return ConfigError(fmt.Sprintf("max_manifest_depth must be positive, got %d", c.MaxManifestDepth))
	}
	if c.MaxTotalReferences < c.MaxReferences {
		return ConfigError(fmt.Sprintf("max_total_references (%d) must be at least max_references (%d)",
			c.MaxTotalReferences, c.MaxReferences))
	}
	if len(c.IDAttributes) == 0 {
		return ConfigError("id_attributes must not be empty")
	}
	if c.Base64LineLength < 0 || c.Base64LineLength%4 != 0 {
		return ConfigError(fmt.Sprintf("base64_line_length must be a non-negative multiple of 4, got %d", c.Base64LineLength))
	}
	return nil
}

// IsAlgorithmAllowed reports whether uri may be used under this config.
// Every algorithm is allowed when secure validation is off.
func (c ValidationConfig) IsAlgorithmAllowed(uri string) bool {
	if !c.SecureValidation {
		return true
	}
	return !slices.Contains(insecureAlgorithms, uri) && !slices.Contains(c.DisallowedAlgorithms, uri)
}

// CheckAlgorithm returns a DisallowedAlgorithmError when uri is not allowed.
func (c ValidationConfig) CheckAlgorithm(uri string) error {
	if !c.IsAlgorithmAllowed(uri) {
		return DisallowedAlgorithmError(uri)
	}
	return nil
}
