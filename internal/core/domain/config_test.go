//go:build unit

package domain

import (
	"errors"
	"testing"
)

func TestValidationConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ValidationConfig)
		wantErr bool
	}{
		{"defaults", func(*ValidationConfig) {}, false},
		{"zero references", func(c *ValidationConfig) { c.MaxReferences = 0 }, true},
		{"zero transforms", func(c *ValidationConfig) { c.MaxTransforms = 0 }, true},
		{"zero depth", func(c *ValidationConfig) { c.MaxManifestDepth = 0 }, true},
		{"total below per-manifest", func(c *ValidationConfig) { c.MaxTotalReferences = c.MaxReferences - 1 }, true},
		{"no id attributes", func(c *ValidationConfig) { c.IDAttributes = nil }, true},
		{"line length not multiple of 4", func(c *ValidationConfig) { c.Base64LineLength = 75 }, true},
		{"line length 76", func(c *ValidationConfig) { c.Base64LineLength = 76 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultValidationConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("error = %v, want config_invalid", err)
			}
		})
	}
}

func TestValidationConfig_AlgorithmPolicy(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.DisallowedAlgorithms = []string{SignatureRSASHA1}

	for _, uri := range []string{DigestMD5, SignatureRSAMD5, SignatureHMACMD5, SignatureRSASHA1} {
		if cfg.IsAlgorithmAllowed(uri) {
			t.Errorf("%s allowed under secure validation", AlgorithmName(uri))
		}
		if err := cfg.CheckAlgorithm(uri); !errors.Is(err, ErrDisallowedAlgorithm) {
			t.Errorf("CheckAlgorithm(%s) = %v", AlgorithmName(uri), err)
		}
	}
	if !cfg.IsAlgorithmAllowed(SignatureRSASHA256) {
		t.Error("RSA-SHA256 rejected")
	}

	cfg.SecureValidation = false
	if !cfg.IsAlgorithmAllowed(DigestMD5) || !cfg.IsAlgorithmAllowed(SignatureRSASHA1) {
		t.Error("insecure config still rejects algorithms")
	}
}

func TestAlgorithmName(t *testing.T) {
	if got := AlgorithmName(SignatureECDSASHA384); got != "ECDSA-SHA384" {
		t.Errorf("AlgorithmName = %q", got)
	}
	if got := AlgorithmName("urn:unknown"); got != "urn:unknown" {
		t.Errorf("unknown URI = %q", got)
	}
	if !IsCanonicalizationMethod(C14N11WithComments) || IsCanonicalizationMethod(TransformBase64) {
		t.Error("IsCanonicalizationMethod misclassified")
	}
}

func TestAlgorithmURI(t *testing.T) {
	tests := map[string]string{
		"SHA256":         DigestSHA256,
		"rsa-sha256":     SignatureRSASHA256,
		"Ed25519":        SignatureEd25519,
		"EXC-C14N":       ExclusiveC14N10,
		DigestSHA3_512:   DigestSHA3_512,
		"urn:not-a-name": "urn:not-a-name",
	}
	for name, want := range tests {
		if got := AlgorithmURI(name); got != want {
			t.Errorf("AlgorithmURI(%q) = %q, want %q", name, got, want)
		}
	}
}
