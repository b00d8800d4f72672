package domain

// VerifiedReference is the outcome of checking one reference during a single
// verification pass. It is immutable once built.
type VerifiedReference struct {
	valid    bool
	uri      string
	manifest []VerifiedReference
}

// NewVerifiedReference records the digest check of uri together with the
// results of the nested manifest it pointed to, if any.
func NewVerifiedReference(valid bool, uri string, manifest []VerifiedReference) VerifiedReference {
	return VerifiedReference{
		valid:    valid,
		uri:      uri,
		manifest: append([]VerifiedReference(nil), manifest...),
	}
}

// Valid reports whether the reference's own digest matched.
func (v VerifiedReference) Valid() bool { return v.valid }

// URI returns the reference URI.
func (v VerifiedReference) URI() string { return v.uri }

// ManifestReferences returns the results of the nested manifest, or nil when
// the reference was not followed.
func (v VerifiedReference) ManifestReferences() []VerifiedReference {
	return append([]VerifiedReference(nil), v.manifest...)
}

// AllValid reports whether this reference and every nested result are valid.
func (v VerifiedReference) AllValid() bool {
	if !v.valid {
		return false
	}
	return AllValid(v.manifest)
}

// AllValid reports whether every result in the tree rooted at results is valid.
func AllValid(results []VerifiedReference) bool {
	for _, r := range results {
		if !r.AllValid() {
			return false
		}
	}
	return true
}

// FailedReference locates a failing reference inside a verification tree.
// Depth 0 is the list passed to FailedReferences.
type FailedReference struct {
	URI   string `json:"uri"`
	Depth int    `json:"depth"`
	Path  []int  `json:"path"`
}

// FailedReferences walks the tree in order and lists every failing leaf and
// inner reference with its nesting depth.
func FailedReferences(results []VerifiedReference) []FailedReference {
	var out []FailedReference
	collectFailures(results, nil, &out)
	return out
}

func collectFailures(results []VerifiedReference, path []int, out *[]FailedReference) {
	for i, r := range results {
		p := append(append([]int(nil), path...), i)
		if !r.valid {
			*out = append(*out, FailedReference{URI: r.uri, Depth: len(path), Path: p})
		}
		collectFailures(r.manifest, p, out)
	}
}

// VerificationReport is a serializable view of a verification tree.
type VerificationReport struct {
	URI       string               `json:"uri"`
	Valid     bool                 `json:"valid"`
	Manifests []VerificationReport `json:"manifest,omitempty"`
}

// Report converts results into their serializable form.
func Report(results []VerifiedReference) []VerificationReport {
	if len(results) == 0 {
		return nil
	}
	out := make([]VerificationReport, len(results))
	for i, r := range results {
		out[i] = VerificationReport{URI: r.uri, Valid: r.valid, Manifests: Report(r.manifest)}
	}
	return out
}
