package cli

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/adapters/driven/debug"
	"github.com/philiph/xmlsig/internal/adapters/driven/signature"
	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/xmldsig"
)

type verifyOptions struct {
	certFile        string
	hmacSecretFile  string
	followManifests bool
	output          string
	debugHTML       string
}

// signatureReport is the printed result of one ds:Signature.
type signatureReport struct {
	ID                  string                      `json:"id,omitempty"`
	SignatureMethod     string                      `json:"signature_method"`
	SignatureValueValid bool                        `json:"signature_value_valid"`
	Valid               bool                        `json:"valid"`
	References          []domain.VerificationReport `json:"references,omitempty"`
}

type verifyReport struct {
	Valid      bool              `json:"valid"`
	Signatures []signatureReport `json:"signatures"`
}

func newVerifyCommand(a *App) *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] FILE",
		Short: "Verify every signature in a document",
		Long: "Verify the signatures in FILE (or STDIN with '-') and print the verification " +
			"tree. The exit code is 1 when any signature or reference does not verify.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, a, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.certFile, "cert", "", "PEM file with one or more trusted certificates")
	flags.StringVar(&opts.hmacSecretFile, "hmac-secret", "", "File holding the raw HMAC secret")
	flags.BoolVar(&opts.followManifests, "follow-manifests", false, "Verify references of nested Manifests")
	flags.StringVarP(&opts.output, "output", "o", "",
		"Write the verified document content to a file; requires one enveloped reference over the document element")
	flags.StringVar(&opts.debugHTML, "debug-html", "", "Write an HTML page describing each dereferenced input")

	return cmd
}

func runVerify(cmd *cobra.Command, a *App, opts verifyOptions, file string) error {
	ctx := cmd.Context()

	certs, keys, err := loadVerificationKeys(opts)
	if err != nil {
		return err
	}
	engine, err := a.Engine(ctx)
	if err != nil {
		return err
	}
	data, err := readInput(a.streams.In, file)
	if err != nil {
		return err
	}

	if opts.output != "" {
		return verifyDocument(ctx, a, engine, certs, opts.output, data)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return domain.MalformedError("parse XML", err)
	}
	if doc.Root() == nil {
		return domain.MalformedError("document has no root element", nil)
	}
	elements := findSignatures(doc.Root(), nil)
	if len(elements) == 0 {
		return domain.MalformedError("no Signature element found", nil)
	}

	report := verifyReport{Valid: true}
	var parsed []*xmldsig.Signature
	for _, el := range elements {
		sig, err := engine.ParseSignature(el, baseURIFor(file))
		if err != nil {
			return err
		}
		sig.SetFollowNestedManifests(opts.followManifests || sig.FollowNestedManifests())
		r, err := checkSignature(ctx, sig, keys)
		if err != nil {
			return err
		}
		a.Logger().Debug("signature checked",
			zap.String("id", r.ID),
			zap.Bool("signature_value_valid", r.SignatureValueValid),
			zap.Bool("valid", r.Valid))
		report.Signatures = append(report.Signatures, r)
		report.Valid = report.Valid && r.Valid
		parsed = append(parsed, sig)
	}

	if opts.debugHTML != "" {
		if err := writeDebugPage(opts.debugHTML, file, parsed); err != nil {
			return err
		}
	}
	if err := a.printReport(report); err != nil {
		return err
	}
	if !report.Valid {
		return errVerificationFailed
	}
	return nil
}

// loadVerificationKeys returns the trusted certificates and every key to try,
// certificates first.
func loadVerificationKeys(opts verifyOptions) ([]*x509.Certificate, []any, error) {
	var certs []*x509.Certificate
	var keys []any
	if opts.certFile != "" {
		loaded, err := signature.LoadSigningCertificates(opts.certFile)
		if err != nil {
			return nil, nil, domain.InvalidKeyError("load certificates", err)
		}
		certs = loaded
		for _, c := range loaded {
			keys = append(keys, c)
		}
	}
	if opts.hmacSecretFile != "" {
		secret, err := os.ReadFile(opts.hmacSecretFile)
		if err != nil {
			return nil, nil, domain.InvalidKeyError("read HMAC secret", err)
		}
		keys = append(keys, secret)
	}
	if len(keys) == 0 {
		return nil, nil, domain.InvalidKeyError("no verification key: use --cert or --hmac-secret", nil)
	}
	return certs, keys, nil
}

// checkSignature tries each key until one verifies the SignatureValue. The
// references are only verified, and reported, once that has happened.
func checkSignature(ctx context.Context, sig *xmldsig.Signature, keys []any) (signatureReport, error) {
	r := signatureReport{
		ID:              sig.ID(),
		SignatureMethod: domain.AlgorithmName(sig.SignedInfo().SignatureMethod()),
	}
	for _, key := range keys {
		valid, err := sig.CheckSignatureValue(ctx, key)
		if errors.Is(err, domain.ErrInvalidKey) {
			continue
		}
		if err != nil {
			return r, err
		}
		results := sig.SignedInfo().VerificationResults()
		if valid || results != nil {
			r.SignatureValueValid = true
			r.Valid = valid
			r.References = domain.Report(results)
			break
		}
	}
	return r, nil
}

// verifyDocument checks a single enveloped signature over the document
// element and writes only the content it covers.
func verifyDocument(ctx context.Context, a *App, engine *xmldsig.Engine, certs []*x509.Certificate, output string, data []byte) error {
	if len(certs) == 0 {
		return domain.InvalidKeyError("--output requires --cert", nil)
	}
	verified, err := signature.NewXMLDsigVerifier(engine, certs, a.Logger()).Verify(ctx, data)
	if errors.Is(err, domain.ErrSignatureInvalid) {
		fmt.Fprintf(a.streams.Err, "xmlsig: %v\n", err)
		return errVerificationFailed
	}
	if err != nil {
		return err
	}
	return writeOutput(a.streams.Out, output, verified)
}

// findSignatures collects ds:Signature elements in document order without
// descending into a found signature.
func findSignatures(el *etree.Element, out []*etree.Element) []*etree.Element {
	if el.Tag == domain.TagSignature && el.NamespaceURI() == domain.NamespaceDSig {
		return append(out, el)
	}
	for _, child := range el.ChildElements() {
		out = findSignatures(child, out)
	}
	return out
}

func (a *App) printReport(report verifyReport) error {
	if a.opts.json {
		enc := json.NewEncoder(a.streams.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	for i, s := range report.Signatures {
		name := s.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		fmt.Fprintf(a.streams.Out, "Signature %s (%s): %s\n", name, s.SignatureMethod, verdict(s.Valid))
		if !s.SignatureValueValid {
			fmt.Fprintln(a.streams.Out, "  SignatureValue does not verify with any key")
			continue
		}
		printReferences(a.streams.Out, s.References, 1)
	}
	return nil
}

func printReferences(w io.Writer, refs []domain.VerificationReport, depth int) {
	for _, r := range refs {
		fmt.Fprintf(w, "%s[%s] %q\n", strings.Repeat("  ", depth), verdict(r.Valid), r.URI)
		printReferences(w, r.Manifests, depth+1)
	}
}

func verdict(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

// writeDebugPage renders the inputs of every verified reference.
func writeDebugPage(path, file string, sigs []*xmldsig.Signature) error {
	renderer, err := debug.NewRenderer()
	if err != nil {
		return err
	}
	page := debug.PageData{Title: "Signature inputs of " + file}
	for si, sig := range sigs {
		info := sig.SignedInfo()
		for i := 0; i < info.Len(); i++ {
			ref, err := info.Item(i)
			if err != nil {
				return err
			}
			uri, _ := ref.URI()
			label := fmt.Sprintf("Signature %d reference %d %q", si+1, i, uri)
			if in := ref.ContentsBeforeTransformation(); in != nil {
				page.Inputs = append(page.Inputs, debug.Describe(label+" before transforms", in))
			}
			if in := ref.ContentsAfterTransformation(); in != nil {
				page.Inputs = append(page.Inputs, debug.Describe(label+" after transforms", in))
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create debug page: %w", err)
	}
	if err := renderer.Render(f, page); err != nil {
		f.Close()
		return fmt.Errorf("render debug page: %w", err)
	}
	return f.Close()
}
