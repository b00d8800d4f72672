package cli

import (
	"crypto/x509"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philiph/xmlsig/internal/adapters/driven/signature"
	"github.com/philiph/xmlsig/internal/core/domain"
)

type signOptions struct {
	keyFile         string
	certFile        string
	signatureMethod string
	digestMethod    string
	output          string
}

func newSignCommand(a *App) *cobra.Command {
	var opts signOptions

	cmd := &cobra.Command{
		Use:   "sign [OPTIONS] FILE",
		Short: "Add an enveloped signature over the document element",
		Long: "Sign FILE (or STDIN with '-') with an enveloped signature covering the " +
			"whole document and write the signed document to STDOUT or --output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, a, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.keyFile, "key", "k", "", "PEM private key (PKCS#8, PKCS#1 or SEC 1)")
	flags.StringVar(&opts.certFile, "cert", "", "PEM certificate to embed in KeyInfo")
	flags.StringVar(&opts.signatureMethod, "signature-method", "", "Signature algorithm URI or name (default depends on the key)")
	flags.StringVar(&opts.digestMethod, "digest-method", "SHA256", "Digest algorithm URI or name")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the signed document to a file")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runSign(cmd *cobra.Command, a *App, opts signOptions, file string) error {
	ctx := cmd.Context()

	key, err := signature.LoadPrivateKey(opts.keyFile)
	if err != nil {
		return domain.InvalidKeyError("load signing key", err)
	}
	var cert *x509.Certificate
	if opts.certFile != "" {
		certs, err := signature.LoadSigningCertificates(opts.certFile)
		if err != nil {
			return domain.InvalidKeyError("load certificate", err)
		}
		cert = certs[0]
	}

	engine, err := a.Engine(ctx)
	if err != nil {
		return err
	}
	signerOpts := []signature.SignerOption{
		signature.WithDigestMethod(domain.AlgorithmURI(opts.digestMethod)),
	}
	if opts.signatureMethod != "" {
		signerOpts = append(signerOpts, signature.WithSignatureMethod(domain.AlgorithmURI(opts.signatureMethod)))
	}
	signer, err := signature.NewXMLDsigSigner(engine, key, cert, signerOpts...)
	if err != nil {
		return err
	}

	data, err := readInput(a.streams.In, file)
	if err != nil {
		return err
	}
	signed, err := signer.Sign(ctx, data)
	if err != nil {
		return err
	}
	if err := writeOutput(a.streams.Out, opts.output, signed); err != nil {
		return err
	}

	a.Logger().Info("document signed",
		zap.String("input", file),
		zap.String("output", opts.output),
		zap.Int("bytes", len(signed)))
	return nil
}
