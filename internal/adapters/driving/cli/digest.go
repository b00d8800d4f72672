package cli

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philiph/xmlsig/internal/adapters/driven/algorithm"
	"github.com/philiph/xmlsig/internal/core/domain"
)

type digestOptions struct {
	algorithm string
	hex       bool
}

type digestResult struct {
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
}

func newDigestCommand(a *App) *cobra.Command {
	var opts digestOptions

	cmd := &cobra.Command{
		Use:   "digest [OPTIONS] FILE",
		Short: "Print the digest of a file as it would appear in a DigestValue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(a, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.algorithm, "algorithm", "a", "SHA256", "Digest algorithm URI or name")
	flags.BoolVar(&opts.hex, "hex", false, "Print hex instead of base64")

	return cmd
}

func runDigest(a *App, opts digestOptions, file string) error {
	uri := domain.AlgorithmURI(opts.algorithm)
	if err := a.Settings().Validation.CheckAlgorithm(uri); err != nil {
		return err
	}
	alg, err := algorithm.NewRegistry().Digest(uri)
	if err != nil {
		return err
	}
	data, err := readInput(a.streams.In, file)
	if err != nil {
		return err
	}

	h := alg.New()
	h.Write(data)
	sum := h.Sum(nil)
	encoded := base64.StdEncoding.EncodeToString(sum)
	if opts.hex {
		encoded = hex.EncodeToString(sum)
	}

	if a.opts.json {
		enc := json.NewEncoder(a.streams.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(digestResult{Algorithm: uri, Digest: encoded})
	}
	_, err = fmt.Fprintln(a.streams.Out, encoded)
	return err
}
