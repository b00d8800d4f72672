// Package cli is the command-line driving adapter. It signs, verifies and
// digests documents with the signature engine.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philiph/xmlsig/internal/adapters/driven/config"
	"github.com/philiph/xmlsig/internal/core/domain"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitError   = 2
)

// errVerificationFailed is returned by verify when a signature or one of its
// references does not verify.
var errVerificationFailed = errors.New("verification failed")

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type globalOptions struct {
	configPath  string
	verbose     bool
	json        bool
	insecure    bool
	metricsFile string
}

// NewRootCommand returns the xmlsig command with its subcommands attached.
// Resources acquired while running are released by the returned app.
func NewRootCommand(streams Streams) (*cobra.Command, *App) {
	a := &App{streams: streams, opts: &globalOptions{}}

	cmd := &cobra.Command{
		Use:           "xmlsig",
		Short:         "Sign and verify XML signatures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Configuration file (YAML or JSON)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log at debug level")
	flags.BoolVar(&a.opts.json, "json", false, "Print results and errors as JSON")
	flags.BoolVar(&a.opts.insecure, "insecure", false, "Disable secure validation limits and algorithm policy")
	flags.StringVar(&a.opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")

	cmd.AddCommand(
		newSignCommand(a),
		newVerifyCommand(a),
		newDigestCommand(a),
	)
	return cmd, a
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	cmd, a := NewRootCommand(streams)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errVerificationFailed):
		return ExitInvalid
	default:
		a.printError(err)
		return ExitError
	}
}

// newLogger writes JSON logs to w, or console logs at debug level when
// verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	level := zapcore.WarnLevel
	if verbose {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}

// printError writes err to the error stream, as a JSON error response when
// --json is set.
func (a *App) printError(err error) {
	if !a.opts.json {
		fmt.Fprintf(a.streams.Err, "xmlsig: %v\n", err)
		return
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = &domain.AppError{Code: "error", Message: err.Error()}
	}
	enc := json.NewEncoder(a.streams.Err)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(domain.NewJSONErrorResponse(appErr)); encErr != nil {
		fmt.Fprintf(a.streams.Err, "xmlsig: %v\n", err)
	}
}

// settingsFor loads the configuration file, or the defaults without one.
func settingsFor(ctx context.Context, path string, logger *zap.Logger) (config.Settings, error) {
	if path == "" {
		return config.DefaultSettings(), nil
	}
	return config.Load(ctx, path, logger)
}
