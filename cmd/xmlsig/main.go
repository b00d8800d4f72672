// Command xmlsig signs and verifies XML signatures.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/philiph/xmlsig/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], cli.StdStreams())
	stop()
	os.Exit(code)
}
