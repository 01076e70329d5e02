// Command tabled compiles Datalog programs and answers queries over them
// with three-valued semantics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/tabled/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	code := cli.ExitCommandError
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	// failed queries and scenarios were already reported on stdout
	if code != cli.ExitFailure {
		fmt.Fprintln(os.Stderr, "tabled:", err)
	}
	stop()
	os.Exit(code)
}
