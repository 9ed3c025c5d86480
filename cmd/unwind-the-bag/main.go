// unwind-the-bag - builds a secure-the-bag commitment tree and lists the
// coins that must be spent to unwind it down to one recipient.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colorfulnotion/securethebag/bagerrors"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const raceWarning = "WARNING: Lowest coin is spent. Somebody else might have unwrapped the bag."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	if err == nil {
		return
	}
	stop()
	if errors.Is(err, bagerrors.ErrRaceCondition) {
		// The warning has already been printed with the results.
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
