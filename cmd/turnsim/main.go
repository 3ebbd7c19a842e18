// Command turnsim replays scheduling scenarios on a deterministic turn-based
// scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Swind/go-turn-loop/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "turnsim:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
