package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Swind/go-turn-loop/internal/scenario"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	runOpts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "demo [name]",
		Short: "Run a built-in scenario",
		Long: `Run one of the scenarios embedded in the binary. Without a name the
event_loop scenario runs: a small Node.js-style event loop with synchronous
tasks, timers, promise reactions and nextTick callbacks.

Available: ` + strings.Join(scenario.BuiltinNames(), ", "),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			name := "event_loop"
			if len(args) == 1 {
				name = args[0]
			}
			sc, err := scenario.Builtin(name)
			if err != nil {
				return loadFailed(formatter, name, err)
			}
			return runScenario(cmd.Context(), formatter, rootOpts, runOpts, sc)
		},
	}
	addRunFlags(cmd, runOpts)

	return cmd
}
