package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Swind/go-turn-loop/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Scenario string `json:"scenario"`
	Items    int    `json:"items"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("scenario %s is valid (%d items)", r.Scenario, r.Items)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario file without running it",
		Long: `Decode a YAML or JSON scenario strictly and check kinds, item names
and cancel references.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			sc, err := scenario.Load(args[0])
			if err != nil {
				return loadFailed(formatter, args[0], err)
			}
			formatter.VerboseLog("decoded %s", args[0])
			return formatter.Success(ValidationResult{Valid: true, Scenario: sc.Name, Items: countItems(sc.Items)})
		},
	}

	return cmd
}
