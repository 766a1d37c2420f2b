package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned by status --check when the kiosk is Failing or
// Rebooting.
var ErrUnhealthy = errors.New("kiosk unhealthy")

// NewRootCommand builds the kiosk-status command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kiosk-status",
		Short: "Inspect and validate a piview kiosk",
		Long: `Operator tool for a piview kiosk.

Reads the supervisor health snapshot from the local snapshot file or the
health endpoint, and validates kiosk config files before they are deployed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStatusCommand())
	root.AddCommand(newValidateCommand())
	return root
}

// Execute runs the root command and exits with 1 on any error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		if !errors.Is(err, ErrUnhealthy) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
