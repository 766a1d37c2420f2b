package cli

import (
	"fmt"
	"io"

	"piview/internal/supervisor/config"

	"github.com/spf13/cobra"
)

type validateOptions struct {
	writeDefaults bool
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a kiosk config file",
		Long: `Parse and validate a kiosk config file the same way the supervisor does.

Without a file argument the config is resolved like the supervisor:
~/.piview/config.json, then /etc/piview/config.json.

With --write-defaults the file is rewritten with every missing key filled
in from the documented defaults.

Examples:
  kiosk-status validate /etc/piview/config.json
  kiosk-status validate --write-defaults ./config.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd.OutOrStdout(), path, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.writeDefaults, "write-defaults", false, "rewrite the file with defaults filled in")
	return cmd
}

func runValidate(w io.Writer, explicit string, opts *validateOptions) error {
	path, err := config.FindKioskConfig(explicit)
	if err != nil {
		return err
	}
	cfg, err := config.LoadKioskConfig(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: ok\n", path)
	fmt.Fprintf(w, "  url: %s\n", cfg.URL)
	fmt.Fprintf(w, "  browser: %s\n", cfg.Browser)
	fmt.Fprintf(w, "  health endpoint port: %d\n", cfg.HealthEndpointPort)
	fmt.Fprintf(w, "  watchdog: %t, auto reboot: %t, network failover: %t\n",
		cfg.WatchdogEnabled, cfg.AutoRebootEnabled, cfg.NetworkFailoverEnabled)

	if opts.writeDefaults {
		if err = config.SaveKioskConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote defaults to %s\n", path)
	}
	return nil
}
