package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Load and validate the configuration, then print it as TOML with defaults
applied and paths resolved. With --check the configured directories must also
exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if check {
				if err := cfg.VerifyPaths(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# loaded from %s\n", cfg.Path())
			if cfg.Legacy() {
				fmt.Fprintln(out, "# legacy layout upgraded; save this output to replace it")
			}
			return cfg.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "also verify that configured directories exist")
	return cmd
}
