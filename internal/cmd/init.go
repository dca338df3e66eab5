package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/layout"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a recordings layout and starter configuration",
		Long: `Create the recordings directories (intake, staging, unsupported), a models
directory, a journal root and config/config.toml under dir (default: the
current directory). Existing folders and an existing config are left alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			result, err := layout.Init(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.FoldersCreated) > 0 {
				fmt.Fprintf(out, "Created folders: %v\n", result.FoldersCreated)
			} else {
				fmt.Fprintln(out, "All folders already exist")
			}
			if result.ConfigWritten {
				fmt.Fprintf(out, "Wrote %s\n", result.ConfigPath)
			} else {
				fmt.Fprintf(out, "Kept existing %s\n", result.ConfigPath)
			}
			return nil
		},
	}
}
