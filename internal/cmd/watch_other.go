//go:build !linux

package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrWatchUnsupported is returned by watch on platforms without inotify.
var ErrWatchUnsupported = errors.New("watch is only supported on linux; schedule `alchemize run` instead")

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline whenever recordings arrive (linux only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ErrWatchUnsupported
		},
	}
}
