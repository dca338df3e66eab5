//go:build linux

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/pipeline"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/runlock"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	opts := pipeline.DefaultWatchOptions()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline whenever recordings arrive",
		Long: `Watch the intake directory and run the pipeline each time a recording
finishes arriving.

Pending recordings are processed once at start-up. Each triggered run is a
full, independent run with its own transcription budget. The run lock is held
for as long as the watch lasts. Stop with Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.VerifyPaths(); err != nil {
				return err
			}

			lock, err := runlock.Acquire(cfg.App.RecordingsDir)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.App.RecordingsDir, err)
			}
			defer lock.Release()

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			p, closeBackend, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching: %s\n", cfg.App.PendingRenameDir)
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			if _, err := p.Run(ctx, nil); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			return p.Watch(ctx, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "settle-interval", opts.Interval, "time between size checks of a new recording")
	cmd.Flags().IntVar(&opts.Checks, "settle-checks", opts.Checks, "unchanged size checks before a recording counts as complete")
	cmd.Flags().DurationVar(&opts.Timeout, "settle-timeout", opts.Timeout, "give up waiting for a recording to settle after this long")
	return cmd
}
