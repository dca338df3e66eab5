package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/pipeline"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/runlock"
)

// ErrInvalidLimit is returned when --limit is not positive.
var ErrInvalidLimit = errors.New("--limit must be at least 1")

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		phaseNames []string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename, transcribe and sort pending recordings once",
		Long: `Run the pipeline once over the recordings directories.

Device-named recordings in the intake directory are renamed from their lead
words and moved to staging, recordings without a transcript are transcribed,
and named recordings in staging are routed to folders or the journal.

At most transcribe_limit transcriptions are made per run; anything left over
waits for the next run. Only one run may use a recordings directory at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phases, err := parsePhases(phaseNames)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				if limit < 1 {
					return ErrInvalidLimit
				}
				cfg.App.TranscribeLimit = limit
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runOnce(ctx, cmd, cfg, phases)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&phaseNames, "phase", "p", nil, "phase to run: rename, transcribe or sort (repeatable; default all)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum transcriptions for this run (default transcribe_limit)")
	return cmd
}

func parsePhases(names []string) ([]pipeline.Phase, error) {
	phases := make([]pipeline.Phase, 0, len(names))
	for _, name := range names {
		p, err := pipeline.ParsePhase(name)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, nil
}

// runOnce holds the run lock for the recordings directory while the
// pipeline runs.
func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, phases []pipeline.Phase) (pipeline.Summary, error) {
	if err := cfg.VerifyPaths(); err != nil {
		return pipeline.Summary{}, err
	}

	lock, err := runlock.Acquire(cfg.App.RecordingsDir)
	if errors.Is(err, runlock.ErrLocked) {
		if pid, pidErr := runlock.ReadPID(cfg.App.RecordingsDir); pidErr == nil {
			return pipeline.Summary{}, fmt.Errorf("%s: %w (pid %d)", cfg.App.RecordingsDir, err, pid)
		}
		return pipeline.Summary{}, fmt.Errorf("%s: %w", cfg.App.RecordingsDir, err)
	}
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer lock.Release()

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer logger.Close()

	p, closeBackend, err := newPipeline(cfg, logger)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer closeBackend()

	summary, err := p.Run(ctx, phases)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted; remaining files wait for the next run")
		return summary, nil
	}
	return summary, err
}

func printSummary(out io.Writer, s pipeline.Summary) {
	fmt.Fprintf(out, "Renamed:     %d\n", s.Renamed)
	fmt.Fprintf(out, "Unsupported: %d\n", s.Unsupported)
	fmt.Fprintf(out, "Transcribed: %d\n", s.Transcribed)
	fmt.Fprintf(out, "Sorted:      %d\n", s.Sorted)
	fmt.Fprintf(out, "Journaled:   %d\n", s.Journaled)
	fmt.Fprintf(out, "Deferred:    %d\n", s.Deferred)
	fmt.Fprintf(out, "Skipped:     %d\n", s.Skipped)
	fmt.Fprintf(out, "Failed:      %d\n", s.Failed)
}
