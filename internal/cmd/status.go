package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/runlock"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/status"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarise the day's runs",
		Long: `Show whether a run currently holds the recordings directory and summarise
the day's log: number of runs, the last run's counts, warnings and errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC()
			if day != "" {
				d, err := time.Parse("2006-01-02", day)
				if err != nil {
					return fmt.Errorf("invalid --day %q: %w", day, err)
				}
				date = d
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logDir := cfg.App.LogDir
			if logDir == "" {
				logDir = logging.DefaultLogDir()
			}

			out := cmd.OutOrStdout()
			held, pid, err := runlock.Held(cfg.App.RecordingsDir)
			switch {
			case err != nil:
				fmt.Fprintf(out, "Run lock:    unknown (%v)\n", err)
			case held && pid > 0:
				fmt.Fprintf(out, "Run lock:    held (PID %d)\n", pid)
			case held:
				fmt.Fprintln(out, "Run lock:    held")
			default:
				fmt.Fprintln(out, "Run lock:    free")
			}

			logPath := status.LogPath(logDir, logging.DefaultPrefix, date)
			stats, err := status.ParseLogFile(logPath)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			printStats(out, logPath, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "day to summarise, YYYY-MM-DD in UTC (default today)")
	return cmd
}

func printStats(out io.Writer, logPath string, stats *status.Stats) {
	fmt.Fprintf(out, "Log:         %s\n", logPath)
	fmt.Fprintf(out, "Runs:        %d\n", stats.Runs)
	fmt.Fprintf(out, "Warnings:    %d\n", stats.Warnings)
	fmt.Fprintf(out, "Errors:      %d\n", stats.Errors)

	if r := stats.LastRun; r != nil {
		state := "complete"
		if r.Interrupted {
			state = "interrupted"
		}
		fmt.Fprintf(out, "Last run:    %s %s (%s, %s)\n", r.ID, status.FormatTimestamp(r.Finished), state, r.Elapsed)
		for _, k := range status.SummaryKeys() {
			if n := r.Counts[k]; n > 0 {
				fmt.Fprintf(out, "  %-12s %d\n", k+":", n)
			}
		}
	}
	if e := stats.LastError; e != nil {
		fmt.Fprintf(out, "Last error:  %s %s", status.FormatTimestamp(e.Time), e.Message)
		if msg := e.Fields["error"]; msg != "" {
			fmt.Fprintf(out, ": %s", msg)
		}
		fmt.Fprintln(out)
	}
}
