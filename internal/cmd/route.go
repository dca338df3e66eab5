package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/journal"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/pipeline"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/router"
)

// ErrNotCanonical is returned by route for names outside the canonical grammar.
var ErrNotCanonical = errors.New("not a canonical recording name")

// NewRouteCmd creates the route command
func NewRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <filename>",
		Short: "Show where a named recording would be sorted",
		Long: `Parse a canonical recording name (YYYY-MM-DD_HHMM_Words.ext) and print
the rule it matches, or that it stays in staging. Nothing is moved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			grammar, err := filename.NewGrammar(cfg.App.ConvertibleExtensions)
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			c, ok := grammar.ParseCanonical(name)
			if !ok {
				return fmt.Errorf("%s: %w", name, ErrNotCanonical)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Words: %s\n", strings.Join(c.Words, " "))

			rule, ok := pipeline.Table(cfg).Route(c.Words)
			if !ok {
				fmt.Fprintln(out, "No rule matched; the recording stays in staging")
				return nil
			}

			fmt.Fprintf(out, "Rule:  %s (%s)\n", rule.Name, rule.Destination.Kind)
			for _, kw := range rule.Keywords {
				if router.Match(c.Words, kw) {
					fmt.Fprintf(out, "Match: %q\n", kw)
					break
				}
			}
			switch rule.Destination.Kind {
			case router.KindFolder:
				fmt.Fprintf(out, "To:    %s\n", filepath.Join(rule.Destination.Dir, name))
			case router.KindJournal:
				fmt.Fprintf(out, "To:    %s", journal.DayPath(cfg.Journal.Dir, c.Year, c.Month, c.Day))
				if rule.Destination.Tag != "" {
					fmt.Fprintf(out, " tagged [[%s]]", rule.Destination.Tag)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
