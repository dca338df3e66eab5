package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe"
)

// Output formats accepted by transcribe --output.
const (
	OutputText  = "text"
	OutputWords = "words"
	OutputJSON  = "json"
)

var (
	// ErrInvalidOutput is returned for an unknown --output format.
	ErrInvalidOutput = errors.New("--output must be text, words or json")
	// ErrInvalidWords is returned when --words is out of range.
	ErrInvalidWords = fmt.Errorf("--words must be between 1 and %d", config.MaxMaxWords)
)

// transcriptOutput is the JSON form of a single transcription.
type transcriptOutput struct {
	File     string  `json:"file"`
	Model    string  `json:"model"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// NewTranscribeCmd creates the transcribe command
func NewTranscribeCmd() *cobra.Command {
	var (
		output     string
		words      int
		model      string
		wordsModel string
		language   string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a single recording and print the result",
		Long: `Transcribe one recording with the configured backend and print it.

--output text prints the full transcript, words prints the recording's lead
words as the renamer would see them, and json prints the transcript with the
detected language and duration. Nothing is renamed, moved or written next to
the recording.

A warning is logged when the backend detects a language other than the one
requested.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output = strings.ToLower(output)
			switch output {
			case OutputText, OutputWords, OutputJSON:
			default:
				return fmt.Errorf("%w (got %q)", ErrInvalidOutput, output)
			}
			if cmd.Flags().Changed("words") && (words < 1 || words > config.MaxMaxWords) {
				return ErrInvalidWords
			}

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s: is a directory", path)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("words") {
				words = cfg.App.MaxWords
			}
			if !cmd.Flags().Changed("model") {
				model = cfg.App.TranscribeModelMode
			}
			if !cmd.Flags().Changed("words-model") {
				wordsModel = cfg.App.WordsModelMode
			}
			if cmd.Flags().Changed("lang") {
				cfg.App.Language = language
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			c, closeBackend, err := clientFactory(cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tr := transcribe.New(c, cfg.App.Language, wordsModel, logger)
			out := cmd.OutOrStdout()

			if output == OutputWords {
				lead, err := tr.LeadWords(ctx, path, words)
				if err != nil {
					return fmt.Errorf("transcribe %s: %w", path, err)
				}
				fmt.Fprintln(out, strings.Join(lead, " "))
				return nil
			}

			result, err := tr.Result(ctx, path, model)
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", path, err)
			}
			if output == OutputText {
				fmt.Fprintln(out, strings.TrimSpace(result.Text))
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(transcriptOutput{
				File:     path,
				Model:    model,
				Language: result.Language,
				Duration: result.Duration,
				Text:     strings.TrimSpace(result.Text),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "output format: text, words or json")
	cmd.Flags().IntVarP(&words, "words", "w", 0, "lead words to print with --output words (default max_words)")
	cmd.Flags().StringVar(&model, "model", "", "model profile for the full transcript (default transcribe_model_mode)")
	cmd.Flags().StringVar(&wordsModel, "words-model", "", "model profile for lead words (default words_model_mode)")
	cmd.Flags().StringVar(&language, "lang", "", "language to request, or auto (default language)")
	return cmd
}
