// Package transcribe adapts a transcription backend to the two requests the
// pipeline makes: a recording's lead words and its full transcript.
package transcribe

import (
	"context"
	"strings"
	"time"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe/client"
)

// LeadWordsWindow is how much of a recording is decoded to find its lead words.
const LeadWordsWindow = 30 * time.Second

// Transcriber issues lead-word and full-transcript requests to a client.
type Transcriber struct {
	client       client.TranscriptionClient
	language     string
	wordsProfile string
	logger       logging.Logger
}

// New creates a Transcriber. wordsProfile is the model profile used for
// lead-word requests.
func New(c client.TranscriptionClient, language, wordsProfile string, logger logging.Logger) *Transcriber {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Transcriber{
		client:       c,
		language:     language,
		wordsProfile: wordsProfile,
		logger:       logger,
	}
}

// LeadWords decodes the start of a recording and returns up to max words.
func (t *Transcriber) LeadWords(ctx context.Context, path string, max int) ([]string, error) {
	start := time.Now()
	result, err := t.client.Transcribe(ctx, path, client.TranscribeOptions{
		Language:    t.language,
		Model:       t.wordsProfile,
		MaxDuration: LeadWordsWindow,
	})
	if err != nil {
		return nil, err
	}
	t.checkLanguage(path, result)
	words := ExtractLeadWords(result.Text, max)
	t.logger.Debug("lead words",
		logging.String("file", path),
		logging.Int("count", len(words)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return words, nil
}

// Transcribe returns the full transcript of a recording using profile.
func (t *Transcriber) Transcribe(ctx context.Context, path, profile string) (string, error) {
	result, err := t.Result(ctx, path, profile)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Result transcribes a whole recording using profile and returns the
// backend's result, including the detected language and duration.
func (t *Transcriber) Result(ctx context.Context, path, profile string) (*client.TranscriptionResult, error) {
	start := time.Now()
	result, err := t.client.Transcribe(ctx, path, client.TranscribeOptions{
		Language: t.language,
		Model:    profile,
	})
	if err != nil {
		return nil, err
	}
	t.checkLanguage(path, result)
	t.logger.Debug("transcribed",
		logging.String("file", path),
		logging.String("profile", profile),
		logging.Int("chars", len(result.Text)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// checkLanguage warns when the backend detected a language other than the
// one requested. Auto-detection requests never warn.
func (t *Transcriber) checkLanguage(path string, result *client.TranscriptionResult) {
	requested := t.language
	if result.Language == "" || requested == "" || strings.EqualFold(requested, "auto") {
		return
	}
	if strings.EqualFold(result.Language, requested) {
		return
	}
	t.logger.Warn("detected language differs",
		logging.String("file", path),
		logging.String("detected", result.Language),
		logging.String("requested", requested),
	)
}
