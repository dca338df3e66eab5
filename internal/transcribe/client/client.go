// Package client provides transcription client implementations.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TranscriptionClient turns an audio file into text.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error)
}

// TranscribeOptions configures the transcription request.
type TranscribeOptions struct {
	Language string
	// Model is the model profile, e.g. "base" or "large".
	Model string
	// MaxDuration limits how much of the recording is decoded; 0 decodes everything.
	MaxDuration time.Duration
}

// TranscriptionResult contains the decoded text.
type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
}

// ErrNativeUnavailable is returned when the binary was built without the
// whispercpp build tag.
var ErrNativeUnavailable = errors.New("native whisper backend not compiled in (build with -tags whispercpp)")

// APIError is a non-200 response from a transcription service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Body)
}
