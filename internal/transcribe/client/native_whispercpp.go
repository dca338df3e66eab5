//go:build whispercpp

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// NativeAvailable reports whether the native whisper backend is compiled in.
func NativeAvailable() bool { return true }

// NativeClient runs whisper.cpp in-process through its Go bindings.
// Models are loaded on first use and kept per profile until Close.
type NativeClient struct {
	modelDir string

	mu     sync.Mutex
	models map[string]whisperlib.Model
}

// NewNativeClient creates a client that loads ggml models from modelDir.
func NewNativeClient(modelDir string) (*NativeClient, error) {
	if modelDir == "" {
		return nil, errors.New("model directory is required")
	}
	return &NativeClient{
		modelDir: modelDir,
		models:   make(map[string]whisperlib.Model),
	}, nil
}

// Transcribe decodes a WAV recording and runs it through the profile's model.
func (c *NativeClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error) {
	if opts.Model == "" {
		return nil, ErrModelRequired
	}

	samples, err := LoadSamples(audioPath, opts.MaxDuration)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := c.model(opts.Model)
	if err != nil {
		return nil, err
	}

	wctx, err := model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}
	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return &TranscriptionResult{
		Text:     strings.Join(parts, " "),
		Language: lang,
		Duration: float64(len(samples)) / SampleRate,
	}, nil
}

func (c *NativeClient) model(profile string) (whisperlib.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[profile]; ok {
		return m, nil
	}
	path := ModelPath(c.modelDir, profile)
	m, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", path, err)
	}
	c.models[profile] = m
	return m, nil
}

// Close releases every loaded model.
func (c *NativeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for profile, m := range c.models {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model %s: %w", profile, err))
		}
		delete(c.models, profile)
	}
	return errors.Join(errs...)
}
