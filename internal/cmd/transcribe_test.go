package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe/client"
)

type fakeClient struct {
	result client.TranscriptionResult
	err    error
	got    []client.TranscribeOptions
	closed bool
}

func (f *fakeClient) Transcribe(ctx context.Context, audioPath string, opts client.TranscribeOptions) (*client.TranscriptionResult, error) {
	f.got = append(f.got, opts)
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

// useClient makes every command in the test use fc as its backend.
func useClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	prev := clientFactory
	clientFactory = func(*config.Config, logging.Logger) (client.TranscriptionClient, func() error, error) {
		return fc, func() error { fc.closed = true; return nil }, nil
	}
	t.Cleanup(func() { clientFactory = prev })
}

func TestTranscribeCmd_Text(t *testing.T) {
	fc := &fakeClient{result: client.TranscriptionResult{Text: " Buy milk and eggs ", Language: "en", Duration: 3}}
	useClient(t, fc)
	l := newTestLayout(t, "transcribe_model_mode = 'small'\n")
	rec := filepath.Join(l.intake, "240615_0930.mp3")
	writeFile(t, rec, "audio")

	out, stderr, err := execute(t, "transcribe", rec, "--config", l.config)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if out != "Buy milk and eggs\n" {
		t.Errorf("stdout = %q", out)
	}
	if strings.Contains(stderr, "detected language differs") {
		t.Errorf("unexpected language warning: %q", stderr)
	}
	if len(fc.got) != 1 || fc.got[0].Model != "small" || fc.got[0].MaxDuration != 0 || fc.got[0].Language != "en" {
		t.Errorf("unexpected request: %+v", fc.got)
	}
	if !fc.closed {
		t.Error("backend was not released")
	}
}

func TestTranscribeCmd_Words(t *testing.T) {
	fc := &fakeClient{result: client.TranscriptionResult{Text: "Call mum, about Sunday lunch", Language: "en"}}
	useClient(t, fc)
	l := newTestLayout(t, "")
	rec := filepath.Join(l.intake, "240615_0930.mp3")
	writeFile(t, rec, "audio")

	out, _, err := execute(t, "transcribe", rec, "--config", l.config, "--output", "words", "--words", "2", "--words-model", "tiny")
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if out != "Call mum\n" {
		t.Errorf("stdout = %q", out)
	}
	if len(fc.got) != 1 || fc.got[0].Model != "tiny" || fc.got[0].MaxDuration != transcribe.LeadWordsWindow {
		t.Errorf("unexpected request: %+v", fc.got)
	}
}

func TestTranscribeCmd_JSON(t *testing.T) {
	fc := &fakeClient{result: client.TranscriptionResult{Text: "hallo welt", Language: "de", Duration: 1.5}}
	useClient(t, fc)
	l := newTestLayout(t, "")
	rec := filepath.Join(l.intake, "240615_0930.mp3")
	writeFile(t, rec, "audio")

	out, _, err := execute(t, "transcribe", rec, "--config", l.config, "-o", "json", "--lang", "de", "--model", "medium")
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}

	var got transcriptOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := transcriptOutput{File: rec, Model: "medium", Language: "de", Duration: 1.5, Text: "hallo welt"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if fc.got[0].Language != "de" {
		t.Errorf("requested language = %q, want de", fc.got[0].Language)
	}
}

func TestTranscribeCmd_WarnsOnLanguageMismatch(t *testing.T) {
	fc := &fakeClient{result: client.TranscriptionResult{Text: "bonjour tout le monde", Language: "fr"}}
	useClient(t, fc)
	l := newTestLayout(t, "language = 'en'\n")
	rec := filepath.Join(l.intake, "240615_0930.mp3")
	writeFile(t, rec, "audio")

	out, stderr, err := execute(t, "transcribe", rec, "--config", l.config)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if out != "bonjour tout le monde\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(stderr, "WARN") || !strings.Contains(stderr, "detected language differs") {
		t.Fatalf("expected language warning on stderr, got %q", stderr)
	}
	if !strings.Contains(stderr, "detected=fr") || !strings.Contains(stderr, "requested=en") {
		t.Errorf("warning missing languages: %q", stderr)
	}

	// auto-detection never warns
	_, stderr, err = execute(t, "transcribe", rec, "--config", l.config, "--lang", "auto")
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if strings.Contains(stderr, "detected language differs") {
		t.Errorf("unexpected warning with --lang auto: %q", stderr)
	}
}

func TestTranscribeCmd_Errors(t *testing.T) {
	fc := &fakeClient{err: errors.New("backend down")}
	useClient(t, fc)
	l := newTestLayout(t, "")
	rec := filepath.Join(l.intake, "240615_0930.mp3")
	writeFile(t, rec, "audio")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		want    string
	}{
		{"bad output", []string{rec, "--output", "xml"}, ErrInvalidOutput, ""},
		{"zero words", []string{rec, "-o", "words", "--words", "0"}, ErrInvalidWords, ""},
		{"too many words", []string{rec, "-o", "words", "--words", "21"}, ErrInvalidWords, ""},
		{"missing file", []string{filepath.Join(l.intake, "nope.mp3")}, nil, "nope.mp3"},
		{"directory", []string{l.intake}, nil, "is a directory"},
		{"backend error", []string{rec}, nil, "backend down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"transcribe"}, tt.args...)
			args = append(args, "--config", l.config)
			_, _, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
