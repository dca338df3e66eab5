package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultExecPath is the whisper.cpp command line binary looked up on PATH.
const DefaultExecPath = "whisper-cli"

// waitDelay bounds how long a cancelled run may hold its output pipes open.
const waitDelay = 2 * time.Second

// ErrModelRequired is returned when a request names no model profile.
var ErrModelRequired = errors.New("model profile is required")

// ModelPath returns the ggml model file for a profile, {modelDir}/ggml-{profile}.bin.
func ModelPath(modelDir, profile string) string {
	return filepath.Join(modelDir, "ggml-"+profile+".bin")
}

// ExecClient transcribes by running the whisper.cpp command line tool.
type ExecClient struct {
	binary   string
	modelDir string
	threads  int
}

// ExecOption configures the ExecClient.
type ExecOption func(*ExecClient)

// WithExecPath overrides the binary that is run.
func WithExecPath(path string) ExecOption {
	return func(c *ExecClient) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithThreads sets the number of decoding threads; 0 uses the tool's default.
func WithThreads(n int) ExecOption {
	return func(c *ExecClient) {
		c.threads = n
	}
}

// NewExecClient creates a client that loads models from modelDir.
func NewExecClient(modelDir string, opts ...ExecOption) *ExecClient {
	c := &ExecClient{
		binary:   DefaultExecPath,
		modelDir: modelDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe runs the tool and returns its plain-text output.
func (c *ExecClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error) {
	if opts.Model == "" {
		return nil, ErrModelRequired
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, c.args(audioPath, opts)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(c.binary), err, lastLine(stderr.String()))
	}

	return &TranscriptionResult{
		Text:     strings.Join(strings.Fields(stdout.String()), " "),
		Language: opts.Language,
	}, nil
}

func (c *ExecClient) args(audioPath string, opts TranscribeOptions) []string {
	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", ModelPath(c.modelDir, opts.Model),
		"-f", audioPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress or system info
	}
	if opts.MaxDuration > 0 {
		args = append(args, "-d", strconv.FormatInt(opts.MaxDuration.Milliseconds(), 10))
	}
	if c.threads > 0 {
		args = append(args, "-t", strconv.Itoa(c.threads))
	}
	return args
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
