package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
)

// DefaultRetryCount is the default number of retry attempts.
const DefaultRetryCount = 3

// DefaultBaseDelay is the initial delay for exponential backoff.
const DefaultBaseDelay = 1 * time.Second

// RetryClient wraps a TranscriptionClient with retry logic and exponential backoff.
type RetryClient struct {
	client    TranscriptionClient
	maxRetry  int
	baseDelay time.Duration
	logger    logging.Logger
}

// RetryOption configures the RetryClient.
type RetryOption func(*RetryClient)

// WithRetryCount sets the maximum number of retry attempts.
func WithRetryCount(n int) RetryOption {
	return func(c *RetryClient) {
		if n >= 0 {
			c.maxRetry = n
		}
	}
}

// WithBaseDelay sets the initial delay for exponential backoff.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *RetryClient) {
		c.baseDelay = d
	}
}

// WithLogger sets the logger that records retry attempts.
func WithLogger(l logging.Logger) RetryOption {
	return func(c *RetryClient) {
		c.logger = l
	}
}

// NewRetryClient creates a new RetryClient wrapping the given TranscriptionClient.
func NewRetryClient(client TranscriptionClient, opts ...RetryOption) *RetryClient {
	c := &RetryClient{
		client:    client,
		maxRetry:  DefaultRetryCount,
		baseDelay: DefaultBaseDelay,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Transcribe retries on network failures and 5xx responses with delays of
// baseDelay, 2*baseDelay, 4*baseDelay... 4xx responses fail immediately.
func (c *RetryClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetry; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			c.logger.Warn("transcription failed, retrying",
				logging.Int("attempt", attempt),
				logging.Int("max", c.maxRetry),
				logging.Duration("delay", delay),
				logging.String("error", lastErr.Error()),
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := c.client.Transcribe(ctx, audioPath, opts)
		if err == nil {
			return result, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf("transcription failed after %d retries: %w", c.maxRetry, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
