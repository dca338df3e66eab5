// Package watch notices recordings arriving in the intake directory and
// waits for them to finish copying.
package watch

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrStabilizationTimeout is returned when a file keeps changing past the timeout.
var ErrStabilizationTimeout = errors.New("file did not stop changing in time")

// Stabilizer waits until a file's size holds steady for Checks consecutive
// polls Interval apart.
type Stabilizer struct {
	Interval time.Duration
	Checks   int
	// Timeout bounds the wait when the context has no deadline; zero means none.
	Timeout time.Duration
}

// NewStabilizer creates a Stabilizer.
func NewStabilizer(interval time.Duration, checks int) *Stabilizer {
	return &Stabilizer{Interval: interval, Checks: checks}
}

// WaitForStable blocks until path stops growing.
func (s *Stabilizer) WaitForStable(ctx context.Context, path string) error {
	internal := false
	if _, ok := ctx.Deadline(); !ok && s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
		internal = true
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	last := int64(-1)
	for steady := 0; steady < s.Checks; {
		select {
		case <-ctx.Done():
			if internal && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrStabilizationTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last {
			steady++
		} else {
			steady = 0
			last = info.Size()
		}
	}
	return nil
}
