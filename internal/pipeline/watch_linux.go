//go:build linux

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/watch"
)

// WatchOptions tunes how long a new recording must hold still before a run.
type WatchOptions struct {
	Interval time.Duration
	Checks   int
	Timeout  time.Duration
}

// DefaultWatchOptions waits for three steady polls a second apart.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{Interval: time.Second, Checks: 3, Timeout: 10 * time.Minute}
}

// Watch runs the pipeline each time recordings land in the intake
// directory, until ctx ends. Runs never overlap; recordings that arrive
// while a run is in progress trigger one more run afterwards.
func (p *Pipeline) Watch(ctx context.Context, opts WatchOptions) error {
	w, err := watch.NewInotify()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := p.cfg.App.PendingRenameDir
	events, err := w.Watch(ctx, dir, p.grammar.Eligible)
	if err != nil {
		return err
	}

	stab := watch.NewStabilizer(opts.Interval, opts.Checks)
	stab.Timeout = opts.Timeout

	p.logger.Info("watching intake", logging.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pending := []watch.Event{ev}
			pending = append(pending, drain(events)...)

			for _, e := range pending {
				if err := stab.WaitForStable(ctx, e.Path); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					p.logger.Warn("recording did not settle, running anyway",
						logging.String("file", e.Path),
						logging.String("reason", err.Error()),
					)
				}
			}

			if _, err := p.Run(ctx, nil); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

// drain returns the events already queued without blocking.
func drain(events <-chan watch.Event) []watch.Event {
	var out []watch.Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
