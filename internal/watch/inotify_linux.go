//go:build linux

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pollTimeout bounds how long the reader blocks before rechecking for shutdown.
const pollTimeout = 100 // ms

// Event is a file that finished arriving in the watched directory.
type Event struct {
	Path string
	Size int64
	Time time.Time
}

// Inotify reports files closed after writing or moved into one directory.
type Inotify struct {
	fd int

	mu      sync.Mutex
	wd      int
	started bool
	closed  bool
	done    chan struct{}
}

// NewInotify opens an inotify instance.
func NewInotify() (*Inotify, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	return &Inotify{fd: fd, wd: -1, done: make(chan struct{})}, nil
}

// Watch starts delivering events for names in dir accepted by match. A nil
// match accepts everything. The channel closes when ctx ends or Close is called.
func (w *Inotify) Watch(ctx context.Context, dir string, match func(name string) bool) (<-chan Event, error) {
	wd, err := unix.InotifyAddWatch(w.fd, dir, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w.mu.Lock()
	w.wd = wd
	w.started = true
	w.mu.Unlock()

	events := make(chan Event, 100)
	go w.read(ctx, dir, match, events)
	return events, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Inotify) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	if !w.started {
		return unix.Close(w.fd)
	}
	return nil
}

func (w *Inotify) read(ctx context.Context, dir string, match func(string) bool, events chan<- Event) {
	defer close(events)
	defer w.release()

	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}

		n, err := unix.Poll(fds, pollTimeout)
		if err == unix.EINTR || n == 0 {
			continue
		}
		if err != nil {
			return
		}

		n, err = unix.Read(w.fd, buf)
		if err == unix.EAGAIN {
			continue
		}
		if err != nil || n < unix.SizeofInotifyEvent {
			continue
		}

		for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
			raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			nameStart := offset + unix.SizeofInotifyEvent
			offset = nameStart + int(raw.Len)
			if raw.Len == 0 || offset > n {
				continue
			}

			name := strings.TrimRight(string(buf[nameStart:offset]), "\x00")
			if match != nil && !match(name) {
				continue
			}
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}

			select {
			case events <- Event{Path: path, Size: info.Size(), Time: time.Now()}:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}
}

func (w *Inotify) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wd >= 0 {
		unix.InotifyRmWatch(w.fd, uint32(w.wd))
		w.wd = -1
	}
	unix.Close(w.fd)
}
