// Package runlock keeps two runs from working on the same recordings
// directory at once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the lock file created inside the recordings directory.
const FileName = ".alchemize.lock"

var (
	// ErrLocked is returned when another process holds the lock.
	ErrLocked = errors.New("another alchemize run is in progress")
	// ErrInvalidPID is returned when the lock file does not hold a PID.
	ErrInvalidPID = errors.New("invalid PID in lock file")
)

// Lock is a held run lock.
type Lock struct {
	path string
	f    *os.File
}

// Path returns the lock file path for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire takes the lock for dir without blocking and records the current
// PID in it. It returns ErrLocked when another process holds it.
func Acquire(dir string) (*Lock, error) {
	path := Path(dir)
	f, err := lockFile(path)
	if err != nil {
		return nil, err
	}

	if err := f.Truncate(0); err != nil {
		unlockFile(path, f)
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		unlockFile(path, f)
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{path: path, f: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release gives up the lock. It is safe to call on a nil Lock and more than once.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.path, l.f)
	l.f = nil
	return err
}

// ReadPID returns the PID recorded in dir's lock file.
func ReadPID(dir string) (int, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}
