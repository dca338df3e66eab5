//go:build !unix

package runlock

import (
	"errors"
	"fmt"
	"os"
)

// Without flock the lock is the file's existence. A lock left by a process
// that no longer exists is taken over.
func lockFile(path string) (*os.File, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if held, _, _ := heldAt(path); held {
			return nil, ErrLocked
		}
		os.Remove(path)
	}
	return nil, ErrLocked
}

func unlockFile(path string, f *os.File) error {
	err := f.Close()
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return rmErr
	}
	return err
}

// Held reports whether a live process holds dir's lock, and its PID.
func Held(dir string) (bool, int, error) {
	return heldAt(Path(dir))
}

func heldAt(path string) (bool, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil || pid <= 0 {
		// being written right now
		return true, 0, nil
	}
	if _, err := os.FindProcess(pid); err != nil {
		return false, pid, nil
	}
	return true, pid, nil
}
