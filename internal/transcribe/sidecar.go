package transcribe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
)

// ReadSidecar returns the cached transcript for a recording and profile.
// ok is false when no sidecar exists.
func ReadSidecar(path, profile string) (text string, ok bool, err error) {
	data, err := os.ReadFile(filename.SidecarPath(path, profile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read sidecar: %w", err)
	}
	return string(data), true, nil
}

// HasSidecar reports whether a sidecar exists for the recording and profile.
func HasSidecar(path, profile string) bool {
	_, err := os.Lstat(filename.SidecarPath(path, profile))
	return err == nil
}

// WriteSidecar stores text next to the recording. The file appears
// complete or not at all.
func WriteSidecar(path, profile, text string) (string, error) {
	dest := filename.SidecarPath(path, profile)

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp sidecar: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close sidecar: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod sidecar: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename sidecar: %w", err)
	}
	return dest, nil
}
