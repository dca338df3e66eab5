package layout

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoLayout is returned when no ancestor directory holds config/config.toml.
var ErrNoLayout = errors.New("not inside an alchemize layout")

// IsRoot reports whether dir holds a layout's config file.
func IsRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ConfigDir, ConfigFile))
	return err == nil && !info.IsDir()
}

// ConfigPath returns the config file of the layout rooted at root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigDir, ConfigFile)
}

// FindRoot walks up from start looking for config/config.toml and returns
// the first directory that has one.
func FindRoot(start string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if IsRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoLayout
		}
		current = parent
	}
}
