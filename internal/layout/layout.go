// Package layout scaffolds a recordings tree, a journal root and a starter
// configuration.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/journal"
)

// Directory names under the root.
const (
	RecordingsDir = "recordings"
	ModelsDir     = "models"
	JournalDir    = "journal"
	ConfigDir     = "config"
	ConfigFile    = "config.toml"
)

// ErrRootRequired is returned when Init is called without a root.
var ErrRootRequired = errors.New("layout root cannot be empty")

// Result reports what Init created.
type Result struct {
	Root           string
	ConfigPath     string
	ConfigWritten  bool
	FoldersCreated []string
}

// Init creates the directory layout under root and writes a starter config
// unless one already exists. Existing directories and files are left alone.
func Init(root string) (*Result, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	cfg := Config(abs)
	res := &Result{Root: abs, ConfigPath: ConfigPath(abs)}

	dirs := []string{
		cfg.App.RecordingsDir,
		filepath.Join(cfg.App.RecordingsDir, cfg.App.PendingRenameDir),
		filepath.Join(cfg.App.RecordingsDir, cfg.App.PendingSortDir),
		filepath.Join(cfg.App.RecordingsDir, cfg.App.UnsupportedDir),
		cfg.App.ModelDir,
		filepath.Join(abs, ConfigDir),
	}
	for _, dir := range dirs {
		created, err := mkdir(dir)
		if err != nil {
			return nil, err
		}
		if created {
			res.FoldersCreated = append(res.FoldersCreated, rel(abs, dir))
		}
	}

	journalExisted := exists(cfg.Journal.Dir)
	if _, err := journal.New(cfg.Journal.Dir); err != nil {
		return nil, err
	}
	if !journalExisted {
		res.FoldersCreated = append(res.FoldersCreated, JournalDir)
	}

	res.ConfigWritten, err = cfg.WriteFile(res.ConfigPath)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Config returns the starter configuration for a layout rooted at root.
// Pipeline directories stay relative to recordings_dir.
func Config(root string) *config.Config {
	cfg := config.Default(filepath.Join(root, RecordingsDir))
	cfg.App.ModelDir = filepath.Join(root, ModelsDir)
	cfg.Journal.Dir = filepath.Join(root, JournalDir)
	return cfg
}

func mkdir(dir string) (bool, error) {
	if exists(dir) {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("create %s: %w", dir, err)
	}
	return true, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
