package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLayoutConfig(t *testing.T, root string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(ConfigPath(root), []byte("[app]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	writeLayoutConfig(t, root)

	tests := []struct {
		name  string
		start string
	}{
		{"at root", root},
		{"in subdirectory", filepath.Join(root, "recordings")},
		{"deeply nested", filepath.Join(root, "recordings", "a", "b", "c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.MkdirAll(tt.start, 0755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			got, err := FindRoot(tt.start)
			if err != nil {
				t.Fatalf("FindRoot() error = %v", err)
			}
			if got != root {
				t.Errorf("FindRoot() = %q, want %q", got, root)
			}
		})
	}
}

func TestFindRoot_NotInLayout(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	if !errors.Is(err, ErrNoLayout) {
		t.Errorf("FindRoot() error = %v, want ErrNoLayout", err)
	}
}

func TestIsRoot(t *testing.T) {
	root := t.TempDir()
	if IsRoot(root) {
		t.Error("empty directory reported as a layout root")
	}

	// a directory named config.toml is not a config file
	if err := os.MkdirAll(ConfigPath(root), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if IsRoot(root) {
		t.Error("config.toml directory reported as a layout root")
	}
}

func TestFindRoot_AfterInit(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	got, err := FindRoot(filepath.Join(root, RecordingsDir, "intake"))
	if err != nil {
		t.Fatalf("FindRoot() error = %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindRoot() = %q, want %q", got, want)
	}
}
