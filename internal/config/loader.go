package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "ALCHEMIZE_CONFIG"

// ErrNotFound is returned when no configuration file exists in any of the
// search locations.
var ErrNotFound = errors.New("no configuration file found")

// ErrUnknownFormat is returned for config files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown configuration format")

// Format is the serialisation of a configuration file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// SearchPaths returns the candidate config locations in priority order.
// explicit, when set, is the only candidate.
func SearchPaths(explicit string) []string {
	if explicit != "" {
		return []string{expandTilde(explicit)}
	}

	var paths []string
	if env := os.Getenv(EnvVar); env != "" {
		paths = append(paths, expandTilde(env))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "whispering-alchemy")
		paths = append(paths, filepath.Join(dir, "config.toml"), filepath.Join(dir, "config.yaml"))
	}
	return append(paths,
		filepath.Join("config", "config.toml"),
		filepath.Join("config", "config.yaml"),
		filepath.Join("scripts", "config.toml"),
	)
}

// Find returns the first existing config file. An explicit path that does
// not exist is reported as ErrNotFound with the path attached.
func Find(explicit string) (string, error) {
	paths := SearchPaths(explicit)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNotFound, strings.Join(paths, ", "))
}

// Discover finds and loads the configuration.
func Discover(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load reads, defaults, resolves and validates the file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromReader decodes a configuration from r. Unknown keys are errors.
// TOML written for the original scripts is upgraded first; see Legacy.
func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatTOML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read TOML: %w", err)
		}
		data, cfg.legacy, err = upgradeLegacyTOML(data)
		if err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("decode TOML: unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, ErrUnknownFormat
	}

	cfg.ApplyDefaults()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode TOML: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes the configuration to path unless the file already
// exists. It reports whether a file was written.
func (c *Config) WriteFile(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.Encode(f); err != nil {
		f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	return true, nil
}
