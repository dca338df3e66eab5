// Package config holds the typed alchemize configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
)

// Default values for optional configuration fields
const (
	DefaultPendingRenameDir = "intake"
	DefaultPendingSortDir   = "staging"
	DefaultUnsupportedDir   = "unsupported"
	DefaultMaxWords         = 4
	DefaultLanguage         = "en"
	DefaultModelMode        = "base"
	DefaultTranscribeLimit  = 100
	DefaultIntakeTag        = "inbox"
	DefaultBackend          = BackendExec
	DefaultRetryCount       = 3
	DefaultTimeoutSeconds   = 300
	MaxMaxWords             = 20
)

// Transcription backends
const (
	BackendExec   = "exec"
	BackendHTTP   = "http"
	BackendNative = "native"
)

// DefaultExtensions are the recording formats picked up when none are configured.
var DefaultExtensions = []string{"mp3", "wav"}

// Config is the whole configuration file.
type Config struct {
	App         App         `toml:"app" yaml:"app"`
	Transcriber Transcriber `toml:"transcriber" yaml:"transcriber"`
	Sorting     Sorting     `toml:"sorting" yaml:"sorting"`
	Journal     Journal     `toml:"journal" yaml:"journal"`

	// path is the file the configuration was loaded from.
	path string
	// legacy is set when the file used the original scripts' layout.
	legacy bool
}

// App configures the directories and the rename and transcribe phases.
type App struct {
	ModelDir              string   `toml:"model_dir" yaml:"model_dir"`
	RecordingsDir         string   `toml:"recordings_dir" yaml:"recordings_dir"`
	PendingRenameDir      string   `toml:"pending_rename_dir" yaml:"pending_rename_dir"`
	PendingSortDir        string   `toml:"pending_sort_dir" yaml:"pending_sort_dir"`
	PendingTranscribeDirs []string `toml:"pending_transcribe_dirs" yaml:"pending_transcribe_dirs"`
	ConvertibleExtensions []string `toml:"convertible_extensions" yaml:"convertible_extensions"`
	MoveUnsupported       bool     `toml:"move_unsupported" yaml:"move_unsupported"`
	UnsupportedDir        string   `toml:"unsupported_dir" yaml:"unsupported_dir"`
	Verbose               bool     `toml:"verbose" yaml:"verbose"`
	MaxWords              int      `toml:"max_words" yaml:"max_words"`
	Language              string   `toml:"language" yaml:"language"`
	DisableTranscribe     bool     `toml:"disable_transcribe" yaml:"disable_transcribe"`
	// TranscribeLimit caps transcriptions per run; 0 means DefaultTranscribeLimit.
	TranscribeLimit     int    `toml:"transcribe_limit" yaml:"transcribe_limit"`
	TranscribeModelMode string `toml:"transcribe_model_mode" yaml:"transcribe_model_mode"`
	WordsModelMode      string `toml:"words_model_mode" yaml:"words_model_mode"`
	LogDir              string `toml:"log_dir" yaml:"log_dir"`
}

// Transcriber selects and tunes the transcription backend.
type Transcriber struct {
	Backend        string `toml:"backend" yaml:"backend"`
	APIURL         string `toml:"api_url" yaml:"api_url"`
	ExecPath       string `toml:"exec_path" yaml:"exec_path"`
	Threads        int    `toml:"threads" yaml:"threads"`
	RetryCount     int    `toml:"retry_count" yaml:"retry_count"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Sorting holds the plain-folder routing rules.
type Sorting struct {
	Enable      bool         `toml:"enable" yaml:"enable"`
	AllowSuffix bool         `toml:"allow_suffix" yaml:"allow_suffix"`
	Folders     []FolderRule `toml:"folder" yaml:"folder"`
}

// FolderRule sends matching recordings to Dir.
type FolderRule struct {
	Name     string   `toml:"name" yaml:"name"`
	Keywords []string `toml:"keywords" yaml:"keywords"`
	Dir      string   `toml:"dir" yaml:"dir"`
}

// Journal holds the journal routing rules.
type Journal struct {
	Enable    bool   `toml:"enable" yaml:"enable"`
	Dir       string `toml:"dir" yaml:"dir"`
	IntakeTag string `toml:"intake_tag" yaml:"intake_tag"`
	ModelMode string `toml:"model_mode" yaml:"model_mode"`
	// MaxTranscriptionLen drops longer transcripts; 0 is unlimited.
	MaxTranscriptionLen int       `toml:"max_transcription_len" yaml:"max_transcription_len"`
	Tags                []TagRule `toml:"tag" yaml:"tag"`
}

// TagRule files matching recordings into the journal under TagStr.
type TagRule struct {
	Name       string   `toml:"name" yaml:"name"`
	Keywords   []string `toml:"keywords" yaml:"keywords"`
	TagStr     string   `toml:"tag_str" yaml:"tag_str"`
	Transcribe bool     `toml:"transcribe" yaml:"transcribe"`
}

// Validation errors
var (
	ErrRecordingsDirRequired = errors.New("app.recordings_dir is required")
	ErrModelDirRequired      = errors.New("app.model_dir is required when transcription is enabled")
	ErrExtensionsRequired    = errors.New("app.convertible_extensions must list at least one extension")
	ErrMaxWordsRange         = fmt.Errorf("app.max_words must be between 1 and %d", MaxMaxWords)
	ErrTranscribeLimit       = errors.New("app.transcribe_limit must not be negative")
	ErrUnknownBackend        = errors.New("transcriber.backend must be one of exec, http, native")
	ErrAPIURLRequired        = errors.New("transcriber.api_url is required for the http backend")
	ErrJournalDirRequired    = errors.New("journal.dir is required when the journal is enabled")
	ErrInvalidRule           = errors.New("invalid routing rule")
	ErrDirectoryMissing      = errors.New("directory does not exist")
)

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Legacy reports whether the file was written in the original scripts'
// layout ([logseq], consumer_dir, named rule tables) and upgraded on load.
func (c *Config) Legacy() bool {
	return c.legacy
}

// Default returns a configuration rooted at recordingsDir with every
// optional field filled in.
func Default(recordingsDir string) *Config {
	cfg := &Config{App: App{RecordingsDir: recordingsDir}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for optional fields that are empty or zero.
func (c *Config) ApplyDefaults() {
	a := &c.App
	if a.PendingRenameDir == "" {
		a.PendingRenameDir = DefaultPendingRenameDir
	}
	if a.PendingSortDir == "" {
		a.PendingSortDir = DefaultPendingSortDir
	}
	if a.UnsupportedDir == "" {
		a.UnsupportedDir = DefaultUnsupportedDir
	}
	if len(a.ConvertibleExtensions) == 0 {
		a.ConvertibleExtensions = append([]string(nil), DefaultExtensions...)
	}
	if a.MaxWords == 0 {
		a.MaxWords = DefaultMaxWords
	}
	if a.Language == "" {
		a.Language = DefaultLanguage
	}
	if a.TranscribeModelMode == "" {
		a.TranscribeModelMode = DefaultModelMode
	}
	if a.WordsModelMode == "" {
		a.WordsModelMode = a.TranscribeModelMode
	}

	t := &c.Transcriber
	if t.Backend == "" {
		t.Backend = DefaultBackend
	}
	if t.RetryCount == 0 {
		t.RetryCount = DefaultRetryCount
	}
	if t.TimeoutSeconds == 0 {
		t.TimeoutSeconds = DefaultTimeoutSeconds
	}

	j := &c.Journal
	if j.IntakeTag == "" {
		j.IntakeTag = DefaultIntakeTag
	}
	if j.ModelMode == "" {
		j.ModelMode = a.TranscribeModelMode
	}
}

// Resolve expands ~ in every path and resolves relative pipeline
// directories against recordings_dir.
func (c *Config) Resolve() {
	a := &c.App
	a.RecordingsDir = expandTilde(a.RecordingsDir)
	a.ModelDir = expandTilde(a.ModelDir)
	a.LogDir = expandTilde(a.LogDir)
	a.PendingRenameDir = c.underRecordings(a.PendingRenameDir)
	a.PendingSortDir = c.underRecordings(a.PendingSortDir)
	a.UnsupportedDir = c.underRecordings(a.UnsupportedDir)
	for i, dir := range a.PendingTranscribeDirs {
		a.PendingTranscribeDirs[i] = c.underRecordings(dir)
	}

	c.Transcriber.ExecPath = expandTilde(c.Transcriber.ExecPath)
	for i := range c.Sorting.Folders {
		c.Sorting.Folders[i].Dir = expandTilde(c.Sorting.Folders[i].Dir)
	}
	c.Journal.Dir = expandTilde(c.Journal.Dir)
}

func (c *Config) underRecordings(dir string) string {
	dir = expandTilde(dir)
	if dir == "" || filepath.IsAbs(dir) || c.App.RecordingsDir == "" {
		return dir
	}
	return filepath.Join(c.App.RecordingsDir, dir)
}

// Validate checks the configuration for structural problems and returns
// all of them joined.
func (c *Config) Validate() error {
	var errs []error
	a := c.App

	if a.RecordingsDir == "" {
		errs = append(errs, ErrRecordingsDirRequired)
	}
	if len(filename.NormalizeExtensions(a.ConvertibleExtensions)) == 0 {
		errs = append(errs, ErrExtensionsRequired)
	}
	if a.MaxWords < 1 || a.MaxWords > MaxMaxWords {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrMaxWordsRange, a.MaxWords))
	}
	if a.TranscribeLimit < 0 {
		errs = append(errs, ErrTranscribeLimit)
	}

	switch c.Transcriber.Backend {
	case BackendExec, BackendNative:
		if a.ModelDir == "" && !a.DisableTranscribe {
			errs = append(errs, ErrModelDirRequired)
		}
	case BackendHTTP:
		if c.Transcriber.APIURL == "" && !a.DisableTranscribe {
			errs = append(errs, ErrAPIURLRequired)
		}
	default:
		errs = append(errs, fmt.Errorf("%w, got %q", ErrUnknownBackend, c.Transcriber.Backend))
	}

	if c.Sorting.Enable {
		for i, r := range c.Sorting.Folders {
			prefix := fmt.Sprintf("sorting.folder[%d]", i)
			if r.Dir == "" {
				errs = append(errs, fmt.Errorf("%w: %s.dir is required", ErrInvalidRule, prefix))
			}
			errs = append(errs, validateKeywords(prefix, r.Keywords)...)
		}
	}

	if c.Journal.Enable {
		if c.Journal.Dir == "" {
			errs = append(errs, ErrJournalDirRequired)
		}
		if c.Journal.MaxTranscriptionLen < 0 {
			errs = append(errs, fmt.Errorf("journal.max_transcription_len must not be negative, got %d", c.Journal.MaxTranscriptionLen))
		}
		for i, r := range c.Journal.Tags {
			errs = append(errs, validateKeywords(fmt.Sprintf("journal.tag[%d]", i), r.Keywords)...)
		}
	}

	return errors.Join(errs...)
}

func validateKeywords(prefix string, keywords []string) []error {
	if len(keywords) == 0 {
		return []error{fmt.Errorf("%w: %s.keywords must not be empty", ErrInvalidRule, prefix)}
	}
	var errs []error
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, fmt.Errorf("%w: %s.keywords[%d] is blank", ErrInvalidRule, prefix, i))
		}
	}
	return errs
}

// VerifyPaths checks that every directory the pipeline reads from or
// writes to at startup exists. Folder rule destinations are checked per
// file during sorting instead.
func (c *Config) VerifyPaths() error {
	dirs := []struct{ key, path string }{
		{"app.recordings_dir", c.App.RecordingsDir},
		{"app.pending_rename_dir", c.App.PendingRenameDir},
		{"app.pending_sort_dir", c.App.PendingSortDir},
	}
	if c.App.MoveUnsupported {
		dirs = append(dirs, struct{ key, path string }{"app.unsupported_dir", c.App.UnsupportedDir})
	}
	if !c.App.DisableTranscribe && c.Transcriber.Backend != BackendHTTP {
		dirs = append(dirs, struct{ key, path string }{"app.model_dir", c.App.ModelDir})
	}
	if c.Journal.Enable {
		dirs = append(dirs, struct{ key, path string }{"journal.dir", c.Journal.Dir})
	}

	var errs []error
	for _, d := range dirs {
		info, err := os.Stat(d.path)
		if err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("%s %q: %w", d.key, d.path, ErrDirectoryMissing))
		}
	}
	return errors.Join(errs...)
}

// TranscriptionLimit returns the effective per-run transcription budget.
func (c *Config) TranscriptionLimit() int {
	if c.App.TranscribeLimit == 0 {
		return DefaultTranscribeLimit
	}
	return c.App.TranscribeLimit
}

// expandTilde expands ~ at the beginning of a path to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
