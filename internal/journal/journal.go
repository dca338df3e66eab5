// Package journal appends voice-note entries to per-day markdown journals.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	journalsDir = "journals"
	assetsDir   = "assets/voicenotes"
)

// Entry is one voice note to append to the journal of its recording date.
type Entry struct {
	Year, Month, Day string
	// Tag is the rule's tag label; empty omits the tag reference.
	Tag string
	// IntakeTag is the fixed marker every entry carries, e.g. "inbox".
	IntakeTag string
	// Asset is the file name of the recording inside the asset directory.
	Asset string
	// Transcript is written as an indented sub-item when non-empty.
	Transcript string
}

// Writer appends entries under a journal root.
type Writer struct {
	root string
}

// New creates a Writer for root, creating the journals and asset
// directories when they do not exist.
func New(root string) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("journal root is required")
	}
	w := &Writer{root: root}
	for _, dir := range []string{w.JournalDir(), w.AssetDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	return w, nil
}

// Root returns the journal root directory.
func (w *Writer) Root() string {
	return w.root
}

// JournalDir returns {root}/journals.
func (w *Writer) JournalDir() string {
	return filepath.Join(w.root, journalsDir)
}

// AssetDir returns {root}/assets/voicenotes.
func (w *Writer) AssetDir() string {
	return filepath.Join(w.root, filepath.FromSlash(assetsDir))
}

// FileName returns the journal file name for a date, YYYY_MM_DD.md.
func FileName(year, month, day string) string {
	return fmt.Sprintf("%s_%s_%s.md", year, month, day)
}

// DayPath returns the journal file for a date under root.
func DayPath(root, year, month, day string) string {
	return filepath.Join(root, journalsDir, FileName(year, month, day))
}

// Path returns the journal file path for e's date.
func (w *Writer) Path(e Entry) string {
	return DayPath(w.root, e.Year, e.Month, e.Day)
}

// Append writes e to the end of its day's journal and returns the journal path.
// Existing content is never rewritten.
func (w *Writer) Append(e Entry) (string, error) {
	path := w.Path(e)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat journal: %w", err)
	}

	if _, err := f.WriteString(FormatBlock(e, info.Size() > 0)); err != nil {
		return "", fmt.Errorf("failed to append to journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close journal: %w", err)
	}
	return path, nil
}

// FormatBlock renders e. A block appended to a journal that already has
// content starts with an empty bullet so it reads as a separate item.
func FormatBlock(e Entry, hasContent bool) string {
	var sb strings.Builder
	if hasContent {
		sb.WriteString("\n-\n- ")
	} else {
		sb.WriteString("- ")
	}
	if e.Tag != "" {
		sb.WriteString("[[")
		sb.WriteString(e.Tag)
		sb.WriteString("]] ")
	}
	sb.WriteString("[[")
	sb.WriteString(e.IntakeTag)
	sb.WriteString("]]")
	sb.WriteString("\n    - ![voice recording](../")
	sb.WriteString(assetsDir)
	sb.WriteString("/")
	sb.WriteString(e.Asset)
	sb.WriteString(")")

	// A transcript is a single sub-item; line breaks would split the outline.
	if transcript := collapse(e.Transcript); transcript != "" {
		sb.WriteString(transcriptPrefix)
		sb.WriteString(transcript)
	}
	return sb.String()
}

// transcriptPrefix opens the sub-item that carries a transcript.
const transcriptPrefix = "\n    - "

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TranscriptLen is the length in runes of the sub-item FormatBlock writes
// for transcript, prefix included.
func TranscriptLen(transcript string) int {
	return utf8.RuneCountInString(transcriptPrefix + collapse(transcript))
}
