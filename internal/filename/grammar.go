// Package filename parses and formats the two recording filename dialects:
// the recorder-native capture name and the canonical renamed form.
package filename

import (
	"errors"
	"regexp"
	"strings"
)

// EmptyWords is the placeholder written when no lead words were recognised.
// It parses back to an empty word sequence, never to the word "empty".
const EmptyWords = "empty"

// ErrNoExtensions is returned when a grammar is built without any extension.
var ErrNoExtensions = errors.New("at least one file extension is required")

// DeviceName holds the fields of a recorder-native filename (YYMMDD_TTTT[_CC].EXT).
type DeviceName struct {
	Year  string // two digits, interpreted as 20YY
	Month string
	Day   string
	Time  string // four digits
	Ext   string // lower-case, no dot
}

// CanonicalName holds the fields of a renamed filename (YYYY-MM-DD[_TTTT]_WORDS.EXT).
type CanonicalName struct {
	Year  string // four digits
	Month string
	Day   string
	Time  string // four digits, empty when absent
	Words []string
	Ext   string // lower-case, no dot
}

// Canonical converts the device fields into a canonical name with the given lead words.
func (d DeviceName) Canonical(words []string) CanonicalName {
	return CanonicalName{
		Year:  "20" + d.Year,
		Month: d.Month,
		Day:   d.Day,
		Time:  d.Time,
		Words: words,
		Ext:   d.Ext,
	}
}

// String returns the canonical filename.
func (c CanonicalName) String() string {
	return FormatCanonical(c)
}

// Grammar matches filenames against a fixed set of allowed extensions.
type Grammar struct {
	exts      []string
	device    *regexp.Regexp
	canonical *regexp.Regexp
}

// NewGrammar compiles the device and canonical patterns for the given
// extensions. Leading dots are stripped and extensions are lower-cased.
func NewGrammar(extensions []string) (*Grammar, error) {
	exts := NormalizeExtensions(extensions)
	if len(exts) == 0 {
		return nil, ErrNoExtensions
	}

	quoted := make([]string, len(exts))
	for i, ext := range exts {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	extGroup := `((?i:` + strings.Join(quoted, "|") + `))`

	//                                yy      mm      dd       tttt      cc
	device := regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})_(\d{4})(?:_\d{2})?\.` + extGroup + `$`)
	canonical := regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:_(\d{4}))?_(.*)\.` + extGroup + `$`)

	return &Grammar{exts: exts, device: device, canonical: canonical}, nil
}

// NormalizeExtensions strips leading dots, lower-cases and drops blanks and duplicates.
func NormalizeExtensions(extensions []string) []string {
	seen := make(map[string]bool, len(extensions))
	var out []string
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// Extensions returns the normalised extension list.
func (g *Grammar) Extensions() []string {
	return append([]string(nil), g.exts...)
}

// Eligible reports whether name ends with one of the allowed extensions,
// ignoring case.
func (g *Grammar) Eligible(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range g.exts {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

// ParseDevice parses a recorder-native filename. The optional two-digit
// disambiguator is accepted and discarded.
func (g *Grammar) ParseDevice(name string) (DeviceName, bool) {
	m := g.device.FindStringSubmatch(name)
	if m == nil {
		return DeviceName{}, false
	}
	return DeviceName{
		Year:  m[1],
		Month: m[2],
		Day:   m[3],
		Time:  m[4],
		Ext:   strings.ToLower(m[5]),
	}, true
}

// ParseCanonical parses a renamed filename. The words segment is greedy up to
// the final extension and split on "-"; the EmptyWords placeholder yields nil.
func (g *Grammar) ParseCanonical(name string) (CanonicalName, bool) {
	m := g.canonical.FindStringSubmatch(name)
	if m == nil {
		return CanonicalName{}, false
	}
	return CanonicalName{
		Year:  m[1],
		Month: m[2],
		Day:   m[3],
		Time:  m[4],
		Words: splitWords(m[5]),
		Ext:   strings.ToLower(m[6]),
	}, true
}

// FormatCanonical renders c as YYYY-MM-DD[_TTTT]_WORDS.ext.
func FormatCanonical(c CanonicalName) string {
	var sb strings.Builder
	sb.WriteString(c.Year)
	sb.WriteString("-")
	sb.WriteString(c.Month)
	sb.WriteString("-")
	sb.WriteString(c.Day)
	if c.Time != "" {
		sb.WriteString("_")
		sb.WriteString(c.Time)
	}
	sb.WriteString("_")
	sb.WriteString(JoinWords(c.Words))
	sb.WriteString(".")
	sb.WriteString(strings.ToLower(c.Ext))
	return sb.String()
}

// JoinWords joins lead words with "-", substituting EmptyWords for an empty list.
func JoinWords(words []string) string {
	joined := strings.Join(words, "-")
	if joined == "" {
		return EmptyWords
	}
	return joined
}

func splitWords(s string) []string {
	if s == "" || s == EmptyWords {
		return nil
	}
	return strings.Split(s, "-")
}

// SidecarPath returns the transcript sidecar for a recording and model
// profile: {path}.{profile}.txt.
func SidecarPath(path, profile string) string {
	return path + "." + profile + ".txt"
}
