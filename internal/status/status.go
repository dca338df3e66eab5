// Package status summarises a day's alchemize log.
package status

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Run is one finished run as recorded by its summary line.
type Run struct {
	ID          string
	Finished    time.Time
	Interrupted bool
	Counts      map[string]int
	Elapsed     string
}

// Stats holds what a log file says about the day's runs.
type Stats struct {
	Runs      int
	Warnings  int
	Errors    int
	LastRun   *Run
	LastError *Entry
}

// Entry is one parsed log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Fields    map[string]string
}

// Format: 2026-06-15T14:30:00Z INFO  [pipeline] run complete renamed=1 elapsed=1.5s run=ab12cd34
var (
	linePattern  = regexp.MustCompile(`^(\S+)\s+(DEBUG|INFO|WARN|ERROR)\s+(?:\[([^\]]+)\]\s+)?(.*)$`)
	fieldPattern = regexp.MustCompile(`(?:^|\s)([A-Za-z_][\w.]*)=("(?:[^"\\]|\\.)*"|\S*)`)
)

// LogPath returns the log file for the given day.
func LogPath(logDir, prefix string, day time.Time) string {
	return filepath.Join(logDir, prefix+"-"+day.UTC().Format("2006-01-02")+".log")
}

// ParseLine splits a log line into its parts. ok is false for lines that
// are not in the logger's format.
func ParseLine(line string) (Entry, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, m[1])
	if err != nil {
		return Entry{}, false
	}

	body := m[4]
	e := Entry{Time: ts, Level: m[2], Component: m[3], Fields: map[string]string{}}
	matches := fieldPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		e.Message = strings.TrimSpace(body)
		return e, true
	}
	e.Message = strings.TrimSpace(body[:matches[0][0]])
	for _, idx := range matches {
		key := body[idx[2]:idx[3]]
		e.Fields[key] = unquoteIfNeeded(body[idx[4]:idx[5]])
	}
	return e, true
}

// ParseLogFile reads a log file. A missing file yields empty stats.
func ParseLogFile(path string) (*Stats, error) {
	stats := &Stats{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		e, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}

		switch e.Level {
		case "WARN":
			stats.Warnings++
		case "ERROR":
			stats.Errors++
			entry := e
			stats.LastError = &entry
		}

		if e.Message == "run complete" || e.Message == "run interrupted" {
			stats.Runs++
			stats.LastRun = runFrom(e)
		}
	}

	return stats, scanner.Err()
}

var summaryKeys = []string{"renamed", "unsupported", "transcribed", "sorted", "journaled", "deferred", "skipped", "failed"}

// SummaryKeys lists the per-run counters in display order.
func SummaryKeys() []string {
	return append([]string(nil), summaryKeys...)
}

func runFrom(e Entry) *Run {
	r := &Run{
		ID:          e.Fields["run"],
		Finished:    e.Time,
		Interrupted: e.Message == "run interrupted",
		Counts:      make(map[string]int, len(summaryKeys)),
		Elapsed:     e.Fields["elapsed"],
	}
	for _, k := range summaryKeys {
		if n, err := strconv.Atoi(e.Fields[k]); err == nil {
			r.Counts[k] = n
		}
	}
	return r
}

func unquoteIfNeeded(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// FormatTimestamp formats a timestamp for display in local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
