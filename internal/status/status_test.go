package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alchemize-test.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseLogFile_Empty(t *testing.T) {
	stats, err := ParseLogFile(writeLog(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Runs != 0 || stats.Errors != 0 || stats.LastRun != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestParseLogFile_NonExistent(t *testing.T) {
	stats, err := ParseLogFile("/nonexistent/alchemize.log")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Runs != 0 {
		t.Errorf("expected no runs, got %d", stats.Runs)
	}
}

func TestParseLogFile_Runs(t *testing.T) {
	content := `2026-06-15T10:00:00Z INFO  run started recordings_dir=/rec limit=100 run=aaaa1111
2026-06-15T10:00:02Z INFO  renamed file=240615_0930.mp3 to=2024-06-15_0930_buy-milk.mp3 phase=rename run=aaaa1111
2026-06-15T10:00:03Z WARN  destination directory missing, left in staging dir=/sorted/x file=a.mp3 rule=x phase=sort run=aaaa1111
2026-06-15T10:00:04Z INFO  run complete renamed=1 unsupported=0 transcribed=1 sorted=0 journaled=0 deferred=0 skipped=1 failed=0 transcriptions=2 elapsed=4s run=aaaa1111
2026-06-15T11:00:00Z ERROR transcription failed error="exit status 1: model not found" file=b.mp3 phase=transcribe run=bbbb2222
2026-06-15T11:00:01Z WARN  run interrupted renamed=0 unsupported=0 transcribed=0 sorted=2 journaled=1 deferred=3 skipped=0 failed=1 transcriptions=1 elapsed=1.5s run=bbbb2222
not a log line
`
	stats, err := ParseLogFile(writeLog(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Runs != 2 || stats.Warnings != 2 || stats.Errors != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	last := stats.LastRun
	if last == nil {
		t.Fatal("expected a last run")
	}
	if last.ID != "bbbb2222" || !last.Interrupted || last.Elapsed != "1.5s" {
		t.Errorf("unexpected last run: %+v", last)
	}
	if last.Counts["sorted"] != 2 || last.Counts["deferred"] != 3 || last.Counts["failed"] != 1 {
		t.Errorf("unexpected counts: %v", last.Counts)
	}
	want, _ := time.Parse(time.RFC3339, "2026-06-15T11:00:01Z")
	if !last.Finished.Equal(want) {
		t.Errorf("Finished = %v, want %v", last.Finished, want)
	}
	if stats.LastError == nil || stats.LastError.Fields["error"] != "exit status 1: model not found" {
		t.Errorf("unexpected last error: %+v", stats.LastError)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		ok        bool
		message   string
		component string
		fields    map[string]string
	}{
		{
			name:    "plain",
			line:    "2026-06-15T10:00:00Z INFO  watching intake dir=/rec/intake",
			ok:      true,
			message: "watching intake",
			fields:  map[string]string{"dir": "/rec/intake"},
		},
		{
			name:      "component and quoted value",
			line:      `2026-06-15T10:00:00Z ERROR [sort] cannot move asset error="permission denied" file=a.mp3`,
			ok:        true,
			message:   "cannot move asset",
			component: "sort",
			fields:    map[string]string{"error": "permission denied", "file": "a.mp3"},
		},
		{
			name:    "no fields",
			line:    "2026-06-15T10:00:00Z DEBUG hello world",
			ok:      true,
			message: "hello world",
			fields:  map[string]string{},
		},
		{
			name: "bad timestamp",
			line: "yesterday INFO  hello",
		},
		{
			name: "unknown level",
			line: "2026-06-15T10:00:00Z TRACE hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if e.Message != tt.message || e.Component != tt.component {
				t.Errorf("got message=%q component=%q", e.Message, e.Component)
			}
			if len(e.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", e.Fields, tt.fields)
			}
			for k, v := range tt.fields {
				if e.Fields[k] != v {
					t.Errorf("field %s = %q, want %q", k, e.Fields[k], v)
				}
			}
		})
	}
}

func TestUnquoteIfNeeded(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"quoted string"`, "quoted string"},
		{`"with \"escape\""`, `with "escape"`},
		{`unquoted`, "unquoted"},
		{`"partial`, `"partial`},
		{`""`, ""},
	}

	for _, tc := range tests {
		if got := unquoteIfNeeded(tc.input); got != tc.expected {
			t.Errorf("unquoteIfNeeded(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestLogPath(t *testing.T) {
	day := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	got := LogPath("/logs", "alchemize", day)
	if got != filepath.Join("/logs", "alchemize-2026-06-15.log") {
		t.Errorf("LogPath() = %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts, _ := time.Parse(time.RFC3339, "2026-06-15T14:30:00Z")
	if FormatTimestamp(ts) == "" {
		t.Error("expected non-empty timestamp")
	}
}
