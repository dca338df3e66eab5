package filename

import (
	"errors"
	"reflect"
	"testing"
)

func newTestGrammar(t *testing.T) *Grammar {
	t.Helper()
	g, err := NewGrammar([]string{".mp3", "WAV"})
	if err != nil {
		t.Fatalf("NewGrammar failed: %v", err)
	}
	return g
}

func TestNewGrammar_NoExtensions(t *testing.T) {
	_, err := NewGrammar([]string{"", " . "})
	if !errors.Is(err, ErrNoExtensions) {
		t.Errorf("expected ErrNoExtensions, got %v", err)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{".MP3", "wav", "mp3", "", " .m4a "})
	want := []string{"mp3", "wav", "m4a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeExtensions = %v, want %v", got, want)
	}
}

func TestParseDevice(t *testing.T) {
	g := newTestGrammar(t)

	tests := []struct {
		name  string
		input string
		want  DeviceName
		ok    bool
	}{
		{"plain", "240101_1200.mp3", DeviceName{"24", "01", "01", "1200", "mp3"}, true},
		{"disambiguator", "240615_0930_02.wav", DeviceName{"24", "06", "15", "0930", "wav"}, true},
		{"upper extension", "240615_0930.MP3", DeviceName{"24", "06", "15", "0930", "mp3"}, true},
		{"canonical form", "2024-01-01_1200.mp3", DeviceName{}, false},
		{"short time", "240101_120.mp3", DeviceName{}, false},
		{"three digit suffix", "240101_1200_123.mp3", DeviceName{}, false},
		{"unknown extension", "240101_1200.ogg", DeviceName{}, false},
		{"leading text", "x240101_1200.mp3", DeviceName{}, false},
		{"trailing text", "240101_1200.mp3.bak", DeviceName{}, false},
		{"sidecar", "240101_1200.mp3.base.txt", DeviceName{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.ParseDevice(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDevice(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseDevice(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeviceName_Canonical(t *testing.T) {
	g := newTestGrammar(t)

	d, ok := g.ParseDevice("240615_0930.MP3")
	if !ok {
		t.Fatal("expected device name to parse")
	}

	got := FormatCanonical(d.Canonical([]string{"buy", "milk"}))
	if got != "2024-06-15_0930_buy-milk.mp3" {
		t.Errorf("unexpected canonical name: %s", got)
	}

	got = FormatCanonical(d.Canonical(nil))
	if got != "2024-06-15_0930_empty.mp3" {
		t.Errorf("unexpected canonical name for no words: %s", got)
	}
}

func TestParseCanonical(t *testing.T) {
	g := newTestGrammar(t)

	tests := []struct {
		name  string
		input string
		want  CanonicalName
		ok    bool
	}{
		{
			name:  "with time",
			input: "2024-06-15_0930_buy-milk.mp3",
			want:  CanonicalName{"2024", "06", "15", "0930", []string{"buy", "milk"}, "mp3"},
			ok:    true,
		},
		{
			name:  "without time",
			input: "2024-06-15_call-mum.WAV",
			want:  CanonicalName{"2024", "06", "15", "", []string{"call", "mum"}, "wav"},
			ok:    true,
		},
		{
			name:  "empty placeholder",
			input: "2024-06-15_0930_empty.mp3",
			want:  CanonicalName{"2024", "06", "15", "0930", nil, "mp3"},
			ok:    true,
		},
		{
			name:  "greedy words keep dots",
			input: "2024-06-15_0930_v1.2-notes.mp3",
			want:  CanonicalName{"2024", "06", "15", "0930", []string{"v1.2", "notes"}, "mp3"},
			ok:    true,
		},
		{
			name:  "collision suffix stays in words",
			input: "2024-06-15_0930_todo_1.mp3",
			want:  CanonicalName{"2024", "06", "15", "0930", []string{"todo_1"}, "mp3"},
			ok:    true,
		},
		{
			name:  "device form",
			input: "240615_0930.mp3",
			ok:    false,
		},
		{
			name:  "missing words",
			input: "2024-06-15.mp3",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.ParseCanonical(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseCanonical(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCanonical(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonical_RoundTrip(t *testing.T) {
	g := newTestGrammar(t)

	names := []CanonicalName{
		{"2024", "06", "15", "0930", []string{"buy", "milk"}, "mp3"},
		{"2023", "12", "31", "", []string{"Call", "Mum", "tonight"}, "wav"},
		{"2025", "01", "02", "2359", []string{"don't", "forget"}, "mp3"},
	}

	for _, want := range names {
		formatted := FormatCanonical(want)
		got, ok := g.ParseCanonical(formatted)
		if !ok {
			t.Fatalf("ParseCanonical(%q) did not match", formatted)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip of %q = %+v, want %+v", formatted, got, want)
		}
		if FormatCanonical(got) != formatted {
			t.Errorf("format(parse(%q)) = %q", formatted, FormatCanonical(got))
		}
	}
}

func TestCanonical_EmptyWordsIsOneWay(t *testing.T) {
	g := newTestGrammar(t)

	formatted := FormatCanonical(CanonicalName{"2024", "06", "15", "0930", nil, "mp3"})
	if formatted != "2024-06-15_0930_empty.mp3" {
		t.Fatalf("unexpected name: %s", formatted)
	}

	got, ok := g.ParseCanonical(formatted)
	if !ok {
		t.Fatal("expected placeholder name to parse")
	}
	if len(got.Words) != 0 {
		t.Errorf("expected no words, got %v", got.Words)
	}

	// A literal transcribed "empty" is indistinguishable from the placeholder.
	literal := FormatCanonical(CanonicalName{"2024", "06", "15", "0930", []string{"empty"}, "mp3"})
	got, _ = g.ParseCanonical(literal)
	if len(got.Words) != 0 {
		t.Errorf("expected literal 'empty' to parse as no words, got %v", got.Words)
	}
}

func TestEligible(t *testing.T) {
	g := newTestGrammar(t)

	cases := map[string]bool{
		"a.mp3":          true,
		"a.MP3":          true,
		"a.wav":          true,
		"a.mp3.base.txt": false,
		"a.mp3.used":     false,
		"mp3":            false,
		"a.ogg":          false,
	}
	for name, want := range cases {
		if got := g.Eligible(name); got != want {
			t.Errorf("Eligible(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSidecarPath(t *testing.T) {
	got := SidecarPath("/rec/2024-06-15_0930_buy-milk.mp3", "base")
	if got != "/rec/2024-06-15_0930_buy-milk.mp3.base.txt" {
		t.Errorf("SidecarPath = %q", got)
	}
}
