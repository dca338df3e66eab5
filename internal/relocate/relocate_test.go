package relocate

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be gone", path)
	}
}

func TestRelocate_Moves(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.mp3")
	to := filepath.Join(dir, "b.mp3")
	writeFile(t, from, "audio")

	res, err := New(nil).Relocate(from, to, FailIfExists)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if !res.Moved() || res.Path != to {
		t.Fatalf("unexpected result: %+v", res)
	}
	if readFile(t, to) != "audio" {
		t.Error("content mismatch after move")
	}
	assertMissing(t, from)
}

func TestRelocate_SourceMissing(t *testing.T) {
	dir := t.TempDir()

	res, err := New(nil).Relocate(filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "x.mp3"), AutoSuffix)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Skip != SkipSourceMissing {
		t.Errorf("expected SkipSourceMissing, got %v", res.Skip)
	}
}

func TestRelocate_DestinationExistsLeavesBothUntouched(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.mp3")
	to := filepath.Join(dir, "b.mp3")
	writeFile(t, from, "new")
	writeFile(t, to, "old")

	res, err := New(nil).Relocate(from, to, FailIfExists)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Skip != SkipDestinationExists || res.Path != "" {
		t.Errorf("unexpected result: %+v", res)
	}
	if readFile(t, from) != "new" || readFile(t, to) != "old" {
		t.Error("files were modified")
	}
}

func TestRelocate_AutoSuffixPicksNextFree(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "in", "rec.mp3")
	if err := os.MkdirAll(filepath.Dir(from), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, from, "newest")

	to := filepath.Join(dir, "base.mp3")
	writeFile(t, to, "0")
	for i := 1; i <= 5; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("base_%d.mp3", i)), "x")
	}

	res, err := New(nil).Relocate(from, to, AutoSuffix)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	want := filepath.Join(dir, "base_6.mp3")
	if res.Path != want {
		t.Errorf("expected %s, got %+v", want, res)
	}
	if readFile(t, want) != "newest" {
		t.Error("content mismatch")
	}
	if readFile(t, to) != "0" {
		t.Error("original destination was overwritten")
	}
}

func TestRelocate_TooManyDuplicates(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "src", "rec.mp3")
	if err := os.MkdirAll(filepath.Dir(from), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, from, "audio")

	to := filepath.Join(dir, "base.mp3")
	writeFile(t, to, "x")
	for i := 1; i <= MaxSuffix; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("base_%d.mp3", i)), "x")
	}

	res, err := New(nil).Relocate(from, to, AutoSuffix)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Skip != SkipTooManyDuplicates {
		t.Errorf("expected SkipTooManyDuplicates, got %v", res.Skip)
	}
	if readFile(t, from) != "audio" {
		t.Error("source should be left in place")
	}
	assertMissing(t, filepath.Join(dir, "base_100.mp3"))
}

func TestRelocate_MissingDestinationDirIsError(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.mp3")
	writeFile(t, from, "audio")

	_, err := New(nil).Relocate(from, filepath.Join(dir, "nope", "a.mp3"), FailIfExists)
	if err == nil {
		t.Error("expected error when destination directory is missing")
	}
	if readFile(t, from) != "audio" {
		t.Error("source should be left in place")
	}
}

func TestRelocateWithSidecar(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staging")
	dst := filepath.Join(dir, "shopping")
	for _, d := range []string{src, dst} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	from := filepath.Join(src, "2024-06-15_0930_buy-milk.mp3")
	writeFile(t, from, "audio")
	writeFile(t, filename.SidecarPath(from, "base"), "buy milk and eggs")
	writeFile(t, filename.SidecarPath(from, "large"), "other profile")

	to := filepath.Join(dst, "2024-06-15_0930_buy-milk.mp3")
	writeFile(t, to, "existing")

	pair, err := New(nil).RelocateWithSidecar(from, to, AutoSuffix, "base")
	if err != nil {
		t.Fatalf("RelocateWithSidecar failed: %v", err)
	}

	wantPrimary := filepath.Join(dst, "2024-06-15_0930_buy-milk_1.mp3")
	if pair.Primary.Path != wantPrimary {
		t.Errorf("primary = %+v, want %s", pair.Primary, wantPrimary)
	}
	if pair.Sidecar.Path != wantPrimary+".base.txt" {
		t.Errorf("sidecar = %+v, want it next to the final primary path", pair.Sidecar)
	}
	if pair.SidecarErr != nil {
		t.Errorf("unexpected sidecar error: %v", pair.SidecarErr)
	}
	if readFile(t, pair.Sidecar.Path) != "buy milk and eggs" {
		t.Error("sidecar content mismatch")
	}
	if _, err := os.Stat(filename.SidecarPath(from, "large")); err != nil {
		t.Error("sidecar of another profile should stay behind")
	}
}

func TestRelocateWithSidecar_NoSidecar(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.mp3")
	to := filepath.Join(dir, "b.mp3")
	writeFile(t, from, "audio")

	pair, err := New(nil).RelocateWithSidecar(from, to, FailIfExists, "base")
	if err != nil {
		t.Fatalf("RelocateWithSidecar failed: %v", err)
	}
	if !pair.Primary.Moved() {
		t.Errorf("primary not moved: %+v", pair.Primary)
	}
	if pair.Sidecar.Skip != SkipSourceMissing {
		t.Errorf("expected sidecar SkipSourceMissing, got %v", pair.Sidecar.Skip)
	}
}

func TestRelocateWithSidecar_SidecarCollisionKeepsPrimary(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "in", "a.mp3")
	if err := os.MkdirAll(filepath.Dir(from), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, from, "audio")
	writeFile(t, filename.SidecarPath(from, "base"), "text")

	to := filepath.Join(dir, "a.mp3")
	writeFile(t, filename.SidecarPath(to, "base"), "stale")

	pair, err := New(nil).RelocateWithSidecar(from, to, FailIfExists, "base")
	if err != nil {
		t.Fatalf("RelocateWithSidecar failed: %v", err)
	}
	if !pair.Primary.Moved() {
		t.Fatalf("primary not moved: %+v", pair.Primary)
	}
	if pair.Sidecar.Skip != SkipDestinationExists {
		t.Errorf("expected sidecar SkipDestinationExists, got %v", pair.Sidecar.Skip)
	}
	if readFile(t, to) != "audio" {
		t.Error("primary move should not be rolled back")
	}
}

func TestRelocateWithSidecar_PrimarySkipLeavesSidecar(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "in", "a.mp3")
	if err := os.MkdirAll(filepath.Dir(from), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, from, "audio")
	writeFile(t, filename.SidecarPath(from, "base"), "text")
	to := filepath.Join(dir, "a.mp3")
	writeFile(t, to, "taken")

	pair, err := New(nil).RelocateWithSidecar(from, to, FailIfExists, "base")
	if err != nil {
		t.Fatalf("RelocateWithSidecar failed: %v", err)
	}
	if pair.Primary.Skip != SkipDestinationExists {
		t.Errorf("expected primary SkipDestinationExists, got %v", pair.Primary.Skip)
	}
	if readFile(t, filename.SidecarPath(from, "base")) != "text" {
		t.Error("sidecar should stay with the unmoved primary")
	}
}

func TestMarkConsumed(t *testing.T) {
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "a.mp3.base.txt")
	writeFile(t, sidecar, "text")

	res, err := New(nil).MarkConsumed(sidecar)
	if err != nil {
		t.Fatalf("MarkConsumed failed: %v", err)
	}
	if res.Path != sidecar+".used" {
		t.Errorf("unexpected result: %+v", res)
	}
	assertMissing(t, sidecar)
}

func TestCopyAndDelete(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dst := filepath.Join(dir, "b.mp3")
	writeFile(t, src, "audio")

	if err := copyAndDelete(src, dst); err != nil {
		t.Fatalf("copyAndDelete failed: %v", err)
	}
	if readFile(t, dst) != "audio" {
		t.Error("content mismatch")
	}
	assertMissing(t, src)
}

func TestCopyAndDelete_RefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dst := filepath.Join(dir, "b.mp3")
	writeFile(t, src, "audio")
	writeFile(t, dst, "keep")

	if err := copyAndDelete(src, dst); !os.IsExist(err) {
		t.Fatalf("expected exist error, got %v", err)
	}
	if readFile(t, dst) != "keep" || readFile(t, src) != "audio" {
		t.Error("files were modified")
	}
}

func TestSkip_String(t *testing.T) {
	tests := map[Skip]string{
		SkipNone:              "none",
		SkipSourceMissing:     "source missing",
		SkipDestinationExists: "destination exists",
		SkipTooManyDuplicates: "too many duplicates",
		Skip(42):              "unknown",
	}
	for skip, want := range tests {
		if got := skip.String(); got != want {
			t.Errorf("Skip(%d).String() = %q, want %q", skip, got, want)
		}
	}
}
