// Package relocate moves recordings between pipeline directories without
// ever overwriting an existing file.
package relocate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
)

// MaxSuffix is the highest collision counter probed under AutoSuffix.
const MaxSuffix = 99

// ConsumedSuffix is appended to a sidecar transcript once it has been used.
const ConsumedSuffix = ".used"

// Policy decides what happens when the destination already exists.
type Policy int

const (
	// FailIfExists skips the move and leaves both files untouched.
	FailIfExists Policy = iota
	// AutoSuffix picks the first free {base}_{i}{ext} for i in 1..MaxSuffix.
	AutoSuffix
)

func (p Policy) String() string {
	if p == AutoSuffix {
		return "auto-suffix"
	}
	return "fail-if-exists"
}

// Skip is the reason a relocation did not happen.
type Skip int

const (
	SkipNone Skip = iota
	SkipSourceMissing
	SkipDestinationExists
	SkipTooManyDuplicates
)

func (s Skip) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipSourceMissing:
		return "source missing"
	case SkipDestinationExists:
		return "destination exists"
	case SkipTooManyDuplicates:
		return "too many duplicates"
	default:
		return "unknown"
	}
}

// Result is the outcome of a relocation. Path is the final location when
// the file was moved and empty otherwise.
type Result struct {
	Path string
	Skip Skip
}

// Moved reports whether the file now lives at Path.
func (r Result) Moved() bool {
	return r.Skip == SkipNone
}

// Pair is the outcome of moving a recording together with its sidecar.
// SidecarErr carries an unexpected failure of the sidecar move; the primary
// move is never rolled back because of it.
type Pair struct {
	Primary    Result
	Sidecar    Result
	SidecarErr error
}

// Relocator performs moves and logs each outcome.
type Relocator struct {
	logger logging.Logger
}

// New creates a Relocator. A nil logger discards output.
func New(logger logging.Logger) *Relocator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Relocator{logger: logger}
}

// Relocate moves from to to. Missing sources and collisions are reported
// through Result; only unexpected I/O failures are returned as errors.
// The parent directory of to must already exist.
func (r *Relocator) Relocate(from, to string, policy Policy) (Result, error) {
	if _, err := os.Lstat(from); err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("source missing", logging.String("from", from))
			return Result{Skip: SkipSourceMissing}, nil
		}
		return Result{}, fmt.Errorf("stat source: %w", err)
	}

	dest, skip, err := r.destination(to, policy)
	if err != nil {
		return Result{}, err
	}
	if skip != SkipNone {
		r.logger.Warn("not moved",
			logging.String("from", from),
			logging.String("to", to),
			logging.String("reason", skip.String()),
		)
		return Result{Skip: skip}, nil
	}

	if err := move(from, dest); err != nil {
		if errors.Is(err, os.ErrExist) {
			r.logger.Warn("not moved",
				logging.String("from", from),
				logging.String("to", dest),
				logging.String("reason", SkipDestinationExists.String()),
			)
			return Result{Skip: SkipDestinationExists}, nil
		}
		return Result{}, fmt.Errorf("move %s: %w", filepath.Base(from), err)
	}

	r.logger.Info("moved", logging.String("from", from), logging.String("to", dest))
	return Result{Path: dest}, nil
}

// RelocateWithSidecar moves from to to under policy and then moves the
// {from}.{profile}.txt sidecar next to the final path with FailIfExists.
// The returned error refers to the primary move only.
func (r *Relocator) RelocateWithSidecar(from, to string, policy Policy, profile string) (Pair, error) {
	primary, err := r.Relocate(from, to, policy)
	if err != nil || !primary.Moved() {
		return Pair{Primary: primary}, err
	}

	pair := Pair{Primary: primary}
	src := filename.SidecarPath(from, profile)
	if _, statErr := os.Lstat(src); os.IsNotExist(statErr) {
		pair.Sidecar = Result{Skip: SkipSourceMissing}
		return pair, nil
	}

	pair.Sidecar, pair.SidecarErr = r.Relocate(src, filename.SidecarPath(primary.Path, profile), FailIfExists)
	if pair.SidecarErr != nil {
		r.logger.Error("sidecar not moved", pair.SidecarErr,
			logging.String("sidecar", src),
			logging.String("primary", primary.Path),
		)
	}
	return pair, nil
}

// MarkConsumed renames a sidecar transcript to {sidecar}.used.
func (r *Relocator) MarkConsumed(sidecar string) (Result, error) {
	return r.Relocate(sidecar, sidecar+ConsumedSuffix, FailIfExists)
}

func (r *Relocator) destination(to string, policy Policy) (string, Skip, error) {
	taken, err := exists(to)
	if err != nil {
		return "", SkipNone, err
	}
	if !taken {
		return to, SkipNone, nil
	}
	if policy != AutoSuffix {
		return "", SkipDestinationExists, nil
	}

	ext := filepath.Ext(to)
	base := strings.TrimSuffix(to, ext)
	for i := 1; i <= MaxSuffix; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		taken, err := exists(candidate)
		if err != nil {
			return "", SkipNone, err
		}
		if !taken {
			return candidate, SkipNone, nil
		}
	}
	return "", SkipTooManyDuplicates, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat destination: %w", err)
}

// move renames from to dest, falling back to copy and delete when the two
// paths are on different volumes.
func move(from, dest string) error {
	err := os.Rename(from, dest)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	return copyAndDelete(from, dest)
}

// copyAndDelete copies src to a newly created dst, flushes it to disk and
// removes src. dst must not exist.
func copyAndDelete(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("sync destination file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close destination file: %w", err)
	}

	os.Chtimes(dst, info.ModTime(), info.ModTime())

	in.Close()
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source file: %w", err)
	}
	return nil
}
