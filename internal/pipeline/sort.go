package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/journal"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/relocate"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/router"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe"
)

// sort routes each canonically named recording in staging by its lead words.
func (p *Pipeline) sort(ctx context.Context, rc *RunContext) error {
	staging := p.cfg.App.PendingSortDir
	log := logging.With(rc.logger, logging.String("phase", "sort"))

	names, err := p.snapshot(staging)
	if err != nil {
		log.Error("cannot list staging directory", err, logging.String("dir", staging))
		return nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		c, ok := p.grammar.ParseCanonical(name)
		if !ok {
			rc.Summary.Skipped++
			log.Warn("unrecognised name, sort manually", logging.String("file", name))
			continue
		}
		rule, ok := p.table.Route(c.Words)
		if !ok {
			rc.Summary.Skipped++
			log.Debug("no rule matched", logging.String("file", name))
			continue
		}

		path := filepath.Join(staging, name)
		fileLog := logging.With(log, logging.String("file", name), logging.String("rule", rule.Name))
		switch rule.Destination.Kind {
		case router.KindFolder:
			p.sortToFolder(rc, fileLog, path, rule.Destination)
		case router.KindJournal:
			if err := p.sortToJournal(ctx, rc, fileLog, path, c, rule.Destination); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) sortToFolder(rc *RunContext, log logging.Logger, path string, dest router.Destination) {
	if info, err := os.Stat(dest.Dir); err != nil || !info.IsDir() {
		rc.Summary.Skipped++
		log.Warn("destination directory missing, left in staging", logging.String("dir", dest.Dir))
		return
	}

	policy := relocate.FailIfExists
	if p.cfg.Sorting.AllowSuffix {
		policy = relocate.AutoSuffix
	}
	pair, err := rc.relocator.RelocateWithSidecar(path, filepath.Join(dest.Dir, filepath.Base(path)), policy, p.cfg.App.TranscribeModelMode)
	if err != nil {
		rc.Summary.Failed++
		log.Error("sort failed", err)
		return
	}
	if !pair.Primary.Moved() {
		rc.Summary.Skipped++
		return
	}
	rc.Summary.Sorted++
	log.Info("sorted", logging.String("to", pair.Primary.Path))
}

func (p *Pipeline) sortToJournal(ctx context.Context, rc *RunContext, log logging.Logger, path string, c filename.CanonicalName, dest router.Destination) error {
	if p.journal == nil {
		rc.Summary.Skipped++
		return nil
	}

	var text string
	if dest.Transcribe {
		var ok bool
		var err error
		text, ok, err = p.journalTranscript(ctx, rc, log, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rc.Summary.Failed++
			log.Error("transcription failed, left in staging", err)
			return nil
		}
		if !ok {
			rc.Summary.Deferred++
			return nil
		}
		text = strings.TrimSpace(text)
		if n := journal.TranscriptLen(text); dest.MaxTranscriptLen > 0 && n > dest.MaxTranscriptLen {
			log.Info("transcript over length, dropped",
				logging.Int("length", n),
				logging.Int("max", dest.MaxTranscriptLen),
			)
			text = ""
		}
	}

	res, err := rc.relocator.Relocate(path, filepath.Join(p.journal.AssetDir(), filepath.Base(path)), relocate.FailIfExists)
	if err != nil {
		rc.Summary.Failed++
		log.Error("cannot move asset", err)
		return nil
	}
	if !res.Moved() {
		rc.Summary.Skipped++
		return nil
	}

	entry := journal.Entry{
		Year:       c.Year,
		Month:      c.Month,
		Day:        c.Day,
		Tag:        dest.Tag,
		IntakeTag:  p.cfg.Journal.IntakeTag,
		Asset:      filepath.Base(res.Path),
		Transcript: text,
	}
	journalPath, err := p.journal.Append(entry)
	if err != nil {
		rc.Summary.Failed++
		log.Error("cannot append journal entry, asset already moved", err, logging.String("asset", res.Path))
		return nil
	}

	for _, profile := range p.sidecarProfiles() {
		sidecar := filename.SidecarPath(path, profile)
		if _, err := os.Lstat(sidecar); err != nil {
			continue
		}
		if _, err := rc.relocator.MarkConsumed(sidecar); err != nil {
			log.Error("cannot mark transcript consumed", err, logging.String("sidecar", sidecar))
		}
	}

	rc.Summary.Journaled++
	log.Info("journaled", logging.String("journal", filepath.Base(journalPath)))
	return nil
}

// journalTranscript returns the cached transcript for the journal profile,
// or requests one. ok is false when the budget is spent.
func (p *Pipeline) journalTranscript(ctx context.Context, rc *RunContext, log logging.Logger, path string) (string, bool, error) {
	profile := p.cfg.Journal.ModelMode
	text, ok, err := transcribe.ReadSidecar(path, profile)
	if err != nil {
		return "", false, err
	}
	if ok {
		return text, true, nil
	}
	if p.cfg.App.DisableTranscribe {
		log.Debug("no transcript and transcription disabled")
		return "", true, nil
	}
	if !rc.take() {
		return "", false, nil
	}
	text, err = p.transcriber.Transcribe(ctx, path, profile)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// sidecarProfiles lists the transcript profiles a journaled recording may
// carry sidecars for.
func (p *Pipeline) sidecarProfiles() []string {
	profiles := []string{p.cfg.Journal.ModelMode}
	if p.cfg.App.TranscribeModelMode != p.cfg.Journal.ModelMode {
		profiles = append(profiles, p.cfg.App.TranscribeModelMode)
	}
	return profiles
}
