package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe"
)

// transcribeDirs returns the pending transcription directories followed by
// staging, without duplicates.
func (p *Pipeline) transcribeDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, d := range append(append([]string(nil), p.cfg.App.PendingTranscribeDirs...), p.cfg.App.PendingSortDir) {
		d = filepath.Clean(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}

// transcribeAll writes a transcript sidecar for every recording that lacks
// one, until the run's budget is spent.
func (p *Pipeline) transcribeAll(ctx context.Context, rc *RunContext) error {
	profile := p.cfg.App.TranscribeModelMode
	log := logging.With(rc.logger, logging.String("phase", "transcribe"))

	for _, dir := range p.transcribeDirs() {
		names, err := p.snapshot(dir)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warn("directory missing, skipped", logging.String("dir", dir))
			} else {
				log.Error("cannot list directory", err, logging.String("dir", dir))
			}
			continue
		}

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if transcribe.HasSidecar(path, profile) {
				continue
			}
			if !rc.take() {
				return nil
			}

			text, err := p.transcriber.Transcribe(ctx, path, profile)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				rc.Summary.Failed++
				log.Error("transcription failed", err, logging.String("file", name))
				continue
			}
			sidecar, err := transcribe.WriteSidecar(path, profile, text)
			if err != nil {
				rc.Summary.Failed++
				log.Error("cannot write transcript", err, logging.String("file", name))
				continue
			}
			rc.Summary.Transcribed++
			log.Info("transcribed",
				logging.String("file", name),
				logging.String("sidecar", filepath.Base(sidecar)),
			)
		}
	}
	return nil
}
