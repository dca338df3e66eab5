package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/relocate"
)

// snapshot lists the eligible recordings in dir once, in lexical order.
func (p *Pipeline) snapshot(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !p.grammar.Eligible(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// rename gives device-named recordings in the intake directory their
// canonical name and moves them to staging.
func (p *Pipeline) rename(ctx context.Context, rc *RunContext) error {
	app := p.cfg.App
	log := logging.With(rc.logger, logging.String("phase", "rename"))

	names, err := p.snapshot(app.PendingRenameDir)
	if err != nil {
		log.Error("cannot list intake directory", err, logging.String("dir", app.PendingRenameDir))
		return nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := filepath.Join(app.PendingRenameDir, name)

		dev, ok := p.grammar.ParseDevice(name)
		if !ok {
			p.renameUnsupported(rc, log, from)
			continue
		}

		if !rc.take() {
			rc.Summary.Deferred++
			log.Debug("deferred", logging.String("file", name))
			continue
		}
		words, err := p.transcriber.LeadWords(ctx, from, app.MaxWords)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rc.Summary.Failed++
			log.Error("lead words failed, left in intake", err, logging.String("file", name))
			continue
		}

		to := filepath.Join(app.PendingSortDir, dev.Canonical(words).String())
		pair, err := rc.relocator.RelocateWithSidecar(from, to, relocate.AutoSuffix, app.TranscribeModelMode)
		if err != nil {
			rc.Summary.Failed++
			log.Error("rename failed", err, logging.String("file", name))
			continue
		}
		if !pair.Primary.Moved() {
			rc.Summary.Skipped++
			continue
		}
		rc.Summary.Renamed++
		log.Info("renamed",
			logging.String("file", name),
			logging.String("to", filepath.Base(pair.Primary.Path)),
		)
	}
	return nil
}

func (p *Pipeline) renameUnsupported(rc *RunContext, log logging.Logger, from string) {
	name := filepath.Base(from)
	if !p.cfg.App.MoveUnsupported {
		rc.Summary.Skipped++
		log.Info("not a device recording, left in intake", logging.String("file", name))
		return
	}

	res, err := rc.relocator.Relocate(from, filepath.Join(p.cfg.App.UnsupportedDir, name), relocate.AutoSuffix)
	if err != nil {
		rc.Summary.Failed++
		log.Error("move to unsupported failed", err, logging.String("file", name))
		return
	}
	if !res.Moved() {
		rc.Summary.Skipped++
		return
	}
	rc.Summary.Unsupported++
	log.Info("moved to unsupported",
		logging.String("file", name),
		logging.String("to", res.Path),
	)
}
