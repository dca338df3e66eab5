// Package pipeline runs the rename, transcribe and sort phases over the
// recordings directories.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/filename"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/journal"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/relocate"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/router"
)

// Transcriber answers the two transcription requests a run makes.
type Transcriber interface {
	// LeadWords returns up to max words from the start of the recording.
	LeadWords(ctx context.Context, path string, max int) ([]string, error)
	// Transcribe returns the full transcript using the given model profile.
	Transcribe(ctx context.Context, path, profile string) (string, error)
}

// Phase is one step of a run.
type Phase int

const (
	PhaseRename Phase = iota
	PhaseTranscribe
	PhaseSort
)

// AllPhases lists the phases in execution order.
var AllPhases = []Phase{PhaseRename, PhaseTranscribe, PhaseSort}

func (p Phase) String() string {
	switch p {
	case PhaseRename:
		return "rename"
	case PhaseTranscribe:
		return "transcribe"
	case PhaseSort:
		return "sort"
	}
	return "unknown"
}

// ParsePhase converts a phase name.
func ParsePhase(name string) (Phase, error) {
	for _, p := range AllPhases {
		if strings.EqualFold(name, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q (want rename, transcribe or sort)", name)
}

// Pipeline holds everything a run needs. It keeps no state between runs.
type Pipeline struct {
	cfg         *config.Config
	grammar     *filename.Grammar
	table       *router.Table
	journal     *journal.Writer
	transcriber Transcriber
	logger      logging.Logger
}

// New builds a pipeline from a validated configuration. transcriber may be
// nil when transcription is disabled.
func New(cfg *config.Config, transcriber Transcriber, logger logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	grammar, err := filename.NewGrammar(cfg.App.ConvertibleExtensions)
	if err != nil {
		return nil, fmt.Errorf("build filename grammar: %w", err)
	}
	if transcriber == nil && !cfg.App.DisableTranscribe {
		return nil, fmt.Errorf("a transcriber is required unless transcription is disabled")
	}

	p := &Pipeline{
		cfg:         cfg,
		grammar:     grammar,
		table:       Table(cfg),
		transcriber: transcriber,
		logger:      logger,
	}

	if cfg.Journal.Enable {
		w, err := journal.New(cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		p.journal = w
	}
	return p, nil
}

// Table builds the routing table for the enabled rule pools.
func Table(cfg *config.Config) *router.Table {
	var folders, tags []router.Rule
	if cfg.Sorting.Enable {
		for _, r := range cfg.Sorting.Folders {
			folders = append(folders, router.Rule{
				Name:        r.Name,
				Keywords:    r.Keywords,
				Destination: router.Destination{Dir: r.Dir},
			})
		}
	}
	if cfg.Journal.Enable {
		for _, r := range cfg.Journal.Tags {
			tags = append(tags, router.Rule{
				Name:     r.Name,
				Keywords: r.Keywords,
				Destination: router.Destination{
					Tag:              r.TagStr,
					Transcribe:       r.Transcribe,
					MaxTranscriptLen: cfg.Journal.MaxTranscriptionLen,
				},
			})
		}
	}
	return router.NewTable(folders, tags)
}

// Grammar returns the filename grammar for the configured extensions.
func (p *Pipeline) Grammar() *filename.Grammar {
	return p.grammar
}

// Run executes the requested phases, in phase order, with a fresh budget.
// An empty list runs every phase. Per-file problems are logged and counted;
// only cancellation is returned as an error.
func (p *Pipeline) Run(ctx context.Context, phases []Phase) (Summary, error) {
	if len(phases) == 0 {
		phases = AllPhases
	}
	want := make(map[Phase]bool, len(phases))
	for _, ph := range phases {
		want[ph] = true
	}

	rc := newRunContext(p.cfg.TranscriptionLimit(), p.logger)
	rc.relocator = relocate.New(rc.logger)
	start := time.Now()
	rc.logger.Info("run started",
		logging.String("recordings_dir", p.cfg.App.RecordingsDir),
		logging.Int("limit", rc.Budget.Limit),
	)

	var err error
	for _, ph := range AllPhases {
		if !want[ph] {
			continue
		}
		if err = ctx.Err(); err != nil {
			break
		}
		if p.cfg.App.DisableTranscribe && ph != PhaseSort {
			rc.logger.Info("transcription disabled, skipping phase", logging.String("phase", ph.String()))
			continue
		}

		switch ph {
		case PhaseRename:
			err = p.rename(ctx, rc)
		case PhaseTranscribe:
			err = p.transcribeAll(ctx, rc)
		case PhaseSort:
			err = p.sort(ctx, rc)
		}
		if err != nil {
			break
		}
	}

	fields := append(rc.Summary.Fields(),
		logging.Int("transcriptions", rc.Budget.Used),
		logging.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		rc.logger.Warn("run interrupted", fields...)
		return rc.Summary, err
	}
	rc.logger.Info("run complete", fields...)
	return rc.Summary, nil
}
