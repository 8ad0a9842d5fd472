// Package processor runs the per-file workflow and the batch
// coordinator on top of it.
package processor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"mdc/internal/avid"
	"mdc/internal/config"
	"mdc/internal/datatype"
	"mdc/internal/downloader"
	apperrors "mdc/internal/errors"
	"mdc/internal/nfo"
	"mdc/internal/organizer"
	"mdc/internal/scanner"
)

// MetadataProvider abstracts the scraper registry so the coordinator
// can be exercised without network access.
type MetadataProvider interface {
	Fetch(ctx context.Context, id *avid.ParsedID) (*datatype.Metadata, error)
}

// ProviderFunc adapts a function to MetadataProvider.
type ProviderFunc func(ctx context.Context, id *avid.ParsedID) (*datatype.Metadata, error)

func (f ProviderFunc) Fetch(ctx context.Context, id *avid.ParsedID) (*datatype.Metadata, error) {
	return f(ctx, id)
}

// Status classifies a per-file outcome.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the per-file record of one workflow run.
type Result struct {
	Path        string             `json:"path"`
	DisplayID   string             `json:"display_id,omitempty"`
	Destination string             `json:"destination,omitempty"`
	Status      Status             `json:"status"`
	ErrorKind   string             `json:"error_kind,omitempty"`
	Error       string             `json:"error,omitempty"`
	Metadata    *datatype.Metadata `json:"metadata,omitempty"`
}

// Processor executes the workflow for one source file.
type Processor struct {
	cfg      *config.Config
	parser   *avid.Parser
	provider MetadataProvider
	placer   *organizer.Placer
	posters  *downloader.PosterFetcher

	idOverride  string
	onFileStart func(path string)
}

// SetFileStartHook installs a callback fired when a batch task begins
// working on a file.
func (p *Processor) SetFileStartHook(fn func(path string)) {
	p.onFileStart = fn
}

// Options configure a Processor. Posters may be nil when poster
// emission is disabled or no gateway exists.
type Options struct {
	Config   *config.Config
	Provider MetadataProvider
	Posters  *downloader.PosterFetcher
	// IDOverride, when set, is parsed in place of each file's name.
	// Meant for single-file runs where detection picks the wrong ID.
	IDOverride string
}

// New creates a processor. Custom number patterns and escape literals
// from the configuration feed the filename parser.
func New(opts Options) *Processor {
	cfg := opts.Config
	var rules []avid.Rule
	for _, p := range cfg.NameRule.Patterns() {
		rules = append(rules, avid.Rule{Pattern: p, IDGroup: 1, PartGroup: 2})
	}
	parser := avid.NewParser(avid.Options{
		IgnoredStrings: cfg.Escape.Literals(),
		CustomRules:    rules,
	})
	return &Processor{
		cfg:        cfg,
		parser:     parser,
		provider:   opts.Provider,
		placer:     organizer.NewPlacer(cfg),
		posters:    opts.Posters,
		idOverride: opts.IDOverride,
	}
}

// ProcessFile runs the full Parse → Fetch → Sidecar+Poster+Place
// sequence for one source path.
func (p *Processor) ProcessFile(ctx context.Context, path string) *Result {
	res := &Result{Path: path}

	name := filepath.Base(path)
	if p.idOverride != "" {
		name = p.idOverride
	}
	id, err := p.parser.Parse(name)
	if err != nil {
		return p.fail(res, err)
	}
	res.DisplayID = id.DisplayID

	meta, err := p.provider.Fetch(ctx, id)
	if err != nil {
		return p.fail(res, err)
	}
	res.Metadata = meta

	if err := p.runMode(ctx, path, id, meta, res); err != nil {
		return p.fail(res, err)
	}
	return res
}

func (p *Processor) runMode(ctx context.Context, path string, id *avid.ParsedID, meta *datatype.Metadata, res *Result) error {
	switch p.cfg.Common.MainMode {
	case config.ModeAnalysis:
		return p.analyzeInPlace(ctx, path, id, meta, res)
	case config.ModeOrganizing:
		return p.placeOnly(path, id, meta, res)
	default:
		return p.scrapeAndPlace(ctx, path, id, meta, res)
	}
}

// scrapeAndPlace emits the sidecar and poster into the destination
// folder, then places the video and its subtitles.
func (p *Processor) scrapeAndPlace(ctx context.Context, path string, id *avid.ParsedID, meta *datatype.Metadata, res *Result) error {
	plan := p.placer.Plan(path, id, meta)
	if err := ensureDir(plan.Dir); err != nil {
		return err
	}
	if p.cfg.Common.EmitNFO {
		if err := nfo.WriteFile(plan.Path(".nfo"), meta, id.DisplayID); err != nil {
			return apperrors.NewFilesystem("writing sidecar", err)
		}
	}
	if p.cfg.Common.EmitPoster && p.posters != nil {
		p.posters.FetchPoster(ctx, meta, plan.Dir, plan.Base)
	}
	return p.placeOnly(path, id, meta, res)
}

// placeOnly executes the link-mode placement and records the outcome.
func (p *Processor) placeOnly(path string, id *avid.ParsedID, meta *datatype.Metadata, res *Result) error {
	dest, skipped, err := p.placer.Place(path, id, meta)
	if err != nil {
		return err
	}
	res.Destination = dest
	if skipped {
		res.Status = StatusSkipped
	}
	return nil
}

// analyzeInPlace emits the sidecar and poster next to the source
// without moving it.
func (p *Processor) analyzeInPlace(ctx context.Context, path string, id *avid.ParsedID, meta *datatype.Metadata, res *Result) error {
	dir := filepath.Dir(path)
	base := p.placer.BaseName(path, id, meta)
	if p.cfg.Common.EmitNFO {
		if err := nfo.WriteFile(filepath.Join(dir, base+".nfo"), meta, id.DisplayID); err != nil {
			return apperrors.NewFilesystem("writing sidecar", err)
		}
	}
	if p.cfg.Common.EmitPoster && p.posters != nil {
		p.posters.FetchPoster(ctx, meta, dir, base)
	}
	res.Destination = path
	return nil
}

// fail finalizes a failed result, records it in the failed list and
// optionally moves the source aside.
func (p *Processor) fail(res *Result, err error) *Result {
	res.Status = StatusFailed
	if kind, ok := apperrors.KindOf(err); ok {
		res.ErrorKind = kind.String()
	}
	res.Error = err.Error()

	if apperrors.IsKind(err, apperrors.KindCancelled) {
		return res
	}
	if folder := p.cfg.Common.FailedOutputFolder; folder != "" {
		if lerr := scanner.AppendFailedList(scanner.FailedListPath(p.cfg), res.Path); lerr != nil {
			logrus.Warnf("recording failure: %v", lerr)
		}
		if p.cfg.Common.FailedMove {
			p.moveToFailed(res)
		}
	}
	return res
}

// moveToFailed relocates an unprocessable source into the failed
// folder so repeated runs stop retrying it.
func (p *Processor) moveToFailed(res *Result) {
	dest := filepath.Join(p.cfg.Common.FailedOutputFolder, filepath.Base(res.Path))
	if strings.EqualFold(dest, res.Path) {
		return
	}
	if err := ensureDir(p.cfg.Common.FailedOutputFolder); err != nil {
		logrus.Warnf("creating failed folder: %v", err)
		return
	}
	if err := moveFile(res.Path, dest); err != nil {
		logrus.Warnf("moving failed source: %v", err)
	}
}
