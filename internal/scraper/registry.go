package scraper

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
)

// urlSourceTable maps URL fragments to source names for specified-URL
// inference.
var urlSourceTable = map[string]string{
	"themoviedb.org": "tmdb",
	"imdb.com":       "imdb",
	"javlibrary.com": "javlibrary",
	"javbus.com":     "javbus",
	"javsee.com":     "javbus",
	"avmoo.com":      "avmoo",
	"avso.pw":        "avmoo",
	"fc2.com":        "fc2",
	"fc2club":        "fc2",
	"tokyo-hot.com":  "tokyohot",
}

// Registry dispatches scrape requests across ranked sources and keeps
// the first valid result.
type Registry struct {
	adapters map[string]Adapter
	order    []string
	env      *Env
}

// NewRegistry creates an empty registry bound to a shared environment.
func NewRegistry(env *Env) *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		env:      env,
	}
}

// Register adds an adapter and appends it to the default ranking.
func (r *Registry) Register(a Adapter) {
	name := a.Name()
	if _, dup := r.adapters[name]; !dup {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

// Names returns the registered source names in default rank order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SearchOptions adjust a single Search call.
type SearchOptions struct {
	// Sources overrides the default ranking.
	Sources []string
	// SpecifiedURL pins the scrape to one page; the source is inferred
	// from the URL.
	SpecifiedURL string
}

// Search queries sources in rank order and returns the first result
// that passes metadata validity. Recoverable per-source failures
// advance to the next source.
func (r *Registry) Search(ctx context.Context, id *avid.ParsedID, opts SearchOptions) (*datatype.Metadata, error) {
	sources := opts.Sources
	if len(sources) == 0 {
		sources = r.order
	}
	if opts.SpecifiedURL != "" {
		source := r.InferSource(opts.SpecifiedURL)
		if source == "unknown" {
			logrus.WithField("url", opts.SpecifiedURL).Warn("cannot infer source from URL")
			return nil, apperrors.NewAllSourcesExhausted(id.DisplayID)
		}
		sources = []string{source}
	}

	var lastErr error
	for _, name := range sources {
		adapter, ok := r.adapters[name]
		if !ok {
			logrus.WithField("source", name).Warn("source not registered, skipping")
			continue
		}
		if ctx.Err() != nil {
			return nil, apperrors.NewCancelled()
		}

		meta, err := r.scrapeOne(ctx, adapter, id, opts.SpecifiedURL)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindCancelled) {
				return nil, err
			}
			if !apperrors.Recoverable(err) {
				return nil, err
			}
			logrus.WithField("source", name).WithField("id", id.DisplayID).
				Debugf("source failed: %v", err)
			lastErr = err
			continue
		}
		if !meta.Valid() {
			lastErr = apperrors.NewParseFailure(name, "record missing required fields")
			continue
		}
		return meta, nil
	}

	if lastErr != nil {
		logrus.WithField("id", id.DisplayID).Debugf("all sources failed, last error: %v", lastErr)
	}
	return nil, apperrors.NewAllSourcesExhausted(id.DisplayID)
}

// scrapeOne runs one adapter: its own Scrape when it has one, the
// default single-GET orchestration otherwise.
func (r *Registry) scrapeOne(ctx context.Context, adapter Adapter, id *avid.ParsedID, specifiedURL string) (*datatype.Metadata, error) {
	var (
		meta *datatype.Metadata
		err  error
	)
	if s, ok := adapter.(Scraper); ok && specifiedURL == "" {
		meta, err = s.Scrape(ctx, id, r.env)
	} else {
		pageURL := specifiedURL
		if pageURL == "" {
			pageURL = adapter.URLFor(idFor(adapter, id))
		}
		doc, ferr := r.env.FetchPage(ctx, pageURL, adapter.Name())
		if ferr != nil {
			return nil, ferr
		}
		meta, err = adapter.Parse(doc, pageURL)
		if err == nil && meta != nil && meta.Website == "" {
			meta.Website = pageURL
		}
	}
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, apperrors.NewParseFailure(adapter.Name(), "adapter returned no record")
	}
	meta.ImageCut = adapter.ImageCutDefault()
	meta.Source = adapter.Name()
	meta.Normalize()
	if id.Attrs.Uncensored {
		meta.Uncensored = true
	}
	return meta, nil
}

// idFor picks the identifier form an adapter wants.
func idFor(adapter Adapter, id *avid.ParsedID) string {
	if adapter.PreferredIDFormat() == FormatContent {
		return id.ContentID
	}
	return id.DisplayID
}

// InferSource maps a specified URL to a registered source name, first
// by registered-name substring, then by the fixed URL table.
func (r *Registry) InferSource(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, name := range r.order {
		if strings.Contains(lower, name) {
			return name
		}
	}
	for fragment, name := range urlSourceTable {
		if strings.Contains(lower, fragment) {
			return name
		}
	}
	return "unknown"
}
