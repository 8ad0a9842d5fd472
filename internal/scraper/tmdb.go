package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// TMDB scrapes themoviedb.org for western releases. Identifiers are
// turned into a free-text search, the first hit is scraped.
type TMDB struct {
	base string
}

// NewTMDB creates the adapter with the default origin.
func NewTMDB() *TMDB {
	return &TMDB{base: "https://www.themoviedb.org"}
}

func (t *TMDB) Name() string                { return "tmdb" }
func (t *TMDB) PreferredIDFormat() IDFormat { return FormatDisplay }
func (t *TMDB) ImageCutDefault() int        { return datatype.ImageCutCopy }

func (t *TMDB) URLFor(id string) string {
	return t.base + "/search?query=" + url.QueryEscape(searchTerms(id))
}

// Scrape searches TMDB and follows the first movie card.
func (t *TMDB) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	page, err := env.FetchPage(ctx, t.URLFor(id.DisplayID), t.Name())
	if err != nil {
		return nil, err
	}

	detailURL := ""
	page.Find("div.card.v4 a.result").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		detailURL = page.AbsURL(a.AttrOr("href", ""))
		return false
	})
	if detailURL == "" {
		return nil, apperrors.NewNotFound(t.Name(), id.DisplayID)
	}

	detail, err := env.FetchPage(ctx, detailURL, t.Name())
	if err != nil {
		return nil, err
	}
	meta, err := t.Parse(detail, detailURL)
	if err != nil {
		return nil, err
	}
	meta.Number = id.DisplayID
	return meta, nil
}

// Parse extracts a TMDB title page, leaning on the OpenGraph tags the
// site publishes for every movie.
func (t *TMDB) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div.title h2 a")
	if title == "" {
		title = page.Meta("og:title")
	}
	if title == "" {
		return nil, apperrors.NewParseFailure(t.Name(), "title not found")
	}

	meta := &datatype.Metadata{
		Title:   title,
		Outline: page.Text("div.overview p"),
		Cover:   page.Meta("og:image"),
		Website: pageURL,
	}
	if meta.Outline == "" {
		meta.Outline = page.Meta("og:description")
	}
	if release := page.Text("span.release"); release != "" {
		meta.Release = normalizeTMDBDate(release)
	}
	if runtime := page.Text("span.runtime"); runtime != "" {
		meta.Runtime = strings.TrimSpace(runtime)
	}
	page.Find("ol.people.no_image li.profile").Each(func(_ int, li *goquery.Selection) {
		name := strings.TrimSpace(li.Find("p a").First().Text())
		role := strings.TrimSpace(li.Find("p.character").Text())
		if name == "" {
			return
		}
		if strings.Contains(role, "Director") {
			if meta.Director == "" {
				meta.Director = name
			}
		}
	})
	meta.Actor = page.Texts("ol.people.scroller li.card p a")
	meta.Tag = page.Texts("span.genres a")
	return meta, nil
}

// normalizeTMDBDate converts "01/17/2020 (US)" into "2020-01-17".
func normalizeTMDBDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "-" + parts[0] + "-" + parts[1]
}

// searchTerms rewrites a dotted western identifier into search words,
// e.g. "BLACKED.20.01.01" becomes "BLACKED 20 01 01".
func searchTerms(id string) string {
	return strings.ReplaceAll(id, ".", " ")
}
