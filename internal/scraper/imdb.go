package scraper

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// IMDB scrapes imdb.com title pages for western releases.
type IMDB struct {
	base string
}

// NewIMDB creates the adapter with the default origin.
func NewIMDB() *IMDB {
	return &IMDB{base: "https://www.imdb.com"}
}

func (i *IMDB) Name() string                { return "imdb" }
func (i *IMDB) PreferredIDFormat() IDFormat { return FormatDisplay }
func (i *IMDB) ImageCutDefault() int        { return datatype.ImageCutCopy }

func (i *IMDB) URLFor(id string) string {
	return i.base + "/find/?q=" + url.QueryEscape(searchTerms(id)) + "&s=tt"
}

// Scrape searches IMDB and follows the first title result.
func (i *IMDB) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	page, err := env.FetchPage(ctx, i.URLFor(id.DisplayID), i.Name())
	if err != nil {
		return nil, err
	}

	detailURL := ""
	page.Find("ul.ipc-metadata-list a.ipc-metadata-list-summary-item__t").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if strings.Contains(href, "/title/") {
			detailURL = page.AbsURL(href)
			return false
		}
		return true
	})
	if detailURL == "" {
		return nil, apperrors.NewNotFound(i.Name(), id.DisplayID)
	}

	detail, err := env.FetchPage(ctx, detailURL, i.Name())
	if err != nil {
		return nil, err
	}
	meta, err := i.Parse(detail, detailURL)
	if err != nil {
		return nil, err
	}
	meta.Number = id.DisplayID
	return meta, nil
}

// Parse extracts an IMDB title page from its OpenGraph tags and the
// hero section.
func (i *IMDB) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("h1[data-testid=hero__pageTitle]")
	if title == "" {
		title = page.Meta("og:title")
		// "Title (2020) - IMDb" -> "Title"
		if idx := strings.Index(title, " ("); idx > 0 {
			title = title[:idx]
		}
	}
	if title == "" {
		return nil, apperrors.NewParseFailure(i.Name(), "title not found")
	}

	meta := &datatype.Metadata{
		Title:   title,
		Outline: page.Text("span[data-testid=plot-l]"),
		Cover:   page.Meta("og:image"),
		Website: pageURL,
	}
	if meta.Outline == "" {
		meta.Outline = page.Meta("og:description")
	}
	if rating := page.Text("div[data-testid=hero-rating-bar__aggregate-rating__score] span"); rating != "" {
		if v, err := strconv.ParseFloat(rating, 64); err == nil {
			meta.UserRating = v
		}
	}
	page.Find("li[data-testid=title-pc-principal-credit]").Each(func(_ int, li *goquery.Selection) {
		label := strings.TrimSpace(li.Find("span.ipc-metadata-list-item__label").First().Text())
		if label == "" {
			label = strings.TrimSpace(li.Find("a.ipc-metadata-list-item__label").First().Text())
		}
		if strings.HasPrefix(label, "Director") && meta.Director == "" {
			meta.Director = strings.TrimSpace(li.Find("a.ipc-metadata-list-item__list-content-item").First().Text())
		}
	})
	meta.Actor = page.Texts("a[data-testid=title-cast-item__actor]")
	meta.Tag = page.Texts("div[data-testid=genres] a span")
	return meta, nil
}
