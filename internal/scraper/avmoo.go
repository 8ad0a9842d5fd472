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

// Avmoo scrapes avmoo.com, whose markup closely mirrors javbus but is
// only reachable through its search page.
type Avmoo struct {
	base string
}

// NewAvmoo creates the adapter with the default origin.
func NewAvmoo() *Avmoo {
	return &Avmoo{base: "https://avmoo.com"}
}

func (a *Avmoo) Name() string                { return "avmoo" }
func (a *Avmoo) PreferredIDFormat() IDFormat { return FormatDisplay }
func (a *Avmoo) ImageCutDefault() int        { return datatype.ImageCutSmart }

func (a *Avmoo) URLFor(id string) string {
	return a.base + "/cn/search/" + url.QueryEscape(id)
}

// Scrape searches for the ID and follows the first movie box whose
// item ID matches.
func (a *Avmoo) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	page, err := env.FetchPage(ctx, a.URLFor(id.DisplayID), a.Name())
	if err != nil {
		return nil, err
	}

	detailURL := ""
	upper := strings.ToUpper(id.DisplayID)
	page.Find("a.movie-box").EachWithBreak(func(_ int, box *goquery.Selection) bool {
		itemID := strings.ToUpper(strings.TrimSpace(box.Find("date").First().Text()))
		if itemID == upper || itemID == "" {
			detailURL = page.AbsURL(box.AttrOr("href", ""))
			return false
		}
		return true
	})
	if detailURL == "" {
		return nil, apperrors.NewNotFound(a.Name(), id.DisplayID)
	}

	detail, err := env.FetchPage(ctx, detailURL, a.Name())
	if err != nil {
		return nil, err
	}
	return a.Parse(detail, detailURL)
}

// Parse extracts an avmoo detail page.
func (a *Avmoo) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div.container h3")
	if title == "" {
		return nil, apperrors.NewParseFailure(a.Name(), "title not found")
	}

	meta := &datatype.Metadata{
		Title:   title,
		Cover:   page.Attr("a.bigImage", "href"),
		Website: pageURL,
	}
	if meta.Cover == "" {
		meta.Cover = page.Attr("a.bigImage img", "src")
	}

	page.Find("div.col-md-3 p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		switch {
		case strings.HasPrefix(text, "识别码:"):
			meta.Number = strings.TrimSpace(p.Find("span").Eq(1).Text())
		case strings.HasPrefix(text, "发行时间:"):
			meta.Release = strings.TrimSpace(strings.TrimPrefix(text, "发行时间:"))
		case strings.HasPrefix(text, "长度:"):
			meta.Runtime = strings.TrimSpace(strings.TrimPrefix(text, "长度:"))
		case strings.HasPrefix(text, "导演:"):
			meta.Director = strings.TrimSpace(p.Find("a").First().Text())
		case strings.HasPrefix(text, "制作商:"):
			meta.Studio = strings.TrimSpace(p.Find("a").First().Text())
		case strings.HasPrefix(text, "系列:"):
			meta.Series = strings.TrimSpace(p.Find("a").First().Text())
		}
	})

	meta.Tag = page.Texts("span.genre a")
	meta.Actor = page.Texts("div#avatar-waterfall a.avatar-box span")
	if len(meta.Actor) == 0 {
		meta.Actor = page.Texts("div.star-name a")
	}
	return meta, nil
}
