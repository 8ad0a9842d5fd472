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

// TokyoHot scrapes my.tokyo-hot.com. Products are located through the
// site search, then scraped from the product detail page.
type TokyoHot struct {
	base string
}

// NewTokyoHot creates the adapter with the default origin.
func NewTokyoHot() *TokyoHot {
	return &TokyoHot{base: "https://my.tokyo-hot.com"}
}

func (t *TokyoHot) Name() string                { return "tokyohot" }
func (t *TokyoHot) PreferredIDFormat() IDFormat { return FormatDisplay }
func (t *TokyoHot) ImageCutDefault() int        { return datatype.ImageCutCopy }

func (t *TokyoHot) URLFor(id string) string {
	return t.base + "/product/?q=" + url.QueryEscape(id) + "&x=0&y=0"
}

// Scrape searches for the product code and follows the first result.
func (t *TokyoHot) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	code := strings.ToLower(id.DisplayID)
	page, err := env.FetchPage(ctx, t.URLFor(code), t.Name())
	if err != nil {
		return nil, err
	}

	detailURL := ""
	page.Find("ul.list.slider.cf li.detail a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
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
	meta.Number = code
	return meta, nil
}

// Parse extracts a tokyo-hot product page.
func (t *TokyoHot) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div.contents h2")
	if title == "" {
		return nil, apperrors.NewParseFailure(t.Name(), "title not found")
	}

	meta := &datatype.Metadata{
		Title:      title,
		Studio:     "TOKYO-HOT",
		Label:      "TOKYO-HOT",
		Cover:      page.Attr("div.flowplayer video", "poster"),
		Website:    pageURL,
		Uncensored: true,
	}
	if meta.Cover == "" {
		meta.Cover = page.Attr("div.package img", "src")
	}

	page.Find("div.infowrapper dl dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.TrimSpace(dt.Text())
		dd := dt.NextFiltered("dd")
		value := strings.TrimSpace(dd.Text())
		switch label {
		case "出演者":
			dd.Find("a").Each(func(_ int, a *goquery.Selection) {
				if name := strings.TrimSpace(a.Text()); name != "" && name != "他" {
					meta.Actor = append(meta.Actor, name)
				}
			})
		case "配信開始日":
			meta.Release = strings.ReplaceAll(value, "/", "-")
		case "収録時間":
			meta.Runtime = value
		case "シリーズ":
			if value != "----" {
				meta.Series = value
			}
		case "タグ":
			dd.Find("a").Each(func(_ int, a *goquery.Selection) {
				if tag := strings.TrimSpace(a.Text()); tag != "" {
					meta.Tag = append(meta.Tag, tag)
				}
			})
		}
	})

	meta.Tag = append(meta.Tag, "Uncensored")
	return meta, nil
}
