package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// JavBus parses the Chinese-facing detail pages on javbus.com. Detail
// URLs take the display ID directly.
type JavBus struct {
	base string
}

// NewJavBus creates the adapter with the default origin.
func NewJavBus() *JavBus {
	return &JavBus{base: "https://www.javbus.com"}
}

func (j *JavBus) Name() string                { return "javbus" }
func (j *JavBus) PreferredIDFormat() IDFormat { return FormatDisplay }
func (j *JavBus) ImageCutDefault() int        { return datatype.ImageCutSmart }

func (j *JavBus) URLFor(id string) string {
	return j.base + "/" + id
}

// Parse extracts the detail page. The info block is a run of <p>
// elements with a bold label span followed by the value.
func (j *JavBus) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div.container h3")
	if title == "" {
		return nil, apperrors.NewParseFailure(j.Name(), "title not found")
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
		label := strings.TrimSpace(p.Find("span.header").First().Text())
		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p.Text()), label))
		switch strings.TrimSuffix(label, ":") {
		case "識別碼":
			meta.Number = strings.TrimSpace(p.Find("span").Eq(1).Text())
		case "發行日期":
			meta.Release = value
		case "長度":
			meta.Runtime = value
		case "導演":
			meta.Director = strings.TrimSpace(p.Find("a").First().Text())
		case "製作商":
			meta.Studio = strings.TrimSpace(p.Find("a").First().Text())
		case "發行商":
			meta.Label = strings.TrimSpace(p.Find("a").First().Text())
		case "系列":
			meta.Series = strings.TrimSpace(p.Find("a").First().Text())
		}
	})

	meta.Tag = page.Texts("span.genre label a")
	if len(meta.Tag) == 0 {
		meta.Tag = page.Texts("span.genre a")
	}

	// Actor names with their thumbnails.
	page.Find("div.star-name a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		meta.Actor = append(meta.Actor, name)
	})
	page.Find("a.avatar-box").Each(func(_ int, a *goquery.Selection) {
		img := a.Find("img").First()
		name := strings.TrimSpace(img.AttrOr("title", ""))
		if name == "" {
			name = strings.TrimSpace(a.Find("span").First().Text())
		}
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if name == "" || src == "" {
			return
		}
		if meta.ActorPhoto == nil {
			meta.ActorPhoto = make(map[string]string)
		}
		meta.ActorPhoto[name] = page.AbsURL(src)
		if !containsString(meta.Actor, name) {
			meta.Actor = append(meta.Actor, name)
		}
	})

	meta.Extrafanart = page.Attrs("a.sample-box", "href")
	return meta, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
