package scraper

import (
	"context"
	"strings"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// FC2 scrapes adult.contents.fc2.com article pages. FC2 articles are
// keyed on the bare digit run of the ID, so the adapter implements
// Scrape to normalize before fetching.
type FC2 struct {
	base string
}

// NewFC2 creates the adapter with the default origin.
func NewFC2() *FC2 {
	return &FC2{base: "https://adult.contents.fc2.com"}
}

func (f *FC2) Name() string                { return "fc2" }
func (f *FC2) PreferredIDFormat() IDFormat { return FormatContent }
func (f *FC2) ImageCutDefault() int        { return datatype.ImageCutCopy }

func (f *FC2) URLFor(id string) string {
	return f.base + "/article/" + fc2Digits(id) + "/"
}

// Scrape fetches the article page for the digit portion of the ID.
func (f *FC2) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	digits := fc2Digits(id.DisplayID)
	if digits == "" {
		return nil, apperrors.NewNotFound(f.Name(), id.DisplayID)
	}
	pageURL := f.base + "/article/" + digits + "/"
	page, err := env.FetchPage(ctx, pageURL, f.Name())
	if err != nil {
		return nil, err
	}
	meta, err := f.Parse(page, pageURL)
	if err != nil {
		return nil, err
	}
	meta.Number = "FC2-" + digits
	return meta, nil
}

// Parse extracts an FC2 article page.
func (f *FC2) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div.items_article_headerInfo h3")
	if title == "" {
		title = page.Meta("og:title")
	}
	if title == "" {
		return nil, apperrors.NewParseFailure(f.Name(), "title not found")
	}

	meta := &datatype.Metadata{
		Title:      title,
		Studio:     "FC2",
		Cover:      page.Attr("div.items_article_MainitemThumb img", "src"),
		Website:    pageURL,
		Uncensored: false,
	}
	if meta.Cover == "" {
		meta.Cover = page.Meta("og:image")
	}

	// The seller name doubles as the label.
	if seller := page.Text("div.items_article_headerInfo ul li a"); seller != "" {
		meta.Label = seller
		meta.Actor = []string{seller}
	}
	if date := page.Text("div.items_article_Releasedate p"); date != "" {
		meta.Release = strings.TrimSpace(strings.TrimPrefix(date, "販売日 :"))
	}
	meta.Tag = page.Texts("a.tag.tagTag")
	return meta, nil
}

// fc2Digits returns the numeric payload of an FC2 ID in any of its
// accepted spellings.
func fc2Digits(id string) string {
	s := strings.ToUpper(id)
	s = strings.TrimPrefix(s, "FC2")
	s = strings.TrimLeft(s, "-_")
	s = strings.TrimPrefix(s, "PPV")
	s = strings.TrimLeft(s, "-_")
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}
