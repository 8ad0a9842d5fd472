package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

var reScore = regexp.MustCompile(`\(([\d.]+)\)`)

// JavLibrary scrapes the Japanese tables on javlibrary.com. A keyword
// search either redirects to the detail page or returns a result list.
type JavLibrary struct {
	base string
}

// NewJavLibrary creates the adapter with the default origin.
func NewJavLibrary() *JavLibrary {
	return &JavLibrary{base: "https://www.javlibrary.com/ja"}
}

func (j *JavLibrary) Name() string                { return "javlibrary" }
func (j *JavLibrary) PreferredIDFormat() IDFormat { return FormatContent }
func (j *JavLibrary) ImageCutDefault() int        { return datatype.ImageCutSmart }

func (j *JavLibrary) URLFor(id string) string {
	return j.base + "/vl_searchbyid.php?keyword=" + url.QueryEscape(id)
}

// Scrape handles the search step: when the keyword search lands on a
// result list instead of a detail page, the first hit is followed.
func (j *JavLibrary) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	searchURL := j.URLFor(id.ContentID)
	page, err := env.FetchPage(ctx, searchURL, j.Name())
	if err != nil {
		return nil, err
	}

	if page.Find("div#video_title").Length() == 0 {
		// Result list. Follow the first video link.
		href := page.Attr("div.videos div.video a", "href")
		if href == "" {
			return nil, apperrors.NewNotFound(j.Name(), id.DisplayID)
		}
		page, err = env.FetchPage(ctx, href, j.Name())
		if err != nil {
			return nil, err
		}
		searchURL = href
	}
	return j.Parse(page, searchURL)
}

// Parse extracts a detail page built around the #video_* table cells.
func (j *JavLibrary) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	title := page.Text("div#video_title a")
	if title == "" {
		return nil, apperrors.NewParseFailure(j.Name(), "title not found")
	}
	number := page.Text("div#video_id td.text")
	// The title begins with the ID; strip it off.
	title = strings.TrimSpace(strings.TrimPrefix(title, number))

	meta := &datatype.Metadata{
		Number:   number,
		Title:    title,
		Release:  page.Text("div#video_date td.text"),
		Runtime:  page.Text("div#video_length span.text"),
		Director: page.Text("div#video_director span.director a"),
		Studio:   page.Text("div#video_maker span.maker a"),
		Label:    page.Text("div#video_label span.label a"),
		Cover:    page.Attr("img#video_jacket_img", "src"),
		Website:  pageURL,
	}
	meta.Tag = page.Texts("div#video_genres span.genre a")
	meta.Actor = page.Texts("div#video_cast span.star a")

	if score := page.Text("div#video_review span.score"); score != "" {
		if m := reScore.FindStringSubmatch(score); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				// Site scale is 0-10 already.
				meta.UserRating = v
			}
		}
	}
	return meta, nil
}
