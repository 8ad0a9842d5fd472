package scraper

import (
	"context"
	"net/url"
	"strings"

	"mdc/internal/avid"
	"mdc/internal/config"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// IDFormat declares which identifier form an adapter's URLs take.
type IDFormat int

const (
	// FormatDisplay is the human form, e.g. SSIS-123.
	FormatDisplay IDFormat = iota
	// FormatContent is the API form, e.g. ssis00123.
	FormatContent
)

// Adapter scrapes one origin. Parse must never touch the network; the
// registry (or a custom Scrape) owns all fetching.
type Adapter interface {
	Name() string
	PreferredIDFormat() IDFormat
	ImageCutDefault() int
	// URLFor builds the detail or search URL for an ID in the
	// adapter's preferred format.
	URLFor(id string) string
	// Parse extracts metadata from a fetched document.
	Parse(page *web.Page, pageURL string) (*datatype.Metadata, error)
}

// Scraper is implemented by adapters that need multi-step navigation
// (search-then-detail, POST searches, locale retries) instead of the
// registry's single-GET orchestration.
type Scraper interface {
	Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error)
}

// Env bundles the shared gateway and configuration handed to adapters.
type Env struct {
	Client *web.Client
	Config *config.Config
}

// FetchPage GETs a URL with any configured per-domain cookies and
// parses it, rejecting soft-404 pages.
func (e *Env) FetchPage(ctx context.Context, rawURL, source string) (*web.Page, error) {
	var opts *web.RequestOptions
	if e.Config != nil {
		if u, err := url.Parse(rawURL); err == nil {
			if cookie := e.Config.CookieHeader(u.Hostname()); cookie != "" {
				opts = &web.RequestOptions{Cookie: cookie}
			}
		}
	}
	html, err := e.Client.Get(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	page, err := web.ParsePage(html, rawURL)
	if err != nil {
		return nil, err
	}
	if title := page.Title(); notFoundTitle(title) {
		return nil, apperrors.NewNotFound(source, rawURL)
	}
	return page, nil
}

// notFoundTitle matches titles of pages that return 200 for missing
// entries.
func notFoundTitle(title string) bool {
	for _, pattern := range notFoundTitles {
		if pattern != "" && containsFold(title, pattern) {
			return true
		}
	}
	return false
}

var notFoundTitles = []string{
	"404 page not found",
	"404 not found",
	"página no encontrada",
	"未找到页面",
	"お探しの商品が見つかりません",
	"此页面不存在",
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
