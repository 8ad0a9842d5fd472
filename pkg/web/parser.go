package web

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "mdc/internal/errors"
)

// Page wraps a parsed HTML document together with the URL it came
// from, so relative links can be resolved.
type Page struct {
	doc  *goquery.Document
	base *url.URL
}

// ParsePage parses an HTML document. pageURL may be empty when
// relative-link resolution is not needed.
func ParsePage(html, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParseFailure, "parser", "parsing HTML", err)
	}
	p := &Page{doc: doc}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			p.base = u
		}
	}
	return p, nil
}

// Find returns the selection for a CSS selector.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// Title returns the document title.
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Text returns the trimmed text of the first match.
func (p *Page) Text(selector string) string {
	return strings.TrimSpace(p.doc.Find(selector).First().Text())
}

// Texts returns the trimmed text of every match, skipping empties.
func (p *Page) Texts(selector string) []string {
	var out []string
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns an attribute of the first match, resolved against the
// page URL when it looks like a link.
func (p *Page) Attr(selector, attr string) string {
	val, ok := p.doc.Find(selector).First().Attr(attr)
	if !ok {
		return ""
	}
	val = strings.TrimSpace(val)
	if attr == "href" || attr == "src" {
		return p.AbsURL(val)
	}
	return val
}

// Attrs returns an attribute of every match.
func (p *Page) Attrs(selector, attr string) []string {
	var out []string
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if val, ok := s.Attr(attr); ok {
			val = strings.TrimSpace(val)
			if val == "" {
				return
			}
			if attr == "href" || attr == "src" {
				val = p.AbsURL(val)
			}
			out = append(out, val)
		}
	})
	return out
}

// Meta returns the content of a meta tag matched by name or property.
func (p *Page) Meta(key string) string {
	sel := `meta[name="` + key + `"], meta[property="` + key + `"]`
	if content, ok := p.doc.Find(sel).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

// LabeledText finds the row whose label cell equals label and returns
// the trimmed text of its value cell. Sites that present metadata as
// definition tables are parsed this way.
func (p *Page) LabeledText(rowSelector, label string) string {
	var value string
	p.doc.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Children()
		if cells.Length() < 2 {
			return true
		}
		if strings.TrimSpace(cells.First().Text()) == label {
			value = strings.TrimSpace(cells.Eq(1).Text())
			return false
		}
		return true
	})
	return value
}

// AbsURL resolves a possibly-relative URL against the page URL.
func (p *Page) AbsURL(ref string) string {
	if ref == "" || p.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.base.ResolveReference(u).String()
}
