package datatype

import (
	"strconv"
	"strings"
	"time"
)

// Image cut hints consumed by post-processing hooks.
const (
	ImageCutCopy  = 0 // use the cover as-is
	ImageCutSmart = 1 // right-half / smart crop
	ImageCutSmall = 3 // dedicated small poster available
)

// Metadata is the canonical record produced by scraper adapters and
// consumed by the sidecar emitter and the file placer.
type Metadata struct {
	Number      string            `json:"number"`
	Title       string            `json:"title"`
	Studio      string            `json:"studio"`
	Release     string            `json:"release"` // YYYY-MM-DD
	Year        string            `json:"year"`
	Outline     string            `json:"outline"`
	Runtime     string            `json:"runtime"` // minutes, digits only
	Director    string            `json:"director"`
	Actor       []string          `json:"actor"`
	ActorPhoto  map[string]string `json:"actor_photo,omitempty"`
	Cover       string            `json:"cover"`
	CoverSmall  string            `json:"cover_small"`
	Extrafanart []string          `json:"extrafanart,omitempty"`
	Trailer     string            `json:"trailer,omitempty"`
	Tag         []string          `json:"tag,omitempty"`
	Label       string            `json:"label,omitempty"`
	Series      string            `json:"series,omitempty"`
	UserRating  float64           `json:"userrating,omitempty"`
	UserVotes   int               `json:"uservotes,omitempty"`
	Uncensored  bool              `json:"uncensored"`
	Website     string            `json:"website"`
	Source      string            `json:"source"`
	ImageCut    int               `json:"imagecut"`
}

// uncensoredMarkers are matched against the title and tags after parsing.
var uncensoredMarkers = []string{"無码", "無修正", "uncensored", "无码"}

// Valid reports whether the record satisfies the minimum contract: a
// title, a number, and at least one cover URL.
func (m *Metadata) Valid() bool {
	if m == nil {
		return false
	}
	return m.Title != "" && m.Number != "" && (m.Cover != "" || m.CoverSmall != "")
}

// Normalize applies the post-parse rules shared by every adapter: derive
// the year from the release date, strip runtime suffixes, and re-evaluate
// the uncensored flag from title and tags.
func (m *Metadata) Normalize() {
	if m.Year == "" && m.Release != "" {
		m.Year = yearOf(m.Release)
	}

	m.Runtime = strings.TrimSpace(m.Runtime)
	m.Runtime = strings.TrimSuffix(m.Runtime, "min")
	m.Runtime = strings.TrimSuffix(m.Runtime, "mi")
	m.Runtime = strings.TrimSpace(m.Runtime)

	if !m.Uncensored {
		m.Uncensored = containsUncensoredMarker(m.Title) || anyTagUncensored(m.Tag)
	}
}

// FirstActor returns the lead actor, or empty when none is known.
func (m *Metadata) FirstActor() string {
	if len(m.Actor) == 0 {
		return ""
	}
	return m.Actor[0]
}

// RuntimeMinutes returns the runtime as an integer, 0 when unknown.
func (m *Metadata) RuntimeMinutes() int {
	n, err := strconv.Atoi(strings.TrimSpace(m.Runtime))
	if err != nil {
		return 0
	}
	return n
}

// PosterURL returns the preferred poster source: the small cover when
// present, else the large cover.
func (m *Metadata) PosterURL() string {
	if m.CoverSmall != "" {
		return m.CoverSmall
	}
	return m.Cover
}

func yearOf(release string) string {
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006.01.02", "20060102"} {
		if t, err := time.Parse(layout, release); err == nil {
			return strconv.Itoa(t.Year())
		}
	}
	if len(release) >= 4 {
		if y, err := strconv.Atoi(release[:4]); err == nil && y > 1900 {
			return release[:4]
		}
	}
	return ""
}

func containsUncensoredMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range uncensoredMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func anyTagUncensored(tags []string) bool {
	for _, tag := range tags {
		if containsUncensoredMarker(tag) {
			return true
		}
	}
	return false
}
