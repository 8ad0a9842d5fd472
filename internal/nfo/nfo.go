// Package nfo renders Kodi/Emby-compatible XML sidecars from scraped
// metadata.
package nfo

import (
	"encoding/xml"
	"fmt"
	"os"

	"mdc/internal/datatype"
)

// movie is the sidecar document. Field order here is emission order.
type movie struct {
	XMLName       xml.Name `xml:"movie"`
	Title         string   `xml:"title,omitempty"`
	OriginalTitle string   `xml:"originaltitle,omitempty"`
	SortTitle     string   `xml:"sorttitle,omitempty"`
	Rating        string   `xml:"rating,omitempty"`
	CriticRating  string   `xml:"criticrating,omitempty"`
	Votes         int      `xml:"votes,omitempty"`
	Outline       string   `xml:"outline,omitempty"`
	Plot          string   `xml:"plot,omitempty"`
	Runtime       int      `xml:"runtime,omitempty"`
	ReleaseDate   string   `xml:"releasedate,omitempty"`
	Premiered     string   `xml:"premiered,omitempty"`
	Year          string   `xml:"year,omitempty"`
	Director      string   `xml:"director,omitempty"`
	Studio        string   `xml:"studio,omitempty"`
	Maker         string   `xml:"maker,omitempty"`
	Label         string   `xml:"label,omitempty"`
	Set           string   `xml:"set,omitempty"`
	Tag           []string `xml:"tag,omitempty"`
	Genre         []string `xml:"genre,omitempty"`
	Actor         []actor  `xml:"actor,omitempty"`
	Thumb         string   `xml:"thumb,omitempty"`
	Fanart        *fanart  `xml:"fanart,omitempty"`
	Trailer       string   `xml:"trailer,omitempty"`
	Num           string   `xml:"num,omitempty"`
	ID            string   `xml:"id,omitempty"`
	Website       string   `xml:"website,omitempty"`
	Source        string   `xml:"source,omitempty"`
}

type actor struct {
	Name  string `xml:"name"`
	Thumb string `xml:"thumb,omitempty"`
}

type fanart struct {
	Thumb string `xml:"thumb"`
}

// Render produces the sidecar XML for one movie, complete with the XML
// declaration and a trailing newline.
func Render(meta *datatype.Metadata, displayID string) (string, error) {
	doc := movie{
		Title:         meta.Title,
		OriginalTitle: meta.Title,
		SortTitle:     displayID,
		Votes:         meta.UserVotes,
		Outline:       meta.Outline,
		Plot:          meta.Outline,
		Runtime:       meta.RuntimeMinutes(),
		ReleaseDate:   meta.Release,
		Premiered:     meta.Release,
		Year:          meta.Year,
		Director:      meta.Director,
		Studio:        meta.Studio,
		Maker:         meta.Studio,
		Label:         meta.Label,
		Set:           meta.Series,
		Tag:           meta.Tag,
		Genre:         meta.Tag,
		Thumb:         meta.Cover,
		Trailer:       meta.Trailer,
		Num:           displayID,
		ID:            displayID,
		Website:       meta.Website,
		Source:        meta.Source,
	}
	if meta.UserRating > 0 {
		doc.Rating = fmt.Sprintf("%.1f", meta.UserRating)
		doc.CriticRating = doc.Rating
	}
	if meta.Cover != "" {
		doc.Fanart = &fanart{Thumb: meta.Cover}
	}
	for _, name := range meta.Actor {
		a := actor{Name: name}
		if meta.ActorPhoto != nil {
			a.Thumb = meta.ActorPhoto[name]
		}
		doc.Actor = append(doc.Actor, a)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering sidecar: %w", err)
	}
	return xml.Header + string(body) + "\n", nil
}

// WriteFile renders the sidecar and writes it to path.
func WriteFile(path string, meta *datatype.Metadata, displayID string) error {
	text, err := Render(meta, displayID)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
