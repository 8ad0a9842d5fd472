package datatype

import "testing"

func TestMetadataValid(t *testing.T) {
	tests := []struct {
		name  string
		meta  Metadata
		valid bool
	}{
		{"complete", Metadata{Number: "ABC-123", Title: "t", Cover: "http://x/c.jpg"}, true},
		{"small cover only", Metadata{Number: "ABC-123", Title: "t", CoverSmall: "http://x/p.jpg"}, true},
		{"missing title", Metadata{Number: "ABC-123", Cover: "http://x/c.jpg"}, false},
		{"missing number", Metadata{Title: "t", Cover: "http://x/c.jpg"}, false},
		{"no cover", Metadata{Number: "ABC-123", Title: "t"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, expected %v", got, tt.valid)
			}
		})
	}

	var nilMeta *Metadata
	if nilMeta.Valid() {
		t.Error("nil metadata must not be valid")
	}
}

func TestNormalizeDerivesYear(t *testing.T) {
	m := Metadata{Release: "2023-06-15"}
	m.Normalize()
	if m.Year != "2023" {
		t.Errorf("Year = %q, expected 2023", m.Year)
	}

	m = Metadata{Release: "2021/02/01"}
	m.Normalize()
	if m.Year != "2021" {
		t.Errorf("Year = %q, expected 2021", m.Year)
	}

	// Explicit year wins over the release date.
	m = Metadata{Release: "2023-06-15", Year: "2020"}
	m.Normalize()
	if m.Year != "2020" {
		t.Errorf("Year = %q, expected 2020", m.Year)
	}
}

func TestNormalizeRuntime(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"120 min", "120"},
		{"95min", "95"},
		{"88 mi", "88"},
		{"60", "60"},
		{"", ""},
	}

	for _, tt := range tests {
		m := Metadata{Runtime: tt.in}
		m.Normalize()
		if m.Runtime != tt.expected {
			t.Errorf("Normalize runtime %q = %q, expected %q", tt.in, m.Runtime, tt.expected)
		}
	}
}

func TestNormalizeUncensored(t *testing.T) {
	tests := []struct {
		name       string
		meta       Metadata
		uncensored bool
	}{
		{"title marker zh", Metadata{Title: "タイトル 無修正"}, true},
		{"title marker en", Metadata{Title: "Title Uncensored Edition"}, true},
		{"tag marker", Metadata{Title: "t", Tag: []string{"出演", "无码"}}, true},
		{"already set", Metadata{Uncensored: true}, true},
		{"plain", Metadata{Title: "t", Tag: []string{"出演"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.meta.Normalize()
			if tt.meta.Uncensored != tt.uncensored {
				t.Errorf("Uncensored = %v, expected %v", tt.meta.Uncensored, tt.uncensored)
			}
		})
	}
}

func TestPosterURL(t *testing.T) {
	m := Metadata{Cover: "http://x/big.jpg", CoverSmall: "http://x/small.jpg"}
	if m.PosterURL() != "http://x/small.jpg" {
		t.Errorf("PosterURL() = %q, expected small cover", m.PosterURL())
	}
	m.CoverSmall = ""
	if m.PosterURL() != "http://x/big.jpg" {
		t.Errorf("PosterURL() = %q, expected large cover", m.PosterURL())
	}
}
