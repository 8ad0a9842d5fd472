package scraper

import (
	"context"
	"testing"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
	"mdc/pkg/web"
)

// fakeAdapter implements both Adapter and Scraper without touching the
// network.
type fakeAdapter struct {
	name   string
	meta   *datatype.Metadata
	err    error
	called *int
}

func (f *fakeAdapter) Name() string                { return f.name }
func (f *fakeAdapter) PreferredIDFormat() IDFormat { return FormatDisplay }
func (f *fakeAdapter) ImageCutDefault() int        { return datatype.ImageCutSmart }
func (f *fakeAdapter) URLFor(id string) string     { return "https://" + f.name + ".example/" + id }

func (f *fakeAdapter) Parse(page *web.Page, pageURL string) (*datatype.Metadata, error) {
	return f.meta, f.err
}

func (f *fakeAdapter) Scrape(ctx context.Context, id *avid.ParsedID, env *Env) (*datatype.Metadata, error) {
	if f.called != nil {
		*f.called++
	}
	if f.err != nil {
		return nil, f.err
	}
	// Return a copy so the registry can mutate freely.
	m := *f.meta
	return &m, nil
}

func validMeta(number string) *datatype.Metadata {
	return &datatype.Metadata{
		Number: number,
		Title:  "Some Title",
		Cover:  "https://img.example/cover.jpg",
	}
}

func testID(t *testing.T, name string) *avid.ParsedID {
	t.Helper()
	id, err := avid.Parse(name)
	if err != nil {
		t.Fatalf("Parse(%q): %v", name, err)
	}
	return id
}

func TestSearchFirstValidWins(t *testing.T) {
	first, second := 0, 0
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", meta: validMeta("ABC-123"), called: &first})
	r.Register(&fakeAdapter{name: "beta", meta: validMeta("ABC-123"), called: &second})

	meta, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if meta.Source != "alpha" {
		t.Errorf("Source = %q, want alpha", meta.Source)
	}
	if first != 1 || second != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", first, second)
	}
	if meta.ImageCut != datatype.ImageCutSmart {
		t.Errorf("ImageCut = %d, want %d", meta.ImageCut, datatype.ImageCutSmart)
	}
}

func TestSearchAdvancesPastRecoverableFailure(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", err: apperrors.NewNotFound("alpha", "ABC-123")})
	r.Register(&fakeAdapter{name: "beta", meta: validMeta("ABC-123")})

	meta, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if meta.Source != "beta" {
		t.Errorf("Source = %q, want beta", meta.Source)
	}
}

func TestSearchAdvancesPastInvalidRecord(t *testing.T) {
	r := NewRegistry(&Env{})
	// Missing cover, fails validity.
	r.Register(&fakeAdapter{name: "alpha", meta: &datatype.Metadata{Number: "ABC-123", Title: "t"}})
	r.Register(&fakeAdapter{name: "beta", meta: validMeta("ABC-123")})

	meta, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if meta.Source != "beta" {
		t.Errorf("Source = %q, want beta", meta.Source)
	}
}

func TestSearchAllSourcesExhausted(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", err: apperrors.NewNotFound("alpha", "ABC-123")})
	r.Register(&fakeAdapter{name: "beta", err: apperrors.NewNetwork("beta", context.DeadlineExceeded)})

	_, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{})
	if !apperrors.IsKind(err, apperrors.KindAllSourcesExhausted) {
		t.Fatalf("err = %v, want all-sources-exhausted", err)
	}
}

func TestSearchSkipsUnregisteredSource(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "beta", meta: validMeta("ABC-123")})

	meta, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{
		Sources: []string{"nosuch", "beta"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if meta.Source != "beta" {
		t.Errorf("Source = %q, want beta", meta.Source)
	}
}

func TestSearchSourceRankingOverride(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", meta: validMeta("ABC-123")})
	r.Register(&fakeAdapter{name: "beta", meta: validMeta("ABC-123")})

	meta, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{
		Sources: []string{"beta", "alpha"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if meta.Source != "beta" {
		t.Errorf("Source = %q, want beta", meta.Source)
	}
}

func TestSearchCancelled(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", meta: validMeta("ABC-123")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Search(ctx, testID(t, "ABC-123.mp4"), SearchOptions{})
	if !apperrors.IsKind(err, apperrors.KindCancelled) {
		t.Fatalf("err = %v, want cancelled", err)
	}
}

func TestSearchSpecifiedURLUnknownSource(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", meta: validMeta("ABC-123")})

	_, err := r.Search(context.Background(), testID(t, "ABC-123.mp4"), SearchOptions{
		SpecifiedURL: "https://nobody-knows.example/page",
	})
	if !apperrors.IsKind(err, apperrors.KindAllSourcesExhausted) {
		t.Fatalf("err = %v, want all-sources-exhausted", err)
	}
}

func TestSearchUncensoredPropagation(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "alpha", meta: validMeta("ABC-123")})

	id := testID(t, "ABC-123-U.mp4")
	if !id.Attrs.Uncensored {
		t.Fatal("expected -U suffix to be flagged uncensored")
	}
	meta, err := r.Search(context.Background(), id, SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !meta.Uncensored {
		t.Error("Uncensored flag not propagated from parsed ID")
	}
}

func TestInferSource(t *testing.T) {
	r := NewRegistry(&Env{})
	r.Register(&fakeAdapter{name: "javbus", meta: validMeta("ABC-123")})

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.javbus.com/ABC-123", "javbus"},
		{"https://www.javlibrary.com/ja/?v=javme2ze4i", "javlibrary"},
		{"https://avmoo.com/cn/movie/abc", "avmoo"},
		{"https://adult.contents.fc2.com/article/1234567/", "fc2"},
		{"https://my.tokyo-hot.com/product/12345/", "tokyohot"},
		{"https://www.themoviedb.org/movie/550", "tmdb"},
		{"https://www.imdb.com/title/tt0137523/", "imdb"},
		{"https://example.org/whatever", "unknown"},
	}
	for _, tt := range tests {
		if got := r.InferSource(tt.url); got != tt.want {
			t.Errorf("InferSource(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNamesOrder(t *testing.T) {
	r := NewDefaultRegistry(&Env{})
	names := r.Names()
	want := []string{"javlibrary", "javbus", "avmoo", "fc2", "tokyohot", "tmdb", "imdb"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
