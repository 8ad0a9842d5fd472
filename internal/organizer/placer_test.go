package organizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mdc/internal/avid"
	"mdc/internal/config"
	"mdc/internal/datatype"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Common.SourceFolder = t.TempDir()
	cfg.Common.SuccessOutputFolder = t.TempDir()
	cfg.NameRule.LocationRule = "number"
	cfg.NameRule.NamingRule = "number"
	return cfg
}

func testMeta(number string) *datatype.Metadata {
	return &datatype.Metadata{
		Number: number,
		Title:  "Test Movie " + number,
		Studio: "Test Studio",
		Actor:  []string{"Test Actor"},
		Year:   "2024",
		Cover:  "https://img.example/cover.jpg",
	}
}

func parseID(t *testing.T, name string) *avid.ParsedID {
	t.Helper()
	id, err := avid.Parse(name)
	if err != nil {
		t.Fatalf("Parse(%q): %v", name, err)
	}
	return id
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("xx"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRender(t *testing.T) {
	meta := testMeta("TEST-001")
	tests := []struct {
		rule string
		want string
	}{
		{"number", "TEST-001"},
		{"studio/number", "Test Studio/TEST-001"},
		{"actor", "Test Actor"},
		{"number title", "TEST-001 Test Movie TEST-001"},
		{"'number'", "TEST-001"},
		{"number+year", "TEST-0012024"},
	}
	for _, tt := range tests {
		if got := Render(tt.rule, meta); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestRenderEmptyFallsBackToNumber(t *testing.T) {
	meta := testMeta("TEST-001")
	meta.Actor = nil
	if got := Render("actor", meta); got != "TEST-001" {
		t.Errorf("Render(actor) with no actors = %q, want TEST-001", got)
	}
}

func TestRenderDropsEmptySegments(t *testing.T) {
	meta := testMeta("TEST-001")
	meta.Actor = nil
	meta.Series = ""
	tests := []struct {
		rule string
		want string
	}{
		{"actor/number", "TEST-001"},
		{"series/number", "TEST-001"},
		{"actor/series", "TEST-001"},
		{"actor/studio/number", "Test Studio/TEST-001"},
	}
	for _, tt := range tests {
		if got := Render(tt.rule, meta); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestPlanDropsEmptyLocationSegments(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameRule.LocationRule = "actor/number"
	meta := testMeta("TEST-001")
	meta.Actor = nil

	plan := NewPlacer(cfg).Plan("TEST-001.mp4", parseID(t, "TEST-001.mp4"), meta)
	want := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001")
	if plan.Dir != want {
		t.Errorf("Plan dir = %q, want %q", plan.Dir, want)
	}
}

func TestBaseNameTruncatesTitle(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameRule.NamingRule = "title"
	cfg.NameRule.MaxTitleLen = 10
	meta := testMeta("TEST-001")
	meta.Title = "あいうえおかきくけこさしすせそ"

	got := NewPlacer(cfg).BaseName("TEST-001.mp4", parseID(t, "TEST-001.mp4"), meta)
	if want := "あいうえおかきくけこ"; got != want {
		t.Errorf("BaseName = %q, want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"trailing dots...", "trailing dots"},
		{"ok name", "ok name"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if got := Sanitize(string(long)); len(got) != 200 {
		t.Errorf("Sanitize(long) length = %d, want 200", len(got))
	}

	// The cap counts runes, not bytes, so a CJK segment must not be
	// split mid-sequence.
	wide := strings.Repeat("映", 300)
	if got := []rune(Sanitize(wide)); len(got) != 200 {
		t.Errorf("Sanitize(wide) rune length = %d, want 200", len(got))
	}
}

func TestPartFromStem(t *testing.T) {
	tests := []struct {
		stem string
		want int
	}{
		{"MOVIE-001-CD1", 1},
		{"MOVIE-001-CD2", 2},
		{"MOVIE-001_part3", 3},
		{"MOVIE-001", 0},
		{"MOVIE-001-C", 0},
	}
	for _, tt := range tests {
		if got := PartFromStem(tt.stem); got != tt.want {
			t.Errorf("PartFromStem(%q) = %d, want %d", tt.stem, got, tt.want)
		}
	}
}

func TestPlaceMoveSingleFile(t *testing.T) {
	cfg := testConfig(t)
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")

	placer := NewPlacer(cfg)
	dest, skipped, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if skipped {
		t.Fatal("unexpected skip")
	}

	want := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001", "TEST-001.mp4")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Error("source should be gone after move")
	}
}

func TestPlaceStudioLocationRule(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameRule.LocationRule = "studio/number"
	source := writeSource(t, cfg.Common.SourceFolder, "MOVIE-001.mp4")

	placer := NewPlacer(cfg)
	dest, _, err := placer.Place(source, parseID(t, "MOVIE-001.mp4"), testMeta("MOVIE-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(cfg.Common.SuccessOutputFolder, "Test Studio", "MOVIE-001", "MOVIE-001.mp4")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
}

func TestPlaceCNSubSuffix(t *testing.T) {
	cfg := testConfig(t)
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001-C.mp4")

	id := parseID(t, "TEST-001-C.mp4")
	if !id.Attrs.CNSub {
		t.Fatal("expected cn_sub to be inferred")
	}
	placer := NewPlacer(cfg)
	dest, _, err := placer.Place(source, id, testMeta("TEST-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001", "TEST-001-C.mp4")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
}

func TestPlaceMultiPart(t *testing.T) {
	cfg := testConfig(t)
	placer := NewPlacer(cfg)

	for _, name := range []string{"MOVIE-001-CD1.mp4", "MOVIE-001-CD2.mp4"} {
		source := writeSource(t, cfg.Common.SourceFolder, name)
		dest, _, err := placer.Place(source, parseID(t, name), testMeta("MOVIE-001"))
		if err != nil {
			t.Fatalf("Place(%s): %v", name, err)
		}
		want := filepath.Join(cfg.Common.SuccessOutputFolder, "MOVIE-001", name)
		if dest != want {
			t.Errorf("dest = %q, want %q", dest, want)
		}
	}
}

func TestPlaceSkipExisting(t *testing.T) {
	cfg := testConfig(t)
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")

	destDir := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(destDir, "TEST-001.mp4")
	if err := os.WriteFile(existing, []byte("existing content"), 0o644); err != nil {
		t.Fatal(err)
	}

	placer := NewPlacer(cfg)
	_, skipped, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if !skipped {
		t.Fatal("expected skip")
	}
	if _, err := os.Stat(source); err != nil {
		t.Error("source must remain after skip")
	}
	data, err := os.ReadFile(existing)
	if err != nil || string(data) != "existing content" {
		t.Errorf("destination changed: %q, %v", data, err)
	}
}

func TestPlaceOverwriteWhenSkipDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.SkipExisting = false
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")

	destDir := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(destDir, "TEST-001.mp4")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	placer := NewPlacer(cfg)
	_, skipped, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if skipped {
		t.Fatal("unexpected skip")
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "xx" {
		t.Errorf("destination = %q, want replaced content", data)
	}
}

func TestPlaceSoftLink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.LinkMode = config.LinkSoft
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")

	placer := NewPlacer(cfg)
	dest, _, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001"))
	if err != nil {
		t.Skipf("symlink unavailable: %v", err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Error("source must remain with soft link")
	}
	if fi, err := os.Lstat(dest); err != nil || fi.Mode()&os.ModeSymlink == 0 {
		t.Errorf("destination is not a symlink: %v", err)
	}
}

func TestPlaceHardLink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.LinkMode = config.LinkHard
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")

	placer := NewPlacer(cfg)
	dest, _, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Error("source must remain with hard link")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestPlaceSubtitleCoPlacement(t *testing.T) {
	cfg := testConfig(t)
	source := writeSource(t, cfg.Common.SourceFolder, "TEST-001.mp4")
	writeSource(t, cfg.Common.SourceFolder, "TEST-001.srt")
	writeSource(t, cfg.Common.SourceFolder, "TEST-001.ass")
	writeSource(t, cfg.Common.SourceFolder, "TEST-001.txt")

	placer := NewPlacer(cfg)
	if _, _, err := placer.Place(source, parseID(t, "TEST-001.mp4"), testMeta("TEST-001")); err != nil {
		t.Fatalf("Place: %v", err)
	}

	destDir := filepath.Join(cfg.Common.SuccessOutputFolder, "TEST-001")
	for _, want := range []string{"TEST-001.srt", "TEST-001.ass"} {
		if _, err := os.Stat(filepath.Join(destDir, want)); err != nil {
			t.Errorf("subtitle %s missing: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(destDir, "TEST-001.txt")); !os.IsNotExist(err) {
		t.Error("non-subtitle extension must not be co-placed")
	}
}
