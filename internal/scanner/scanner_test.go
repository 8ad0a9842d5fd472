package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"mdc/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Common.SourceFolder = t.TempDir()
	cfg.Common.SuccessOutputFolder = t.TempDir()
	cfg.Common.FailedOutputFolder = t.TempDir()
	return cfg
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("xx"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func scanPaths(t *testing.T, cfg *config.Config) ([]string, *Stats) {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	paths, stats, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	sort.Strings(paths)
	return paths, stats
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestScanExtensionsAndTrailers(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "DEF-456.MKV"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "GHI-789-trailer.mp4"))
	touch(t, filepath.Join(root, "sub", "JKL-012.avi"))

	paths, stats := scanPaths(t, cfg)
	got := names(paths)
	want := []string{"ABC-123.mp4", "DEF-456.MKV", "JKL-012.avi"}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
}

func TestScanEscapeFolders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Escape.Folders = "extras,behind the scenes"
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "extras", "DEF-456.mp4"))

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "ABC-123.mp4" {
		t.Errorf("paths = %v, want only ABC-123.mp4", names(paths))
	}
}

func TestScanEscapeFoldersIgnoredInAnalysis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.MainMode = config.ModeAnalysis
	cfg.Escape.Folders = "extras"
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "extras", "DEF-456.mp4"))

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 {
		t.Errorf("analysis mode must scan escape folders, got %v", names(paths))
	}
}

func TestScanFilterRegex(t *testing.T) {
	cfg := testConfig(t)
	cfg.Escape.Filter = `ABC-`
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "DEF-456.mp4"))

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "ABC-123.mp4" {
		t.Errorf("paths = %v, want only ABC-123.mp4", names(paths))
	}
}

func TestScanFailedList(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.LinkMode = config.LinkSoft
	root := cfg.Common.SourceFolder
	failed := touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "DEF-456.mp4"))
	if err := AppendFailedList(FailedListPath(cfg), failed); err != nil {
		t.Fatalf("AppendFailedList: %v", err)
	}

	paths, stats := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "DEF-456.mp4" {
		t.Errorf("paths = %v, want only DEF-456.mp4", names(paths))
	}
	if stats.SkipFailed != 1 {
		t.Errorf("SkipFailed = %d, want 1", stats.SkipFailed)
	}
}

func TestScanFailedListSuppressed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.LinkMode = config.LinkSoft
	cfg.Common.IgnoreFailedList = true
	root := cfg.Common.SourceFolder
	failed := touch(t, filepath.Join(root, "ABC-123.mp4"))
	if err := AppendFailedList(FailedListPath(cfg), failed); err != nil {
		t.Fatal(err)
	}

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 {
		t.Errorf("suppressed failed list must not skip, got %v", names(paths))
	}
}

func TestScanFailedListNotAppliedInMoveMode(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.Common.SourceFolder
	failed := touch(t, filepath.Join(root, "ABC-123.mp4"))
	if err := AppendFailedList(FailedListPath(cfg), failed); err != nil {
		t.Fatal(err)
	}

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 {
		t.Errorf("move mode must ignore the failed list, got %v", names(paths))
	}
}

func TestScanNFOSkipDaysInAnalysis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.MainMode = config.ModeAnalysis
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "ABC-123.nfo"))
	touch(t, filepath.Join(root, "DEF-456.mp4"))

	paths, stats := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "DEF-456.mp4" {
		t.Errorf("paths = %v, want only DEF-456.mp4", names(paths))
	}
	if stats.SkipNFODays != 1 {
		t.Errorf("SkipNFODays = %d, want 1", stats.SkipNFODays)
	}
}

func TestScanSuccessNFOWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.LinkMode = config.LinkSoft
	root := cfg.Common.SourceFolder
	touch(t, filepath.Join(root, "ABC-123.mp4"))
	touch(t, filepath.Join(root, "DEF-456.mp4"))
	touch(t, filepath.Join(cfg.Common.SuccessOutputFolder, "ABC-123", "abc-123.nfo"))

	paths, stats := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "DEF-456.mp4" {
		t.Errorf("paths = %v, want only DEF-456.mp4", names(paths))
	}
	if stats.SkipSuccessNFO != 1 {
		t.Errorf("SkipSuccessNFO = %d, want 1", stats.SkipSuccessNFO)
	}
}

func TestScanSymlinkSkipped(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.Common.SourceFolder
	target := touch(t, filepath.Join(root, "ABC-123.mp4"))
	link := filepath.Join(root, "DEF-456.mp4")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink unavailable: %v", err)
	}

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 1 || filepath.Base(paths[0]) != "ABC-123.mp4" {
		t.Errorf("paths = %v, want only the regular file", names(paths))
	}
}

func TestScanHardlinkFlag(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.Common.SourceFolder
	target := touch(t, filepath.Join(root, "ABC-123.mp4"))
	link := filepath.Join(root, "DEF-456.mp4")
	if err := os.Link(target, link); err != nil {
		t.Skipf("hardlink unavailable: %v", err)
	}

	paths, _ := scanPaths(t, cfg)
	if len(paths) != 0 {
		t.Errorf("hardlinked files must be skipped by default, got %v", names(paths))
	}

	cfg.Common.ScanHardlink = true
	paths, _ = scanPaths(t, cfg)
	if len(paths) != 2 {
		t.Errorf("scan_hardlink must accept both, got %v", names(paths))
	}
}

func TestReadFailedListMissing(t *testing.T) {
	set, err := ReadFailedList(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil {
		t.Fatalf("ReadFailedList: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v, want empty", set)
	}
}
