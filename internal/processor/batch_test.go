package processor

import (
	"context"
	"os"
	"sync"
	"testing"

	"mdc/internal/avid"
	"mdc/internal/datatype"
	apperrors "mdc/internal/errors"
)

func TestProcessBatchStats(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.EmitNFO = false

	var paths []string
	for _, name := range []string{"AAA-001.mp4", "AAA-002.mp4", "AAA-003.mp4"} {
		paths = append(paths, writeSource(t, cfg.Common.SourceFolder, name))
	}
	// One input that cannot be parsed.
	paths = append(paths, writeSource(t, cfg.Common.SourceFolder, "随便起的名字.mp4"))

	proc := newProcessor(cfg, stubProvider())
	results, stats := proc.ProcessBatch(context.Background(), paths, nil)

	if stats.Total != len(paths) {
		t.Errorf("Total = %d, want %d", stats.Total, len(paths))
	}
	if got := stats.Succeeded + stats.Failed + stats.Skipped; got != stats.Total {
		t.Errorf("succeeded+failed+skipped = %d, want %d", got, stats.Total)
	}
	if stats.Succeeded != 3 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(results) != len(paths) {
		t.Errorf("len(results) = %d", len(results))
	}
}

func TestProcessBatchProgress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.EmitNFO = false

	var paths []string
	for _, name := range []string{"AAA-001.mp4", "AAA-002.mp4"} {
		paths = append(paths, writeSource(t, cfg.Common.SourceFolder, name))
	}

	var mu sync.Mutex
	var seen []int
	proc := newProcessor(cfg, stubProvider())
	proc.ProcessBatch(context.Background(), paths, func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(paths) {
			t.Errorf("total = %d, want %d", total, len(paths))
		}
		seen = append(seen, completed)
	})

	if len(seen) != len(paths) {
		t.Fatalf("progress calls = %d, want %d", len(seen), len(paths))
	}
	max := 0
	for _, c := range seen {
		if c > max {
			max = c
		}
	}
	if max != len(paths) {
		t.Errorf("final completed = %d, want %d", max, len(paths))
	}
}

func TestProcessBatchCancellation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.EmitNFO = false
	cfg.Common.MultiThreading = 1

	var paths []string
	for _, name := range []string{"AAA-001.mp4", "AAA-002.mp4", "AAA-003.mp4", "AAA-004.mp4"} {
		paths = append(paths, writeSource(t, cfg.Common.SourceFolder, name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := newProcessor(cfg, stubProvider())
	results, stats := proc.ProcessBatch(ctx, paths, nil)

	if stats.Total != len(paths) {
		t.Errorf("Total = %d", stats.Total)
	}
	for _, res := range results {
		if res.ErrorKind != apperrors.KindCancelled.String() {
			t.Errorf("result %s kind = %q, want cancelled", res.Path, res.ErrorKind)
		}
	}
	// Cancelled inputs stay where they were.
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("source %s missing after cancellation", path)
		}
	}
}

func TestProcessBatchIndependentFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Common.EmitNFO = false

	provider := ProviderFunc(func(ctx context.Context, id *avid.ParsedID) (*datatype.Metadata, error) {
		if id.DisplayID == "BBB-002" {
			return nil, apperrors.NewAllSourcesExhausted(id.DisplayID)
		}
		return &datatype.Metadata{
			Number: id.DisplayID,
			Title:  "t",
			Cover:  "https://img.example/c.jpg",
		}, nil
	})

	paths := []string{
		writeSource(t, cfg.Common.SourceFolder, "BBB-001.mp4"),
		writeSource(t, cfg.Common.SourceFolder, "BBB-002.mp4"),
		writeSource(t, cfg.Common.SourceFolder, "BBB-003.mp4"),
	}
	proc := newProcessor(cfg, provider)
	_, stats := proc.ProcessBatch(context.Background(), paths, nil)

	if stats.Succeeded != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 succeeded / 1 failed", stats)
	}
}
