package processor

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	apperrors "mdc/internal/errors"
)

// ProgressFunc receives (completed, total) after each finished file.
type ProgressFunc func(completed, total int)

// Stats tallies a finished batch.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ProcessBatch runs the per-file workflow over all paths with at most
// maxConcurrent files in flight. Files are independent; one failure
// never cancels the others. When ctx fires, in-flight files finish and
// pending files record a cancelled result. Result order follows
// completion, not input.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, progress ProgressFunc) ([]*Result, *Stats) {
	maxConcurrent := int64(p.cfg.Common.MultiThreading)
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		results   []*Result
		completed int
	)
	record := func(res *Result) {
		mu.Lock()
		results = append(results, res)
		completed++
		done := completed
		mu.Unlock()
		if progress != nil {
			progress(done, len(paths))
		}
	}

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(cancelledResult(path))
			continue
		}
		if ctx.Err() != nil {
			sem.Release(1)
			record(cancelledResult(path))
			continue
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			if p.onFileStart != nil {
				p.onFileStart(path)
			}
			record(p.ProcessFile(ctx, path))
		}(path)
	}
	wg.Wait()

	stats := &Stats{Total: len(paths)}
	for _, res := range results {
		switch res.Status {
		case StatusSucceeded:
			stats.Succeeded++
		case StatusFailed:
			stats.Failed++
		case StatusSkipped:
			stats.Skipped++
		}
	}
	return results, stats
}

func cancelledResult(path string) *Result {
	err := apperrors.NewCancelled()
	return &Result{
		Path:      path,
		Status:    StatusFailed,
		ErrorKind: apperrors.KindCancelled.String(),
		Error:     err.Error(),
	}
}
