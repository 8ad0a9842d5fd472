// Package scanner walks the source tree and selects the video files a
// run will process.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mdc/internal/avid"
	"mdc/internal/config"
	apperrors "mdc/internal/errors"
)

var reTrailer = regexp.MustCompile(`(?i)-trailer\.`)

// Stats counts accepted files and skip reasons.
type Stats struct {
	Total          int `json:"total"`
	SkipFailed     int `json:"skip_failed"`
	SkipNFODays    int `json:"skip_nfo_days"`
	SkipSuccessNFO int `json:"skip_success_nfo"`
}

// Scanner selects processable video files under the source root.
type Scanner struct {
	cfg        *config.Config
	extensions map[string]bool
	escape     map[string]bool
	filter     *regexp.Regexp
	failed     map[string]bool
}

// New creates a scanner. The optional filter regex and the failed list
// are loaded up front.
func New(cfg *config.Config) (*Scanner, error) {
	s := &Scanner{
		cfg:        cfg,
		extensions: make(map[string]bool),
		escape:     cfg.Escape.FolderSet(),
	}
	for _, ext := range cfg.Media.Extensions() {
		s.extensions[ext] = true
	}
	if cfg.Escape.Filter != "" {
		re, err := regexp.Compile(cfg.Escape.Filter)
		if err != nil {
			return nil, apperrors.NewFilesystem("compiling filter regex", err)
		}
		s.filter = re
	}
	if s.failedListApplies() {
		failed, err := ReadFailedList(FailedListPath(cfg))
		if err != nil {
			return nil, err
		}
		s.failed = failed
	}
	return s, nil
}

// failedListApplies reports whether the failed list suppresses inputs
// for the configured mode. In move mode failed sources have already
// left the tree, so the list is irrelevant.
func (s *Scanner) failedListApplies() bool {
	if s.cfg.Common.IgnoreFailedList {
		return false
	}
	return s.cfg.Common.MainMode == config.ModeAnalysis || s.cfg.Common.LinkMode != config.LinkMove
}

// Scan walks the source root depth-first without following symlinks
// and returns the accepted paths with skip statistics. Output order is
// not guaranteed.
func (s *Scanner) Scan() ([]string, *Stats, error) {
	stats := &Stats{}
	root := s.cfg.Common.SourceFolder
	analysis := s.cfg.Common.MainMode == config.ModeAnalysis

	successIDs, err := s.successNFOIDs()
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logrus.Warnf("scan: %v", err)
			return nil
		}
		if d.IsDir() {
			if path != root && !analysis && s.escape[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !s.extensions[ext] {
			return nil
		}
		if s.failed != nil && s.failed[path] {
			stats.SkipFailed++
			return nil
		}
		if !analysis && !s.cfg.Common.ScanHardlink && isLinked(path, d) {
			return nil
		}
		if s.filter != nil && !s.filter.MatchString(path) {
			return nil
		}
		if reTrailer.MatchString(filepath.Base(path)) {
			return nil
		}
		if analysis && s.skipByLocalNFO(path) {
			stats.SkipNFODays++
			return nil
		}
		if successIDs != nil && s.skipBySuccessNFO(path, successIDs) {
			stats.SkipSuccessNFO++
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, nil, apperrors.NewFilesystem("walking source folder", walkErr)
	}

	stats.Total = len(paths)
	return paths, stats, nil
}

// skipByLocalNFO reports whether a co-located sidecar is fresh enough
// to skip re-analysis.
func (s *Scanner) skipByLocalNFO(path string) bool {
	days := s.cfg.Common.NFOSkipDays
	if days <= 0 {
		return false
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	fi, err := os.Stat(stem + ".nfo")
	if err != nil {
		return false
	}
	return time.Since(fi.ModTime()) < time.Duration(days)*24*time.Hour
}

// successNFOIDs collects identifiers of recently emitted sidecars in
// the success folder. Applies only to link modes, where sources stay
// in the input tree across runs.
func (s *Scanner) successNFOIDs() (map[string]bool, error) {
	days := s.cfg.Common.NFOSkipDays
	folder := s.cfg.Common.SuccessOutputFolder
	if days <= 0 || folder == "" ||
		s.cfg.Common.MainMode == config.ModeAnalysis ||
		s.cfg.Common.LinkMode == config.LinkMove {
		return nil, nil
	}
	if _, err := os.Stat(folder); err != nil {
		return nil, nil
	}

	window := time.Duration(days) * 24 * time.Hour
	ids := make(map[string]bool)
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".nfo") {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil || time.Since(fi.ModTime()) >= window {
			return nil
		}
		if id, perr := avid.Parse(filepath.Base(path)); perr == nil {
			ids[strings.ToLower(id.DisplayID)] = true
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewFilesystem("walking success folder", err)
	}
	return ids, nil
}

func (s *Scanner) skipBySuccessNFO(path string, ids map[string]bool) bool {
	id, err := avid.Parse(filepath.Base(path))
	if err != nil {
		return false
	}
	return ids[strings.ToLower(id.DisplayID)]
}
