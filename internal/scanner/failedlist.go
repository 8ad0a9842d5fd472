package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"mdc/internal/config"
	apperrors "mdc/internal/errors"
)

// FailedListPath returns the persisted failed-list location for a
// configuration.
func FailedListPath(cfg *config.Config) string {
	return filepath.Join(cfg.Common.FailedOutputFolder, "failed_list.txt")
}

// ReadFailedList loads the set of previously failed source paths. A
// missing file is an empty set.
func ReadFailedList(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]bool), nil
		}
		return nil, apperrors.NewFilesystem("reading failed list", err)
	}
	defer f.Close()

	set := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			set[line] = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.NewFilesystem("reading failed list", err)
	}
	return set, nil
}

// AppendFailedList records one more failed source path.
func AppendFailedList(path, entry string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewFilesystem("creating failed list folder", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.NewFilesystem("opening failed list", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry + "\n"); err != nil {
		return apperrors.NewFilesystem("appending to failed list", err)
	}
	return nil
}
