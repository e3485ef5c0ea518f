package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoReport is returned when no workbook matches the configured pattern.
var ErrNoReport = errors.New("workbook: no report file found")

// FindLatest globs dir for pattern and returns the most recently modified
// match.
func FindLatest(dir, pattern string) (string, error) {
	full := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(full)
	if err != nil {
		return "", fmt.Errorf("workbook: glob %q: %w", full, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no file matching %q", ErrNoReport, full)
	}

	latest := ""
	var latestMod int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = match
			latestMod = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w: no file matching %q", ErrNoReport, full)
	}
	return latest, nil
}
