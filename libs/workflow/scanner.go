package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FindWorkflowFiles returns the .yml and .yaml files directly under dir.
// Subdirectories are not descended into; workflow definitions only live at
// the top level of the workflows directory. File names matching an exclude
// pattern are dropped. Results are sorted for a deterministic processing
// order.
func FindWorkflowFiles(dir string, excludePatterns []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		if excluded, pattern := matchesAnyPattern(entry.Name(), excludePatterns); excluded {
			slog.Debug("excluding workflow file", "file", entry.Name(), "pattern", pattern)
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}

func matchesAnyPattern(name string, patterns []string) (bool, string) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			slog.Warn("invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true, pattern
		}
	}
	return false, ""
}
