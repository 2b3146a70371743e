package harness

import (
	"fmt"
	"os"
	"path/filepath"
)

// SuiteNotFoundError is returned when a scenario directory doesn't
// exist.
type SuiteNotFoundError struct {
	Dir string
}

// Error implements the error interface.
func (e *SuiteNotFoundError) Error() string {
	return fmt.Sprintf("scenario directory %q does not exist", e.Dir)
}

// DiscoverScenarios returns the scenario files directly under dir, in
// name order. Only .yaml and .yml files are considered, and
// subdirectories are skipped, so document fixtures can live alongside
// the scenarios they feed.
func DiscoverScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SuiteNotFoundError{Dir: dir}
		}
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}

	// ReadDir sorts by filename, so the suite order is stable.
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
