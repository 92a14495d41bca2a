package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logFilePattern = "diligence-*.log"

// SetupLogFile creates diligence-<timestamp>.log under dir and prunes the
// directory down to the maxFiles newest engine logs. maxFiles <= 0 keeps
// everything. The caller closes the returned file.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := "diligence-" + time.Now().UTC().Format("20060102T150405.000") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if maxFiles > 0 {
		if err := pruneLogs(dir, maxFiles); err != nil {
			// Pruning is best effort; the new file is already usable
			fmt.Fprintf(os.Stderr, "warning: prune logs in %s: %v\n", dir, err)
		}
	}
	return f, nil
}

// pruneLogs deletes the oldest engine logs beyond keep. The timestamp in the
// file name sorts lexically in creation order.
func pruneLogs(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	var firstErr error
	for _, old := range files[:len(files)-keep] {
		if err := os.Remove(old); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", old, err)
		}
	}
	return firstErr
}
