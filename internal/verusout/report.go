package verusout

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ReportName derives the report file name for one target.
//
// A project with a single target reports under its own name. With multiple
// targets, a suffix is derived from the target's crate directory (the
// directory above a conventional src/ entry file), with path separators
// replaced by a join character so sibling targets get unique, stable names.
// An empty suffix falls back to the bare project name.
func ReportName(project, target string, numTargets int) string {
	if numTargets <= 1 {
		return project + ".json"
	}
	suffix := strings.ReplaceAll(CrateDir(target), "/", "-")
	if suffix == "" {
		return project + ".json"
	}
	return project + "-" + suffix + ".json"
}

// CrateDir reduces a target path to its crate directory: the target itself
// when it is a directory path, otherwise the parent of the entry file, with
// a trailing src component stripped. Returns "" for the checkout root.
func CrateDir(target string) string {
	dir := path.Clean(target)
	if strings.HasSuffix(dir, ".rs") {
		dir = path.Dir(dir)
	}
	if path.Base(dir) == "src" {
		dir = path.Dir(dir)
	}
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// WriteReport marshals the record and writes it in a single complete write,
// creating the report directory if needed.
func WriteReport(reportPath string, record map[string]any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize report %s: %w", reportPath, err)
	}
	if dir := filepath.Dir(reportPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("cannot write report %s: %w", reportPath, err)
	}
	return nil
}
