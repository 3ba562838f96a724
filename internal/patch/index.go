// Package patch rewrites a project's workspace manifest so that
// verifier-library crates resolve to a local checkout instead of whatever
// version the project declared.
package patch

import (
	"os"
	"path/filepath"

	"verita/internal/manifest"
)

// CrateIndex maps a package name to the absolute directory of its source.
type CrateIndex map[string]string

// BuildCrateIndex scans the immediate children of sourceDir and records
// package.name -> directory for every child with a readable manifest. A
// missing or malformed manifest is not an error for indexing purposes; the
// entry simply yields nothing.
func BuildCrateIndex(sourceDir string) CrateIndex {
	index := CrateIndex{}
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return index
	}
	for _, entry := range entries {
		dir := filepath.Join(sourceDir, entry.Name())
		doc, err := manifest.Load(filepath.Join(dir, manifest.FileName))
		if err != nil {
			continue
		}
		name := doc.PackageName()
		if name == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		index[name] = abs
	}
	return index
}
