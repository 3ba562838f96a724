package patch

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"verita/internal/manifest"
)

// registryKey is the generic patch source covering dependencies declared
// against the default registry. The verifier's literal git URL is written as
// a sibling key so the override applies regardless of how the project
// declared the dependency.
const registryKey = "crates-io"

// Inject adds [patch] override entries to the workspace manifest governing
// targetDir, pointing every verifier crate the project references at its
// local directory under verusSourceDir.
//
// Only crates that are both present in the verifier source index and
// referenced by the project (at the workspace root or the target crate) are
// overridden. Re-running with the same inputs is a no-op: entries merge by
// key, and pre-existing overrides for other packages are preserved. Exactly
// one file is mutated, with a single complete write.
func Inject(targetDir, repoRoot, verusSourceDir, verusGitURL string, log *zap.Logger) error {
	index := BuildCrateIndex(verusSourceDir)
	if len(index) == 0 {
		return nil
	}

	workspaceRoot := FindWorkspaceRoot(targetDir, repoRoot)
	workspaceManifest := filepath.Join(workspaceRoot, manifest.FileName)

	// A project may declare a dependency only at the leaf crate, or only at
	// the workspace level; collect from both.
	referenced := map[string]struct{}{}
	for _, path := range []string{workspaceManifest, filepath.Join(targetDir, manifest.FileName)} {
		doc, err := manifest.Load(path)
		if err != nil {
			continue
		}
		for name := range doc.DependencyNames() {
			referenced[name] = struct{}{}
		}
	}

	patches := map[string]string{}
	for name, dir := range index {
		if _, ok := referenced[name]; ok {
			patches[name] = dir
		}
	}
	if len(patches) == 0 {
		return nil
	}

	doc, err := manifest.Load(workspaceManifest)
	if err != nil {
		return err
	}

	for _, source := range []string{registryKey, verusGitURL} {
		table, err := doc.EnsureTable("patch", source)
		if err != nil {
			return fmt.Errorf("%s: %w", workspaceManifest, err)
		}
		for name, dir := range patches {
			table[name] = map[string]any{"path": dir}
		}
	}

	names := make([]string, 0, len(patches))
	for name := range patches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Debug("patching crate to local path",
			zap.String("crate", name),
			zap.String("path", patches[name]),
			zap.String("manifest", workspaceManifest))
	}

	return doc.Save(workspaceManifest)
}
