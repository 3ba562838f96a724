package patch

import (
	"path/filepath"

	"verita/internal/manifest"
)

// FindWorkspaceRoot walks from targetDir up to repoRoot and returns the
// outermost ancestor whose manifest declares a [workspace] section.
//
// The ancestor chain is scanned from the repository root downward so that a
// workspace declared at or near the repo root wins over an unrelated nested
// one. When no ancestor declares a workspace, targetDir is returned unchanged
// and is treated as its own workspace.
func FindWorkspaceRoot(targetDir, repoRoot string) string {
	var ancestors []string
	current := filepath.Clean(targetDir)
	root := filepath.Clean(repoRoot)
	for {
		ancestors = append(ancestors, current)
		if current == root {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	for i := len(ancestors) - 1; i >= 0; i-- {
		doc, err := manifest.Load(filepath.Join(ancestors[i], manifest.FileName))
		if err != nil {
			continue
		}
		if doc.HasWorkspace() {
			return ancestors[i]
		}
	}
	return filepath.Clean(targetDir)
}
