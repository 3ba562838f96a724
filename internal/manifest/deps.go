package manifest

import (
	"os"
	"path/filepath"
)

// dependencySections are the three top-level dependency kinds Cargo knows.
var dependencySections = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// DependencyNames returns every package name referenced by the manifest's
// dependency sections, plus workspace-level shared dependencies. Section
// provenance and ordering are discarded; the result is a membership set.
func (d Document) DependencyNames() map[string]struct{} {
	names := map[string]struct{}{}
	for _, section := range dependencySections {
		if deps, ok := d.Table(section); ok {
			for name := range deps {
				names[name] = struct{}{}
			}
		}
	}
	if deps, ok := d.Table("workspace", "dependencies"); ok {
		for name := range deps {
			names[name] = struct{}{}
		}
	}
	return names
}

// HasDualEntryPoints reports whether the crate rooted at dir exposes both a
// library and a binary entry point. The manifest declarations win; when the
// manifest is silent, the conventional src/lib.rs + src/main.rs layout is
// checked instead.
func (d Document) HasDualEntryPoints(dir string) bool {
	_, hasLib := d["lib"]
	_, hasBin := d["bin"]
	if hasLib && hasBin {
		return true
	}
	if hasLib || hasBin {
		// One side declared explicitly; the other may still exist by layout.
		if hasLib {
			return fileExists(filepath.Join(dir, "src", "main.rs"))
		}
		return fileExists(filepath.Join(dir, "src", "lib.rs"))
	}
	return fileExists(filepath.Join(dir, "src", "lib.rs")) &&
		fileExists(filepath.Join(dir, "src", "main.rs"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
