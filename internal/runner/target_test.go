package runner

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"verita/internal/config"
	"verita/internal/manifest"
)

// initCargoProjectRepo creates a crate with dual entry points and a
// dependency on a verifier library crate.
func initCargoProjectRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"Cargo.toml":  "[package]\nname = \"demo\"\n\n[dependencies]\nvstd = \"0.1\"\n",
		"src/lib.rs":  "pub fn lemma() {}\n",
		"src/main.rs": "fn main() {}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	git := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@localhost",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@localhost",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
		return string(out)
	}
	git("init", "--quiet")
	git("add", ".")
	git("commit", "--quiet", "-m", "initial")
	return dir, strings.TrimSpace(git("rev-parse", "HEAD"))
}

func TestRun_CargoProjectPatchesAndPinsBinary(t *testing.T) {
	src, head := initCargoProjectRepo(t)
	cfg := &config.RunConfiguration{
		VerusGitURL:  "https://github.com/verus-lang/verus",
		VerusRefspec: "main",
		Projects: []config.Project{{
			Name:         "demo",
			GitURL:       src,
			Refspec:      head,
			CrateRoots:   []string{"src/main.rs"},
			CargoProject: true,
		}},
	}

	body := `printf '%s\n' "$@" > "$(dirname "$0")/cargo-argv.txt"` + "\necho '" + successRecord + "'"
	rc := newTestContext(t, "exit 3", cfg, Options{Label: "cargo-run", KeepWork: true})

	// The cargo wrapper does the work in library-integrated mode; give the
	// verifier source tree an indexable crate matching the dependency.
	writeScript(t, rc.CargoVerusBin, body)
	crateDir := filepath.Join(rc.VerusSourceDir, "vstd")
	if err := os.MkdirAll(crateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(crateDir, "Cargo.toml"),
		[]byte("[package]\nname = \"vstd\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := Run(rc)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Succeeded) != 1 {
		t.Fatalf("cargo project did not succeed: %+v", summary)
	}

	argv, err := os.ReadFile(filepath.Join(rc.VerusSourceDir, "target-verus", "release", "cargo-argv.txt"))
	if err != nil {
		t.Fatalf("cargo wrapper not invoked: %v", err)
	}
	got := string(argv)
	for _, want := range []string{"verify", "--bin\ndemo", "--\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("cargo argv missing %q:\n%s", want, got)
		}
	}

	// Patch injection rewrote the checked-out workspace manifest.
	doc, err := manifest.Load(filepath.Join(rc.WorkDir, "demo", "Cargo.toml"))
	if err != nil {
		t.Fatalf("reading patched manifest: %v", err)
	}
	for _, source := range []string{"crates-io", cfg.VerusGitURL} {
		entries, ok := doc.Table("patch", source)
		if !ok {
			t.Fatalf("no [patch.%q] in checked-out manifest", source)
		}
		entry, ok := entries["vstd"].(map[string]any)
		if !ok {
			t.Fatalf("vstd not patched under %q: %v", source, entries)
		}
		if entry["path"] != crateDir {
			t.Fatalf("vstd patched to %v, want %v", entry["path"], crateDir)
		}
	}
}
