package runner

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/zap"

	"verita/internal/config"
	"verita/internal/gitx"
)

const successRecord = `{"times-ms":{"estimated-cpu-time":5,"total":9},` +
	`"verification-results":{"encountered-vir-error":false,"success":true,"verified":4,"errors":0}}`

// writeVerusTree fabricates a verifier build tree whose verus binary is a
// shell script with the given body. Solver stubs answer --version so
// provenance scraping succeeds.
func writeVerusTree(t *testing.T, verusBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	repo := t.TempDir()
	release := filepath.Join(repo, "source", "target-verus", "release")
	if err := os.MkdirAll(release, 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, filepath.Join(release, "verus"), verusBody)
	writeScript(t, filepath.Join(repo, "source", "z3"), `echo "Z3 version 4.12.5 - 64 bit"`)
	writeScript(t, filepath.Join(repo, "source", "cvc5"), `echo "This is cvc5 version 1.1.2"`)
	return repo
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

// initProjectRepo creates a local git repository shaped like a small crate
// and returns its path and HEAD commit.
func initProjectRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"Cargo.toml":  "[package]\nname = \"demo\"\n",
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

func newTestContext(t *testing.T, verusBody string, cfg *config.RunConfiguration, opts Options) *Context {
	t.Helper()
	if !gitx.Installed() {
		t.Skip("git not installed")
	}
	opts.VerusRepo = writeVerusTree(t, verusBody)
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(t.TempDir(), "reports")
	}
	rc, err := NewContext(cfg, opts, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContext returned error: %v", err)
	}
	// Keep the work directory inside the test's temp space.
	origWork := rc.WorkDir
	t.Cleanup(func() { os.RemoveAll(origWork) })
	rc.WorkDir = filepath.Join(t.TempDir(), "work")
	if err := os.MkdirAll(rc.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return rc
}

func readReport(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report %s not readable: %v", path, err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("report %s is not valid JSON: %v", path, err)
	}
	return rec
}

func runnerBlockOf(t *testing.T, rec map[string]any) map[string]any {
	t.Helper()
	block, ok := rec["runner"].(map[string]any)
	if !ok {
		t.Fatalf("report has no runner block: %v", rec)
	}
	return block
}

func TestRun_SuccessfulProject(t *testing.T) {
	src, head := initProjectRepo(t)
	cfg := &config.RunConfiguration{
		VerusGitURL:    "https://github.com/verus-lang/verus",
		VerusRefspec:   "main",
		VerusFeatures:  []string{"singular"},
		VerusExtraArgs: []string{"--rlimit", "60"},
		Projects: []config.Project{{
			Name:       "demo",
			GitURL:     src,
			Refspec:    head,
			CrateRoots: []string{"src/main.rs"},
			ExtraArgs:  []string{"--expand-errors"},
		}},
	}

	// The stub records its argv so flag ordering can be asserted.
	body := `printf '%s\n' "$@" > "$(dirname "$0")/argv.txt"` + "\necho '" + successRecord + "'"
	rc := newTestContext(t, body, cfg, Options{Label: "test-run"})

	summary, err := Run(rc)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(summary.Succeeded) != 1 || summary.Succeeded[0] != "demo" {
		t.Fatalf("Succeeded: got %v", summary.Succeeded)
	}
	if len(summary.Failed) != 0 || len(summary.Warnings) != 0 {
		t.Fatalf("unexpected failures/warnings: %+v", summary)
	}

	entries, err := os.ReadDir(rc.OutputDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one report file, got %v (%v)", entries, err)
	}

	rec := readReport(t, filepath.Join(rc.OutputDir, "demo.json"))
	block := runnerBlockOf(t, rec)
	if block["success"] != true {
		t.Fatalf("runner.success: got %v", block["success"])
	}
	if block["run_label"] != "test-run" {
		t.Fatalf("runner.run_label: got %v", block["run_label"])
	}
	if block["project_revision"] != head {
		t.Fatalf("runner.project_revision: got %v want %v", block["project_revision"], head)
	}
	if block["z3_version"] != "4.12.5" || block["cvc5_version"] != "1.1.2" {
		t.Fatalf("solver versions not recorded: %v", block)
	}
	if _, ok := rec["verification-results"]; !ok {
		t.Fatalf("verifier output fields missing from report: %v", rec)
	}

	argv, err := os.ReadFile(filepath.Join(rc.VerusSourceDir, "target-verus", "release", "argv.txt"))
	if err != nil {
		t.Fatalf("stub did not record argv: %v", err)
	}
	got := string(argv)
	if !strings.Contains(got, "--output-json") {
		t.Fatalf("common flags missing from argv:\n%s", got)
	}
	if strings.Index(got, "--rlimit") > strings.Index(got, "--expand-errors") {
		t.Fatalf("run-level flags must precede project flags:\n%s", got)
	}

	// Successful, non-debug runs leave no work directory behind.
	if _, err := os.Stat(filepath.Join(rc.WorkDir, "demo")); !os.IsNotExist(err) {
		t.Fatalf("successful checkout not cleaned up: %v", err)
	}
}

func TestRun_ToolFailureWithEmptyOutput(t *testing.T) {
	src, head := initProjectRepo(t)
	cfg := &config.RunConfiguration{
		VerusGitURL:  "https://github.com/verus-lang/verus",
		VerusRefspec: "main",
		Projects: []config.Project{{
			Name:       "demo",
			GitURL:     src,
			Refspec:    head,
			CrateRoots: []string{"src/main.rs"},
		}},
	}

	rc := newTestContext(t, "exit 1", cfg, Options{Label: "fail-run", KeepWork: true})

	summary, err := Run(rc)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(summary.Failed) != 1 || summary.Failed[0] != "demo" {
		t.Fatalf("Failed: got %v", summary.Failed)
	}

	rec := readReport(t, filepath.Join(rc.OutputDir, "demo.json"))
	block := runnerBlockOf(t, rec)
	if block["success"] != false {
		t.Fatalf("runner.success: got %v", block["success"])
	}
	if block["invalid_output_json"] != true {
		t.Fatalf("invalid output flag not set: %v", block)
	}

	// Debug retention: the clone stays on disk.
	if _, err := os.Stat(filepath.Join(rc.WorkDir, "demo")); err != nil {
		t.Fatalf("failed checkout missing in debug mode: %v", err)
	}
}

func TestRun_CloneFailureStillWritesReports(t *testing.T) {
	cfg := &config.RunConfiguration{
		VerusGitURL:  "https://github.com/verus-lang/verus",
		VerusRefspec: "main",
		Projects: []config.Project{{
			Name:       "ghost",
			GitURL:     filepath.Join(t.TempDir(), "no-such-repo"),
			Refspec:    "main",
			CrateRoots: []string{"a/src/main.rs", "b/src/main.rs"},
		}},
	}

	rc := newTestContext(t, "exit 0", cfg, Options{Label: "clone-fail", KeepWork: true})

	summary, err := Run(rc)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Failed) != 1 {
		t.Fatalf("Failed: got %v", summary.Failed)
	}
	if len(summary.Warnings) == 0 {
		t.Fatalf("clone failure should surface a warning")
	}

	// One degraded report per configured target.
	for _, name := range []string{"ghost-a.json", "ghost-b.json"} {
		rec := readReport(t, filepath.Join(rc.OutputDir, name))
		block := runnerBlockOf(t, rec)
		if block["success"] != false || block["invalid_output_json"] != true {
			t.Fatalf("%s: degraded record malformed: %v", name, block)
		}
	}
}

func TestRun_IgnoredProjects(t *testing.T) {
	src, head := initProjectRepo(t)
	project := config.Project{
		Name:       "demo",
		GitURL:     src,
		Refspec:    head,
		CrateRoots: []string{"src/main.rs"},
		Ignore:     true,
	}
	cfg := &config.RunConfiguration{
		VerusGitURL:  "https://github.com/verus-lang/verus",
		VerusRefspec: "main",
		Projects:     []config.Project{project},
	}

	rc := newTestContext(t, "echo '"+successRecord+"'", cfg, Options{})
	summary, err := Run(rc)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Ignored) != 1 || len(summary.Succeeded) != 0 {
		t.Fatalf("ignored project ran: %+v", summary)
	}

	cfg2 := &config.RunConfiguration{
		VerusGitURL:  cfg.VerusGitURL,
		VerusRefspec: cfg.VerusRefspec,
		Projects:     []config.Project{project},
	}
	rc2 := newTestContext(t, "echo '"+successRecord+"'", cfg2, Options{RunIgnored: true})
	summary2, err := Run(rc2)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary2.Succeeded) != 1 {
		t.Fatalf("--run-ignored did not force the project: %+v", summary2)
	}
}
