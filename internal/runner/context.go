// Package runner drives a verification run: it clones each configured
// project at a pinned revision, invokes the verifier per build target, and
// reduces the output into one durable report per target plus a run summary.
//
// Execution is strictly sequential. The verifier and its solvers are
// resource-intensive per invocation, and wall-clock measurements in the
// reports must reflect a single target in isolation. The Context below is the
// one shared piece of state; it is rebound per operation by passing it
// explicitly, never through globals.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"verita/internal/config"
	"verita/internal/solver"
)

// Options are the CLI-level knobs for constructing a run Context.
type Options struct {
	// VerusRepo is the path to the verifier repository holding a release
	// build.
	VerusRepo string

	// SingularPath optionally points at an external algebra solver handed to
	// the verifier via its environment.
	SingularPath string

	// OutputDir receives the per-target report files. Empty selects a
	// label-derived default.
	OutputDir string

	// Label identifies the run in reports. Empty selects the run timestamp.
	Label string

	// KeepWork retains the whole work directory after the run (debug mode).
	KeepWork bool

	// RunIgnored forces projects flagged ignore = true to run.
	RunIgnored bool
}

// ToolVersions are the solver versions resolved once at setup and recorded
// in every report.
type ToolVersions struct {
	Z3   string
	CVC5 string
}

// Context is the immutable run configuration plus resolved paths and the
// shared subprocess environment handed to every project and target
// operation. It must only be used from one goroutine.
type Context struct {
	Config *config.RunConfiguration

	VerusRepo      string // verifier repository root
	VerusSourceDir string // <repo>/source, holds crates and solver binaries
	VerusBin       string
	CargoVerusBin  string

	OutputDir string
	WorkDir   string

	// Env holds the KEY=VALUE additions (solver locations) appended to the
	// inherited environment of every subprocess.
	Env []string

	Versions  ToolVersions
	Label     string
	Timestamp string

	KeepWork   bool
	RunIgnored bool

	Log *zap.Logger
}

// NewContext validates the tool installation, resolves paths, scrapes solver
// versions, and creates the run's work and output directories. A missing
// verifier binary is a setup error that aborts before any project runs.
func NewContext(cfg *config.RunConfiguration, opts Options, log *zap.Logger) (*Context, error) {
	repo, err := filepath.Abs(opts.VerusRepo)
	if err != nil {
		return nil, fmt.Errorf("resolving verus repo path %s: %w", opts.VerusRepo, err)
	}
	sourceDir := filepath.Join(repo, "source")
	verusBin := filepath.Join(sourceDir, "target-verus", "release", "verus")
	if _, err := os.Stat(verusBin); err != nil {
		return nil, fmt.Errorf("failed to find verus binary: %s", verusBin)
	}

	timestamp := strings.ReplaceAll(time.Now().UTC().Format("2006-01-02-15-04-05.000"), ".", "-")
	label := opts.Label
	if label == "" {
		label = timestamp
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join("verita-output", label)
	}

	rc := &Context{
		Config:         cfg,
		VerusRepo:      repo,
		VerusSourceDir: sourceDir,
		VerusBin:       verusBin,
		CargoVerusBin:  filepath.Join(sourceDir, "target-verus", "release", "cargo-verus"),
		OutputDir:      outputDir,
		WorkDir:        filepath.Join(os.TempDir(), "verita", timestamp),
		Label:          label,
		Timestamp:      timestamp,
		KeepWork:       opts.KeepWork,
		RunIgnored:     opts.RunIgnored,
		Log:            log,
	}

	rc.Env = []string{
		"VERUS_Z3_PATH=" + filepath.Join(sourceDir, "z3"),
		"VERUS_CVC5_PATH=" + filepath.Join(sourceDir, "cvc5"),
	}
	if opts.SingularPath != "" {
		rc.Env = append(rc.Env, "VERUS_SINGULAR_PATH="+opts.SingularPath)
	}

	// Version scraping is provenance, not a prerequisite; a solver that
	// refuses --version still works under the verifier.
	if v, err := solver.Version(filepath.Join(sourceDir, "z3"), "Z3 version"); err != nil {
		log.Warn("cannot determine z3 version", zap.Error(err))
	} else {
		rc.Versions.Z3 = v
		log.Info("found z3", zap.String("version", v))
	}
	if v, err := solver.Version(filepath.Join(sourceDir, "cvc5"), "This is cvc5 version"); err != nil {
		log.Warn("cannot determine cvc5 version", zap.Error(err))
	} else {
		rc.Versions.CVC5 = v
		log.Info("found cvc5", zap.String("version", v))
	}

	if err := os.MkdirAll(rc.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create work directory %s: %w", rc.WorkDir, err)
	}
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", rc.OutputDir, err)
	}
	return rc, nil
}
