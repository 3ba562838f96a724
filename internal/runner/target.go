package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"verita/internal/config"
	"verita/internal/manifest"
	"verita/internal/patch"
	"verita/internal/verusout"
)

// commonFlags are passed to every verifier invocation, ahead of run-level
// and project-level extra flags.
var commonFlags = []string{"--output-json", "--time", "--no-report-long-running"}

// processTarget runs the verifier against one build target and writes the
// per-target report. It returns an error only when the verifier could not be
// spawned at all or the report could not be written; a verifier that runs
// and reports failure is ordinary result data.
func processTarget(rc *Context, project *config.Project, repoPath, target, revision string, index, total int) (TargetResult, error) {
	res := TargetResult{Project: project.Name, Target: target, Status: StatusNoRun}
	log := rc.Log.With(zap.String("project", project.Name), zap.String("target", target))

	bin := rc.VerusBin
	cwd := repoPath
	var args []string

	if project.CargoProject {
		crateRel := verusout.CrateDir(target)
		cwd = filepath.Join(repoPath, filepath.FromSlash(crateRel))

		// Verification can proceed with whatever dependency resolution is
		// already in place, so a failed injection is only a warning.
		if err := patch.Inject(cwd, repoPath, rc.VerusSourceDir, rc.Config.VerusGitURL, log); err != nil {
			w := fmt.Sprintf("%s: patch injection failed for %s: %v", project.Name, target, err)
			res.Warnings = append(res.Warnings, w)
			log.Warn("patch injection failed", zap.Error(err))
		}

		bin = rc.CargoVerusBin
		args = append(args, "verify")
		// A crate with both a library and a binary would produce one output
		// record per entry point; pin the invocation to the binary.
		if doc, err := manifest.Load(filepath.Join(cwd, manifest.FileName)); err == nil && doc.HasDualEntryPoints(cwd) {
			if name := doc.PackageName(); name != "" {
				args = append(args, "--bin", name)
			}
		}
		args = append(args, "--")
		args = append(args, commonFlags...)
	} else {
		args = append(args, commonFlags...)
		args = append(args, filepath.Join(repoPath, filepath.FromSlash(target)))
	}

	// Run-level flags first so per-project flags can override or extend.
	args = append(args, rc.Config.VerusExtraArgs...)
	args = append(args, project.ExtraArgs...)

	log.Info("invoking verifier",
		zap.String("binary", bin),
		zap.Strings("args", args),
		zap.Int("index", index+1),
		zap.Int("total", total))

	cmd := exec.Command(bin, args...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), rc.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)

	if runErr != nil {
		if _, ranButFailed := runErr.(*exec.ExitError); !ranButFailed {
			return res, fmt.Errorf("cannot execute verifier on %s: %w", project.Name, runErr)
		}
		// Expected outcome data, not a pipeline error.
		log.Warn("verifier reported failure", zap.Error(runErr))
	}

	norm := verusout.Normalize(stdout.Bytes(), runErr == nil, log)
	res.Warnings = append(res.Warnings, norm.Warnings...)

	record := norm.Record
	if record == nil {
		record = map[string]any{}
		res.InvalidOutput = true
	}
	record["runner"] = rc.runnerBlock(project, revision, runErr == nil, stderr.String(), res.Duration, res.InvalidOutput)

	res.ReportPath = filepath.Join(rc.OutputDir, verusout.ReportName(project.Name, target, total))
	if err := verusout.WriteReport(res.ReportPath, record); err != nil {
		return res, err
	}
	log.Info("wrote report", zap.String("path", res.ReportPath))

	if runErr == nil {
		res.Status = StatusVerified
	} else {
		res.Status = StatusFailed
	}
	return res, nil
}

// runnerBlock assembles the report metadata shared by real and synthesized
// records.
func (rc *Context) runnerBlock(project *config.Project, revision string, success bool, stderrText string, elapsed time.Duration, invalid bool) verusout.RunnerBlock {
	return verusout.RunnerBlock{
		Success:                success,
		Stderr:                 stderrText,
		VerusGitURL:            rc.Config.VerusGitURL,
		VerusRefspec:           rc.Config.VerusRefspec,
		VerusFeatures:          rc.Config.VerusFeatures,
		RunConfiguration:       *project,
		ProjectRevision:        revision,
		VerificationDurationMs: float64(elapsed.Milliseconds()),
		Z3Version:              rc.Versions.Z3,
		CVC5Version:            rc.Versions.CVC5,
		RunLabel:               rc.Label,
		RunTimestamp:           rc.Timestamp,
		InvalidOutput:          invalid,
	}
}

// synthesizeFailureReport writes the degraded error-only report that keeps
// the one-report-per-target invariant on paths where the target never
// produced output. Best effort: its own failure is logged, not propagated.
func synthesizeFailureReport(rc *Context, project *config.Project, target, revision string, total int, cause error) {
	record := map[string]any{
		"runner": rc.runnerBlock(project, revision, false, cause.Error(), 0, true),
	}
	path := filepath.Join(rc.OutputDir, verusout.ReportName(project.Name, target, total))
	if err := verusout.WriteReport(path, record); err != nil {
		rc.Log.Error("cannot write failure report",
			zap.String("project", project.Name),
			zap.String("target", target),
			zap.Error(err))
	}
}
