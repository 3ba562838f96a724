package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"verita/internal/config"
	"verita/internal/gitx"
)

// projectOutcome aggregates one project's processing for the run driver.
type projectOutcome struct {
	Failed   bool
	Warnings []string
}

// processProject clones the project, checks out its pinned revision, runs the
// optional preparation step, and drives every configured target through the
// target processor. Per-target errors are contained: each produces a
// synthesized failure report and marks the project failed, but sibling
// targets still run. The returned error covers project-level failures only
// (clone, revision resolution, preparation).
func processProject(rc *Context, project *config.Project) (projectOutcome, error) {
	out := projectOutcome{}
	repoPath := filepath.Join(rc.WorkDir, project.Name)
	log := rc.Log.With(zap.String("project", project.Name))

	log.Info("cloning project", zap.String("url", project.GitURL))
	if err := gitx.Clone(project.GitURL, repoPath); err != nil {
		return out, err
	}

	revision, err := gitx.ResolveRevision(repoPath, project.Refspec)
	if err != nil {
		return out, fmt.Errorf("failed to find %s: %w", project.Refspec, err)
	}
	if err := gitx.Checkout(repoPath, revision); err != nil {
		return out, err
	}
	log.Info("checked out revision", zap.String("commit", revision))

	if project.PrepareScript != "" {
		log.Info("running prepare script")
		cmd := exec.Command("/bin/bash", "-c", project.PrepareScript)
		cmd.Dir = repoPath
		cmd.Env = append(os.Environ(), rc.Env...)
		if output, err := cmd.CombinedOutput(); err != nil {
			log.Error("prepare script failed", zap.ByteString("output", output))
			return out, fmt.Errorf("cannot execute prepare script for %s: %w", project.Name, err)
		}
	}

	targets := project.Targets()
	for i, target := range targets {
		res, err := processTarget(rc, project, repoPath, target, revision, i, len(targets))
		if err != nil {
			log.Error("target failed", zap.String("target", target), zap.Error(err))
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: target %s: %v", project.Name, target, err))
			synthesizeFailureReport(rc, project, target, revision, len(targets), err)
			out.Failed = true
			continue
		}
		out.Warnings = append(out.Warnings, res.Warnings...)
		if res.Status != StatusVerified {
			out.Failed = true
		}
	}
	return out, nil
}
