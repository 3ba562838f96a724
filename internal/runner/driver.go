package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Run processes every configured project in order and returns the run
// summary. Individual project and target failures are contained and
// reported; the returned error is reserved for run-level breakage.
func Run(rc *Context) (*RunSummary, error) {
	summary := &RunSummary{Preserved: map[string]string{}}

	for i := range rc.Config.Projects {
		project := &rc.Config.Projects[i]

		if project.Ignore && !rc.RunIgnored {
			rc.Log.Info("skipping ignored project", zap.String("project", project.Name))
			summary.Ignored = append(summary.Ignored, project.Name)
			continue
		}

		rc.Log.Info("running project", zap.String("project", project.Name))
		out, err := processProject(rc, project)
		repoPath := filepath.Join(rc.WorkDir, project.Name)
		if err != nil {
			rc.Log.Error("project failed", zap.String("project", project.Name), zap.Error(err))
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %v", project.Name, err))
			// Keep the one-report-per-target invariant even when the project
			// never reached its targets.
			for _, target := range project.Targets() {
				synthesizeFailureReport(rc, project, target, "", len(project.Targets()), err)
			}
			out.Failed = true
		}
		summary.Warnings = append(summary.Warnings, out.Warnings...)

		if !out.Failed {
			summary.Succeeded = append(summary.Succeeded, project.Name)
			if !rc.KeepWork {
				_ = os.RemoveAll(repoPath)
			}
			continue
		}

		summary.Failed = append(summary.Failed, project.Name)
		switch {
		case rc.KeepWork:
			rc.Log.Info("failed checkout retained in work directory",
				zap.String("project", project.Name), zap.String("path", repoPath))
		default:
			dest, err := preserveCheckout(rc, repoPath, project.Name)
			if err != nil {
				w := fmt.Sprintf("%s: cannot preserve failed checkout: %v", project.Name, err)
				summary.Warnings = append(summary.Warnings, w)
				rc.Log.Warn("cannot preserve failed checkout",
					zap.String("project", project.Name), zap.Error(err))
			} else {
				summary.Preserved[project.Name] = dest
				rc.Log.Info("preserved failed checkout",
					zap.String("project", project.Name), zap.String("path", dest))
			}
		}
	}

	if rc.KeepWork {
		rc.Log.Info("work directory preserved", zap.String("path", rc.WorkDir))
	} else {
		_ = os.RemoveAll(rc.WorkDir)
	}
	return summary, nil
}

// preserveCheckout moves a failed project's working directory to a
// persistent location for post-mortem inspection.
func preserveCheckout(rc *Context, repoPath, projectName string) (string, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return "", fmt.Errorf("nothing to preserve: %w", err)
	}
	destDir := filepath.Join(os.TempDir(), "verita-failed", rc.Label)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, projectName)
	if err := os.Rename(repoPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}
