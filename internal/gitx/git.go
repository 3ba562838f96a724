// Package gitx shells out to the git binary for the clone/checkout plumbing
// the harness needs. Stderr is captured and folded into returned errors so
// every failure names the command that produced it.
package gitx

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Installed returns true if git is available on the system PATH.
func Installed() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Clone clones a repository to dest.
func Clone(url, dest string) error {
	if err := run(".", "clone", "--quiet", url, dest); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// ResolveRevision resolves a human-supplied revision specifier (branch, tag,
// or commit-like reference) to a full commit hash. Remote branches not
// covered by the local refs are tried under origin/ before giving up.
func ResolveRevision(repoDir, refspec string) (string, error) {
	for _, candidate := range []string{refspec, "origin/" + refspec} {
		out, err := output(repoDir, "rev-parse", "--verify", "--quiet", candidate+"^{commit}")
		if err == nil {
			return strings.TrimSpace(out), nil
		}
	}
	return "", fmt.Errorf("failed to find %s in %s", refspec, repoDir)
}

// Checkout detaches the working tree at the given commit.
func Checkout(repoDir, commit string) error {
	if err := run(repoDir, "checkout", "--quiet", "--detach", commit); err != nil {
		return fmt.Errorf("checking out %s: %w", commit, err)
	}
	return nil
}

// run executes a git command in dir, capturing stderr for error reporting.
func run(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// output executes a git command in dir and returns its stdout.
func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
