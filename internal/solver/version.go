// Package solver scrapes version strings from the auxiliary solver binaries
// shipped with the verifier build tree.
package solver

import (
	"fmt"
	"os/exec"
	"regexp"
)

// Version runs `exe --version` and extracts the dotted version number
// following the given prefix, e.g. prefix "Z3 version" against
// "Z3 version 4.12.5 - 64 bit".
func Version(exe, prefix string) (string, error) {
	out, err := exec.Command(exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", exe, err)
	}
	re, err := regexp.Compile(regexp.QuoteMeta(prefix) + ` ([0-9.]+)`)
	if err != nil {
		return "", err
	}
	m := re.FindSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("cannot find version in %s --version output", exe)
	}
	return string(m[1]), nil
}
