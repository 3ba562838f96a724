package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// RunSummary partitions the run's projects into succeeded, failed, and
// ignored, and carries the non-fatal warnings collected along the way. It is
// the single source of truth for what happened during a run.
type RunSummary struct {
	Succeeded []string
	Failed    []string
	Ignored   []string
	Warnings  []string

	// Preserved maps a failed project to the location its checkout was moved
	// to for post-mortem inspection.
	Preserved map[string]string
}

// Print writes the human-readable run summary.
func (s *RunSummary) Print(w io.Writer) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "Run summary:")
	for _, name := range s.Succeeded {
		green.Fprintf(w, "  ok       %s\n", name)
	}
	for _, name := range s.Failed {
		red.Fprintf(w, "  failed   %s\n", name)
		if path, ok := s.Preserved[name]; ok {
			fmt.Fprintf(w, "           checkout preserved at %s\n", path)
		}
	}
	for _, name := range s.Ignored {
		yellow.Fprintf(w, "  ignored  %s\n", name)
	}

	if len(s.Warnings) > 0 {
		bold.Fprintln(w, "Warnings:")
		for _, warning := range s.Warnings {
			yellow.Fprintf(w, "  - %s\n", warning)
		}
	}

	fmt.Fprintf(w, "%d succeeded, %d failed, %d ignored\n",
		len(s.Succeeded), len(s.Failed), len(s.Ignored))
}
