package verusout

import (
	"verita/internal/config"
)

// RunnerBlock is the metadata this harness injects into every report under
// the "runner" key. It carries everything needed to interpret or reproduce
// the result without the run configuration at hand.
type RunnerBlock struct {
	// Success is the verifier process outcome (exit status), not the
	// verification verdict; the verdict lives in the verifier's own fields.
	Success bool   `json:"success"`
	Stderr  string `json:"stderr"`

	VerusGitURL   string   `json:"verus_git_url"`
	VerusRefspec  string   `json:"verus_refspec"`
	VerusFeatures []string `json:"verus_features"`

	// RunConfiguration is the full project entry, cloned for provenance.
	RunConfiguration config.Project `json:"run_configuration"`

	// ProjectRevision is the commit the project's revision specifier
	// resolved to, when checkout got that far.
	ProjectRevision string `json:"project_revision,omitempty"`

	VerificationDurationMs float64 `json:"verification_duration_ms"`

	Z3Version   string `json:"z3_version,omitempty"`
	CVC5Version string `json:"cvc5_version,omitempty"`

	RunLabel     string `json:"run_label"`
	RunTimestamp string `json:"run_timestamp"`

	// InvalidOutput marks a degraded record synthesized because the verifier
	// produced no parsable output.
	InvalidOutput bool `json:"invalid_output_json,omitempty"`
}
