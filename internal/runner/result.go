package runner

import "time"

// Status is the terminal state of one target, kept as an explicit three-way
// value: the difference between "the tool ran and reported failure" and "the
// tool could not run" is result data, not an implementation detail.
type Status string

const (
	// StatusVerified: the verifier ran and exited successfully.
	StatusVerified Status = "verified"

	// StatusFailed: the verifier ran but reported verification failure. An
	// expected, ordinary outcome — never treated as a pipeline error.
	StatusFailed Status = "failed"

	// StatusNoRun: the verifier could not be invoked, or its report could
	// not be written.
	StatusNoRun Status = "no-run"
)

// TargetResult is the outcome of one target invocation. Exactly one report
// file is written per attempted target, even on error paths; a degraded
// error-only record is the floor.
type TargetResult struct {
	Project    string
	Target     string
	Status     Status
	ReportPath string
	Duration   time.Duration

	// InvalidOutput is set when no parsable verifier record survived and the
	// report carries only the runner block.
	InvalidOutput bool

	// Warnings are non-fatal findings surfaced in the run summary.
	Warnings []string
}
