// Package verusout normalizes the verifier's structured stdout into one
// canonical report record per target, and writes the per-target report files.
package verusout

// SMTTimesMs is the solver-time breakdown the verifier emits when it reaches
// the SMT stage.
type SMTTimesMs struct {
	SMTInit uint64 `json:"smt-init"`
	SMTRun  uint64 `json:"smt-run"`
	Total   uint64 `json:"total"`
}

// TimesMs is the verifier's timing section.
type TimesMs struct {
	EstimatedCPUTime uint64 `json:"estimated-cpu-time"`
	Total            uint64 `json:"total"`
	// SMT is absent when the verifier exits before reaching SMT (e.g. on a
	// VIR error).
	SMT *SMTTimesMs `json:"smt,omitempty"`
}

// VerificationResults is the verifier's outcome section. The optional fields
// are absent when verification aborted early.
type VerificationResults struct {
	EncounteredVIRError    bool    `json:"encountered-vir-error"`
	Success                *bool   `json:"success,omitempty"`
	Verified               *uint64 `json:"verified,omitempty"`
	Errors                 *uint64 `json:"errors,omitempty"`
	IsVerifyingEntireCrate *bool   `json:"is-verifying-entire-crate,omitempty"`
}

// Output is the typed slice of a verifier output record this harness
// understands. Everything else in a record is carried opaquely.
type Output struct {
	TimesMs             TimesMs             `json:"times-ms"`
	VerificationResults VerificationResults `json:"verification-results"`
}
