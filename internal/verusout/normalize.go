package verusout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Normalized is the outcome of reducing a verifier stdout stream to one
// canonical record.
type Normalized struct {
	// Record is the canonical record as an opaque document, or nil when no
	// usable record survived filtering.
	Record map[string]any

	// Parsed is the typed view of Record, or nil when typed deserialization
	// failed or no record survived.
	Parsed *Output

	// Warnings are non-fatal findings to surface in the run summary.
	Warnings []string
}

// Normalize reduces a raw stdout stream to one canonical record.
//
// The stream may contain zero, one, or multiple back-to-back JSON records
// (one per sub-crate the verifier touched). Parsing stops at the first
// corrupt record; records for dependency crates verified only for
// well-formedness (success with zero verified items) are discarded; the
// first survivor is canonical. A typed-deserialization failure is tolerated
// when the tool already reported a non-success exit, since truncated output
// is expected in that case.
func Normalize(raw []byte, toolSucceeded bool, log *zap.Logger) Normalized {
	var n Normalized

	records := decodeStream(raw, log)
	var kept []map[string]any
	for _, rec := range records {
		if isNoVerifyDependencyRecord(rec) {
			continue
		}
		kept = append(kept, rec)
	}

	if len(kept) == 0 {
		return n
	}
	if len(kept) > 1 {
		warning := fmt.Sprintf("verifier emitted %d result records; keeping the first", len(kept))
		n.Warnings = append(n.Warnings, warning)
		log.Warn(warning)
	}
	n.Record = kept[0]

	parsed, err := reparse(n.Record)
	if err != nil {
		if toolSucceeded {
			log.Error("cannot parse verifier output record", zap.Error(err))
			n.Warnings = append(n.Warnings, fmt.Sprintf("cannot parse verifier output: %v", err))
		} else {
			// Incomplete output is expected when the tool already failed.
			log.Info("verifier output record incomplete after failed run", zap.Error(err))
		}
		return n
	}
	n.Parsed = parsed
	return n
}

// decodeStream reads concatenated JSON documents until the stream ends or
// the first corrupt record, which aborts further parsing.
func decodeStream(raw []byte, log *zap.Logger) []map[string]any {
	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	for {
		var rec map[string]any
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records
		}
		if err != nil {
			log.Debug("stopping at malformed verifier output",
				zap.Error(err),
				zap.ByteString("raw", raw))
			return records
		}
		records = append(records, rec)
	}
}

// isNoVerifyDependencyRecord identifies records for crates pulled in only to
// satisfy the build graph: reported success with zero verified items.
func isNoVerifyDependencyRecord(rec map[string]any) bool {
	results, ok := rec["verification-results"].(map[string]any)
	if !ok {
		return false
	}
	success, ok := results["success"].(bool)
	if !ok || !success {
		return false
	}
	verified, ok := results["verified"].(float64)
	return ok && verified == 0
}

// reparse round-trips a generic record through JSON into the typed schema.
// Records missing either required section are rejected; encoding/json would
// otherwise zero-fill them silently.
func reparse(rec map[string]any) (*Output, error) {
	for _, section := range []string{"times-ms", "verification-results"} {
		if _, ok := rec[section]; !ok {
			return nil, fmt.Errorf("record has no %q section", section)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
