package store

import (
	"fmt"
	"math"
	"time"
)

// DimensionSnapshot captures one sampling variable: its support and current PMF.
type DimensionSnapshot struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"` // continuous, integer
	Strategy    string    `json:"strategy"`
	SamplingStd float64   `json:"samplingStd"`
	X           []float64 `json:"x"`
	PDF         []float64 `json:"pdf"`
}

// Snapshot is the persisted state of an optimizer: one DimensionSnapshot per
// dimension plus the best observation seen so far.
//
// Pending (uncommitted) scores are not saved. The optimizer always commits at
// the end of a learn call, so a snapshot taken between calls is complete.
type Snapshot struct {
	// RunID identifies the optimization run
	RunID string `json:"runId"`

	// Direction is -1 (minimize) or +1 (maximize)
	Direction int `json:"direction"`

	// Scaling is the scaling policy in ParseScaling form, e.g. "none", "auto:0.9", "tanh:1,2"
	Scaling string `json:"scaling,omitempty"`

	// Round counts completed learn calls
	Round int `json:"round"`

	// BestValue and BestSolution are the best observation seen so far
	BestValue    float64   `json:"bestValue"`
	BestSolution []float64 `json:"bestSolution,omitempty"`

	// Timestamp records when this snapshot was created
	Timestamp time.Time `json:"timestamp"`

	Dimensions []DimensionSnapshot `json:"dimensions"`
}

// SnapshotInfo is snapshot metadata without the per-dimension arrays.
type SnapshotInfo struct {
	RunID      string    `json:"runId"`
	Direction  int       `json:"direction"`
	Round      int       `json:"round"`
	BestValue  float64   `json:"bestValue"`
	Dimensions int       `json:"dimensions"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToInfo converts a full Snapshot to SnapshotInfo.
func (s *Snapshot) ToInfo() SnapshotInfo {
	return SnapshotInfo{
		RunID:      s.RunID,
		Direction:  s.Direction,
		Round:      s.Round,
		BestValue:  s.BestValue,
		Dimensions: len(s.Dimensions),
		Timestamp:  s.Timestamp,
	}
}

// Validate checks that the snapshot is internally consistent.
func (s *Snapshot) Validate() error {
	if s.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if s.Direction != -1 && s.Direction != 1 {
		return &ValidationError{Field: "Direction", Reason: "must be -1 or 1"}
	}
	if s.Round < 0 {
		return &ValidationError{Field: "Round", Reason: "cannot be negative"}
	}
	if s.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(s.Dimensions) == 0 {
		return &ValidationError{Field: "Dimensions", Reason: "cannot be empty"}
	}
	if s.BestSolution != nil && len(s.BestSolution) != len(s.Dimensions) {
		return &ValidationError{
			Field:  "BestSolution",
			Reason: fmt.Sprintf("length mismatch: got %d values for %d dimensions", len(s.BestSolution), len(s.Dimensions)),
		}
	}

	for i, d := range s.Dimensions {
		field := fmt.Sprintf("Dimensions[%d]", i)
		if d.Kind != "continuous" && d.Kind != "integer" {
			return &ValidationError{Field: field + ".Kind", Reason: "must be continuous or integer"}
		}
		if len(d.X) == 0 {
			return &ValidationError{Field: field + ".X", Reason: "cannot be empty"}
		}
		if len(d.PDF) != len(d.X) {
			return &ValidationError{Field: field + ".PDF", Reason: "length must match X"}
		}
		sum := 0.0
		for _, p := range d.PDF {
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return &ValidationError{Field: field + ".PDF", Reason: "values must be finite and non-negative"}
			}
			sum += p
		}
		if sum <= 0 {
			return &ValidationError{Field: field + ".PDF", Reason: "must have positive mass"}
		}
		if d.SamplingStd < 0 {
			return &ValidationError{Field: field + ".SamplingStd", Reason: "cannot be negative"}
		}
	}
	return nil
}

// ValidationError represents a snapshot validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks that the snapshot can be loaded into an optimizer with
// the given dimension names, in order.
func (s *Snapshot) IsCompatible(names []string) error {
	if len(names) != len(s.Dimensions) {
		return &CompatibilityError{
			Field:    "Dimensions",
			Expected: fmt.Sprintf("%d", len(s.Dimensions)),
			Actual:   fmt.Sprintf("%d", len(names)),
		}
	}
	for i, d := range s.Dimensions {
		if d.Name != names[i] {
			return &CompatibilityError{
				Field:    fmt.Sprintf("Dimensions[%d].Name", i),
				Expected: d.Name,
				Actual:   names[i],
			}
		}
	}
	return nil
}

// CompatibilityError represents a snapshot compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
