package asop

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bgbg/asop/internal/store"
	"github.com/bgbg/asop/internal/variable"
)

// ErrSnapshotMismatch is returned when a snapshot does not fit the optimizer.
var ErrSnapshotMismatch = errors.New("asop: snapshot does not match optimizer")

// Snapshot captures the support and PMF of every dimension together with the
// run's progress. Pending evidence is always committed by Learn, so nothing
// is lost between calls.
func (o *Optimizer) Snapshot(runID string) *store.Snapshot {
	s := &store.Snapshot{
		RunID:     runID,
		Direction: int(o.direction),
		Scaling:   o.scaling.String(),
		Round:     o.rounds,
		Timestamp: time.Now(),
	}
	if best, ok := o.Best(); ok {
		s.BestValue = best.Value
		s.BestSolution = best.Solution
	}
	for _, v := range o.vars {
		s.Dimensions = append(s.Dimensions, store.DimensionSnapshot{
			Name:        v.Name(),
			Kind:        string(v.Kind()),
			Strategy:    v.Strategy().String(),
			SamplingStd: v.SamplingStd(),
			X:           v.X(),
			PDF:         v.PDFValues(),
		})
	}
	return s
}

// Restore loads the PMFs and progress of a snapshot taken from an optimizer
// with the same dimensions. Nothing changes if the snapshot does not fit.
func (o *Optimizer) Restore(s *store.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrSnapshotMismatch)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.IsCompatible(o.Names()); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotMismatch, err)
	}
	if Direction(s.Direction) != o.direction {
		return fmt.Errorf("%w: snapshot direction %s, optimizer direction %s",
			ErrSnapshotMismatch, Direction(s.Direction), o.direction)
	}
	for i, v := range o.vars {
		d := s.Dimensions[i]
		if d.Kind != string(v.Kind()) {
			return fmt.Errorf("%w: dimension %s is %s, snapshot has %s", ErrSnapshotMismatch, v.Name(), v.Kind(), d.Kind)
		}
		if !equalSupport(v.X(), d.X) {
			return fmt.Errorf("%w: support of dimension %s differs", ErrSnapshotMismatch, v.Name())
		}
	}

	for i, v := range o.vars {
		if err := v.SetPDFValues(s.Dimensions[i].PDF); err != nil {
			return fmt.Errorf("failed to restore %s: %w", v.Name(), err)
		}
	}
	o.rounds = s.Round
	o.hasBest = s.BestSolution != nil
	o.best = Result{Solution: append([]float64(nil), s.BestSolution...), Value: s.BestValue}

	slog.Debug("Optimizer restored", "run_id", s.RunID, "round", s.Round)
	return nil
}

func equalSupport(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FromSnapshot rebuilds an optimizer from a snapshot alone: one variable per
// saved dimension with the saved support, std and strategy, then Restore.
// The saved scaling applies unless opts override it. A nil objective gives an
// ask/tell optimizer.
func FromSnapshot(objective Objective, s *store.Snapshot, opts ...Option) (*Optimizer, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrSnapshotMismatch)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	vars := make([]variable.Variable, len(s.Dimensions))
	for i, d := range s.Dimensions {
		strategy, err := variable.ParseStrategy(d.Strategy)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", d.Name, err)
		}
		v, err := variable.New(variable.Kind(d.Kind),
			variable.WithName(d.Name),
			variable.WithValues(d.X),
			variable.WithSamplingStd(d.SamplingStd),
			variable.WithStrategy(strategy),
		)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", d.Name, err)
		}
		vars[i] = v
	}

	base := []Option{WithDirection(Direction(s.Direction))}
	// Custom scalers cannot be rebuilt from their name; pass WithScaling instead.
	if s.Scaling != "" && !strings.HasPrefix(s.Scaling, "custom(") {
		p, err := ParseScaling(s.Scaling)
		if err != nil {
			return nil, err
		}
		base = append(base, WithScaling(p))
	}
	if objective == nil {
		base = append(base, WithoutObjective())
	}

	o, err := New(objective, Variables(vars...), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := o.Restore(s); err != nil {
		return nil, err
	}
	return o, nil
}
