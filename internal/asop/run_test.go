package asop

import (
	"context"
	"errors"
	"testing"
)

func TestRun_Rounds(t *testing.T) {
	o, err := New(Func(sphere), Count(2), WithSeed(21), WithScaling(ScalingAuto()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var infos []RoundInfo
	res, err := o.Run(context.Background(), RunConfig{
		Rounds:      8,
		Population:  20,
		Convergence: DisabledConvergenceConfig(),
		Hook: func(info RoundInfo) error {
			infos = append(infos, info)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Rounds != 8 || o.Rounds() != 8 {
		t.Errorf("Expected 8 rounds, got %d (optimizer %d)", res.Rounds, o.Rounds())
	}
	if res.Evaluations != 160 {
		t.Errorf("Expected 160 evaluations, got %d", res.Evaluations)
	}
	if res.Converged {
		t.Error("Run with disabled convergence should not converge")
	}
	if len(infos) != 8 {
		t.Fatalf("Expected 8 hook calls, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i].Round != i+1 {
			t.Errorf("Expected round %d, got %d", i+1, infos[i].Round)
		}
		if infos[i].Best.Value > infos[i-1].Best.Value {
			t.Errorf("Best value got worse: %v -> %v", infos[i-1].Best.Value, infos[i].Best.Value)
		}
		if infos[i].RoundBest.Value < infos[i].Best.Value {
			t.Errorf("Round best %v beats run best %v", infos[i].RoundBest.Value, infos[i].Best.Value)
		}
	}

	best, _ := o.Best()
	if res.Best.Value != best.Value {
		t.Errorf("Expected result best %v to match optimizer best %v", res.Best.Value, best.Value)
	}
}

func TestRun_Converges(t *testing.T) {
	constant := func([]float64) float64 { return 1 }
	o, _ := New(Func(constant), Count(1), WithSeed(2))

	res, err := o.Run(context.Background(), RunConfig{
		Rounds:      50,
		Population:  5,
		Convergence: ConvergenceConfig{Enabled: true, Patience: 3, Threshold: 0.001},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Converged {
		t.Error("Expected convergence on a constant objective")
	}
	if res.Rounds != 4 {
		t.Errorf("Expected to stop after 4 rounds, got %d", res.Rounds)
	}
}

func TestRun_HookError(t *testing.T) {
	stop := errors.New("stop")
	o, _ := New(Func(sphere), Count(2))

	res, err := o.Run(context.Background(), RunConfig{
		Rounds:     10,
		Population: 5,
		Hook: func(info RoundInfo) error {
			if info.Round == 2 {
				return stop
			}
			return nil
		},
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Expected hook error, got %v", err)
	}
	if res.Rounds != 2 {
		t.Errorf("Expected 2 completed rounds, got %d", res.Rounds)
	}
}

func TestRun_Canceled(t *testing.T) {
	o, _ := New(Func(sphere), Count(2))
	ctx, cancel := context.WithCancel(context.Background())

	res, err := o.Run(ctx, RunConfig{
		Rounds:     100,
		Population: 5,
		Hook: func(info RoundInfo) error {
			if info.Round == 3 {
				cancel()
			}
			return nil
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res.Rounds != 3 {
		t.Errorf("Expected 3 completed rounds, got %d", res.Rounds)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	o, _ := New(Func(sphere), Count(2))
	if _, err := o.Run(context.Background(), RunConfig{Rounds: 0, Population: 5}); !errors.Is(err, ErrNonPositiveCount) {
		t.Errorf("Expected ErrNonPositiveCount, got %v", err)
	}

	askTell, _ := New(nil, Count(2), WithoutObjective())
	if _, err := askTell.Run(context.Background(), DefaultRunConfig()); !errors.Is(err, ErrNoObjective) {
		t.Errorf("Expected ErrNoObjective, got %v", err)
	}
}
