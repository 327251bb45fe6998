package markov

import (
	"math"
	"testing"
)

func TestAccumulateHalfCycleCorrection(t *testing.T) {
	dists := [][]float64{
		{1, 0, 0, 0},
		{0.97456, 0.003, 0.0208, 0.00164},
	}
	vals := ConstantValues{1, 1, 1, 0}

	total, increments, err := Accumulate(dists, vals)
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}

	// Alive share drops from 1 to 0.99836, so the half-cycle corrected
	// increment is (1 + 0.99836) / 2.
	want := 0.99918
	if len(increments) != 1 {
		t.Fatalf("Accumulate() returned %d increments, want 1", len(increments))
	}
	if math.Abs(increments[0]-want) > 1e-12 {
		t.Errorf("increments[0] = %v, want %v", increments[0], want)
	}
	if math.Abs(total-want) > 1e-12 {
		t.Errorf("total = %v, want %v", total, want)
	}
}

func TestAccumulateSumsIncrements(t *testing.T) {
	dists := [][]float64{
		{1, 0},
		{0.9, 0.1},
		{0.81, 0.19},
		{0.729, 0.271},
	}

	total, increments, err := Accumulate(dists, ConstantValues{1, 0})
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	if len(increments) != 3 {
		t.Fatalf("Accumulate() returned %d increments, want 3", len(increments))
	}

	sum := 0.0
	for _, inc := range increments {
		sum += inc
	}
	if math.Abs(total-sum) > 1e-12 {
		t.Errorf("total = %v, sum of increments = %v", total, sum)
	}

	// Spot-check the first increment: (1 + 0.9) / 2.
	if math.Abs(increments[0]-0.95) > 1e-12 {
		t.Errorf("increments[0] = %v, want 0.95", increments[0])
	}
}

// rampValues is a time-dependent source: value 1/(1+t) for the live
// state, 0 for the dead state.
type rampValues struct{}

func (rampValues) Values(modelTime int) ([]float64, error) {
	return []float64{1 / (1 + float64(modelTime)), 0}, nil
}

func TestAccumulateTimeDependentValues(t *testing.T) {
	dists := [][]float64{
		{1, 0},
		{0.5, 0.5},
	}

	total, _, err := Accumulate(dists, rampValues{})
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}

	// ½ · (1·1 + 0.5·0.5) = 0.625
	if math.Abs(total-0.625) > 1e-12 {
		t.Errorf("total = %v, want 0.625", total)
	}
}

func TestAccumulateErrors(t *testing.T) {
	t.Run("too few distributions", func(t *testing.T) {
		if _, _, err := Accumulate([][]float64{{1, 0}}, ConstantValues{1, 0}); err == nil {
			t.Error("Accumulate() expected error, got nil")
		}
	})

	t.Run("value vector length mismatch", func(t *testing.T) {
		dists := [][]float64{{1, 0}, {0.5, 0.5}}
		if _, _, err := Accumulate(dists, ConstantValues{1}); err == nil {
			t.Error("Accumulate() expected error, got nil")
		}
	})
}
