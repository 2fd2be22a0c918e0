package synapse

import (
	"math"
	"testing"

	"github.com/nvandessel/spikeloop/internal/layer"
)

func newTestSynapse(t *testing.T, preSize, postSize int) *Synapse {
	t.Helper()
	s, err := New(0, 1, preSize, postSize, NewCSDP(DefaultCSDPConfig()), layer.NewRNG(11))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestForwardIsAffine(t *testing.T) {
	s := newTestSynapse(t, 3, 2)

	a := []float64{1, 0, 1}
	b := []float64{0, 1, 1}
	sum := []float64{1, 1, 2}

	fa, err := s.Forward(a)
	if err != nil {
		t.Fatalf("Forward(a): %v", err)
	}
	fb, err := s.Forward(b)
	if err != nil {
		t.Fatalf("Forward(b): %v", err)
	}
	fsum, err := s.Forward(sum)
	if err != nil {
		t.Fatalf("Forward(a+b): %v", err)
	}

	// Additivity of the linear part: f(a) + f(b) - bias == f(a+b).
	// Bias is zero at construction, so this is direct additivity here.
	for i := range fsum {
		if math.Abs(fa[i]+fb[i]-fsum[i]) > 1e-12 {
			t.Errorf("row %d: f(a)+f(b) = %v, f(a+b) = %v", i, fa[i]+fb[i], fsum[i])
		}
	}
}

func TestForwardShapeMismatch(t *testing.T) {
	s := newTestSynapse(t, 3, 2)
	if _, err := s.Forward([]float64{1, 0}); err == nil {
		t.Error("Forward with wrong pre length: expected error, got nil")
	}
}

func TestUpdateWeightsHebbianTerm(t *testing.T) {
	s := newTestSynapse(t, 2, 2)
	before := s.Weights()

	pre := []float64{1, 0}
	mod := []float64{0.5, -0.25}
	post := []float64{0, 0} // no depression contribution

	if err := s.UpdateWeights(pre, mod, post); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	after := s.Weights()

	// dW[r][c] = mod[r] * pre[c]: only column 0 moves.
	wantDelta := []float64{
		0.5, 0,
		-0.25, 0,
	}
	for i := range after {
		got := after[i] - before[i]
		if math.Abs(got-wantDelta[i]) > 1e-12 {
			t.Errorf("w[%d] delta = %v, want %v", i, got, wantDelta[i])
		}
	}
}

func TestUpdateWeightsDepressionTerm(t *testing.T) {
	cfg := CSDPConfig{DecayLambda: -0.1}
	s, err := New(0, 1, 2, 1, NewCSDP(cfg), layer.NewRNG(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := s.Weights()

	// Pre neuron 1 is silent while the post neuron fires: its weight must
	// shrink by |DecayLambda|. Pre neuron 0 is active: untouched by decay.
	pre := []float64{1, 0}
	mod := []float64{0}
	post := []float64{1}

	if err := s.UpdateWeights(pre, mod, post); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	after := s.Weights()

	if math.Abs(after[0]-before[0]) > 1e-12 {
		t.Errorf("active-pre weight moved: %v -> %v", before[0], after[0])
	}
	wantDelta := -0.1
	if math.Abs((after[1]-before[1])-wantDelta) > 1e-12 {
		t.Errorf("silent-pre weight delta = %v, want %v", after[1]-before[1], wantDelta)
	}
}

func TestLearningGate(t *testing.T) {
	s := newTestSynapse(t, 2, 2)
	s.SetLearning(false)
	before := s.Weights()

	if err := s.UpdateWeights([]float64{1, 1}, []float64{1, 1}, []float64{1, 1}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	after := s.Weights()
	for i := range after {
		if after[i] != before[i] {
			t.Fatalf("weight %d changed with learning disabled: %v -> %v", i, before[i], after[i])
		}
	}

	s.SetLearning(true)
	if err := s.UpdateWeights([]float64{1, 1}, []float64{1, 1}, []float64{1, 1}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	changed := false
	for i, w := range s.Weights() {
		if w != after[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("no weight changed with learning enabled and non-zero modulatory signal")
	}
}

func TestUpdateWeightsShapeMismatch(t *testing.T) {
	s := newTestSynapse(t, 3, 2)
	if err := s.UpdateWeights([]float64{1}, []float64{1, 1}, []float64{1, 1}); err == nil {
		t.Error("short pre: expected error")
	}
	if err := s.UpdateWeights([]float64{1, 1, 1}, []float64{1}, []float64{1, 1}); err == nil {
		t.Error("short mod: expected error")
	}
}

func TestStats(t *testing.T) {
	s := newTestSynapse(t, 4, 4)
	st := s.Stats()
	if st.Count != 16 {
		t.Errorf("Count = %d, want 16", st.Count)
	}
	if st.Min > st.Mean || st.Mean > st.Max {
		t.Errorf("inconsistent stats: %+v", st)
	}
	// Gaussian init with sigma 0.1 should produce nonzero spread.
	if st.Std == 0 {
		t.Error("Std = 0 for gaussian-initialized weights")
	}
}

func TestSetWeights(t *testing.T) {
	s := newTestSynapse(t, 2, 2)
	if err := s.SetWeights([]float64{1, 2, 3}); err == nil {
		t.Error("wrong checkpoint length: expected error")
	}
	want := []float64{1, 2, 3, 4}
	if err := s.SetWeights(want); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}
	got := s.Weights()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("w[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
