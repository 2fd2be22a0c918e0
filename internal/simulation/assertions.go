package simulation

import (
	"math"
	"testing"
)

// AssertWeightsBounded asserts that no synapse's weight magnitude exceeds
// maxAbs in any epoch sample.
func AssertWeightsBounded(t *testing.T, result TrainResult, maxAbs float64) {
	t.Helper()
	for _, er := range result.Epochs {
		for i, st := range er.WeightStats {
			if math.Abs(st.Min) > maxAbs || math.Abs(st.Max) > maxAbs {
				t.Errorf("AssertWeightsBounded: epoch %d: synapse %d range [%.4f, %.4f] exceeds ±%.2f",
					er.Index, i, st.Min, st.Max, maxAbs)
			}
		}
	}
}

// AssertWeightsFinite asserts that every sampled weight statistic is a
// finite number, catching NaN or Inf blowups anywhere in a run.
func AssertWeightsFinite(t *testing.T, result TrainResult) {
	t.Helper()
	for _, er := range result.Epochs {
		for i, st := range er.WeightStats {
			for _, v := range []float64{st.Mean, st.Std, st.Min, st.Max} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("AssertWeightsFinite: epoch %d: synapse %d has non-finite stats %+v", er.Index, i, st)
					break
				}
			}
		}
	}
}

// AssertGoodnessInRange asserts that every episode's goodness stays
// strictly inside (0, 1).
func AssertGoodnessInRange(t *testing.T, result TrainResult) {
	t.Helper()
	for _, er := range result.Epochs {
		for _, ep := range er.Episodes {
			if ep.Goodness <= 0 || ep.Goodness >= 1 {
				t.Errorf("AssertGoodnessInRange: epoch %d sample %d: goodness %.6f outside (0, 1)",
					ep.Epoch, ep.SampleIndex, ep.Goodness)
			}
			if math.IsNaN(ep.Loss) || math.IsInf(ep.Loss, 0) {
				t.Errorf("AssertGoodnessInRange: epoch %d sample %d: non-finite loss %.6f",
					ep.Epoch, ep.SampleIndex, ep.Loss)
			}
		}
	}
}

// AssertWeightsChanged asserts that at least one synapse's mean weight
// differs between two epoch samples.
func AssertWeightsChanged(t *testing.T, result TrainResult, fromEpoch, toEpoch int) {
	t.Helper()
	from := result.Epochs[fromEpoch].WeightStats
	to := result.Epochs[toEpoch].WeightStats
	for i := range from {
		if from[i].Mean != to[i].Mean || from[i].Std != to[i].Std {
			return
		}
	}
	t.Errorf("AssertWeightsChanged: no synapse changed between epoch %d and %d", fromEpoch, toEpoch)
}

// AssertWeightsUnchanged asserts that every synapse's statistics are
// identical between two epoch samples (for frozen runs).
func AssertWeightsUnchanged(t *testing.T, result TrainResult, fromEpoch, toEpoch int) {
	t.Helper()
	from := result.Epochs[fromEpoch].WeightStats
	to := result.Epochs[toEpoch].WeightStats
	for i := range from {
		if from[i] != to[i] {
			t.Errorf("AssertWeightsUnchanged: synapse %d changed between epoch %d and %d: %+v -> %+v",
				i, fromEpoch, toEpoch, from[i], to[i])
		}
	}
}

// AssertEpisodeCount asserts that every epoch produced the expected number
// of episodes.
func AssertEpisodeCount(t *testing.T, result TrainResult, want int) {
	t.Helper()
	for _, er := range result.Epochs {
		if len(er.Episodes) != want {
			t.Errorf("AssertEpisodeCount: epoch %d has %d episodes, want %d", er.Index, len(er.Episodes), want)
		}
	}
}

// MaxAbsWeight returns the largest weight magnitude seen across a run.
func MaxAbsWeight(result TrainResult) float64 {
	max := 0.0
	for _, er := range result.Epochs {
		for _, st := range er.WeightStats {
			if m := math.Abs(st.Min); m > max {
				max = m
			}
			if m := math.Abs(st.Max); m > max {
				max = m
			}
		}
	}
	return max
}
