package layer

import (
	"math"

	"github.com/nvandessel/spikeloop/internal/vecmath"
)

// finiteDiffEps keeps the modulatory division away from zero when the trace
// barely moved between steps. A trace that moves less than this per step is
// effectively flat, so the quotient degrades into dLoss/eps instead of
// exploding.
const finiteDiffEps = 1e-3

// modClamp bounds the magnitude of the modulatory signal. The finite
// difference can still spike when the trace reverses direction near zero;
// the clamp keeps a single step from dominating the weight matrix.
const modClamp = 10.0

// goodnessClamp keeps the goodness away from exactly 0 or 1 so the
// cross-entropy loss never saturates to infinity.
const goodnessClamp = 1e-6

// ModTracker maintains the exponential spike trace and derives the local
// modulatory signal for a LIF layer. It is owned exclusively by its layer:
// the trace updates on every Step of the owner and resets only when the
// owner resets.
//
// The modulatory vector is a per-neuron finite-difference estimate of
// d(loss)/d(trace): (loss_t - loss_{t-1}) / (z_i,t - z_i,t-1 + eps). No
// automatic differentiation is involved. Cross-entropy uses the natural
// logarithm. Both choices are documented in DESIGN.md.
type ModTracker struct {
	z        []float64
	prevZ    []float64
	mod      []float64
	prevLoss float64
	loss     float64
	goodness float64

	traceTau float64 // trace time constant
	maxAmp   float64 // maximum trace amplitude
	omega    float64 // goodness offset

	positive bool // current sample polarity
	primed   bool // false until the first Update after a reset
}

// ModConfig holds the tunable parameters of the modulatory tracker.
type ModConfig struct {
	// TraceTau is the time constant of the exponential spike trace.
	TraceTau float64

	// MaxAmp scales spikes before they enter the trace, bounding the
	// trace amplitude at MaxAmp for a continuously firing neuron.
	MaxAmp float64

	// Omega is the goodness offset: goodness = sigmoid(sum(z^2) - Omega^2).
	Omega float64
}

// DefaultModConfig returns the default tracker parameters.
func DefaultModConfig() ModConfig {
	return ModConfig{
		TraceTau: 5.0,
		MaxAmp:   2.0,
		Omega:    2.0,
	}
}

// NewModTracker creates a tracker for a population of the given size.
// Polarity starts positive.
func NewModTracker(size int, cfg ModConfig) *ModTracker {
	return &ModTracker{
		z:        vecmath.Zeros(size),
		prevZ:    vecmath.Zeros(size),
		mod:      vecmath.Zeros(size),
		traceTau: cfg.TraceTau,
		maxAmp:   cfg.MaxAmp,
		omega:    cfg.Omega,
		positive: true,
	}
}

// Update advances the trace with one exponential-smoothing step and
// recomputes loss and modulatory signal from the new trace. It must be
// called exactly once per owner Step, after spikes are known.
func (m *ModTracker) Update(spikes []float64, dt float64) {
	copy(m.prevZ, m.z)
	k := dt / m.traceTau
	for i, s := range spikes {
		m.z[i] += k * (m.maxAmp*s - m.z[i])
	}

	g := vecmath.Sigmoid(vecmath.SumSquares(m.z) - m.omega*m.omega)
	if g < goodnessClamp {
		g = goodnessClamp
	} else if g > 1-goodnessClamp {
		g = 1 - goodnessClamp
	}
	m.goodness = g

	// Cross-entropy against the polarity label: positive samples should
	// drive goodness toward 1, negative samples toward 0.
	if m.positive {
		m.loss = -math.Log(g)
	} else {
		m.loss = -math.Log(1 - g)
	}

	// The finite difference needs two loss samples: the first Update after a
	// reset only primes the history and emits a zero signal.
	if !m.primed {
		m.primed = true
		m.prevLoss = m.loss
		vecmath.Fill(m.mod, 0)
		return
	}

	dLoss := m.loss - m.prevLoss
	for i := range m.mod {
		v := dLoss / (m.z[i] - m.prevZ[i] + finiteDiffEps)
		if v > modClamp {
			v = modClamp
		} else if v < -modClamp {
			v = -modClamp
		}
		m.mod[i] = v
	}
	m.prevLoss = m.loss
}

// Signal returns the modulatory vector from the most recent Update.
// The slice is owned by the tracker.
func (m *ModTracker) Signal() []float64 { return m.mod }

// Goodness returns the clamped goodness from the most recent Update.
func (m *ModTracker) Goodness() float64 { return m.goodness }

// Loss returns the cross-entropy loss from the most recent Update.
func (m *ModTracker) Loss() float64 { return m.loss }

// SetPolarity sets whether the current presentation is a positive sample.
// It changes the loss target only, never the trace dynamics.
func (m *ModTracker) SetPolarity(positive bool) { m.positive = positive }

// Reset clears trace, loss history and signal. Only the owning layer calls
// this, as part of its own Reset.
func (m *ModTracker) Reset() {
	vecmath.Fill(m.z, 0)
	vecmath.Fill(m.prevZ, 0)
	vecmath.Fill(m.mod, 0)
	m.prevLoss = 0
	m.loss = 0
	m.goodness = 0
	m.primed = false
}
