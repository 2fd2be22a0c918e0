package synapse

import (
	"github.com/nvandessel/spikeloop/internal/vecmath"
)

// CSDPConfig holds the tunable parameters of the CSDP rule.
type CSDPConfig struct {
	// DecayLambda scales the depression term outer(post, 1-pre). It carries
	// its own sign: the negative default shrinks weights whose pre-synaptic
	// partner is silent while the post neuron fires, bounding growth.
	DecayLambda float64
}

// DefaultCSDPConfig returns the default CSDP parameters.
func DefaultCSDPConfig() CSDPConfig {
	return CSDPConfig{
		DecayLambda: -0.001,
	}
}

// CSDP is contrastive signal-dependent plasticity: a three-factor Hebbian
// update gated by the post-synaptic layer's local modulatory signal instead
// of a fixed learning rate, plus a depression term for silent-pre/active-post
// pairs:
//
//	dW = outer(mod, pre) + decayLambda * outer(post, 1-pre)
//
// The modulatory signal is the post layer's finite-difference loss gradient,
// so no global error ever travels between layers.
type CSDP struct {
	cfg CSDPConfig

	// scratch buffer for (1 - pre), reused across calls
	preInv []float64
}

// NewCSDP creates a CSDP rule with the given parameters.
func NewCSDP(cfg CSDPConfig) *CSDP {
	return &CSDP{cfg: cfg}
}

// Name implements Rule.
func (c *CSDP) Name() string { return "csdp" }

// Apply implements Rule.
func (c *CSDP) Apply(w []float64, preSpikes, modSignal, postSpikes []float64) error {
	if err := vecmath.OuterInto(w, modSignal, preSpikes, 1.0); err != nil {
		return err
	}

	if c.cfg.DecayLambda == 0 {
		return nil
	}
	if cap(c.preInv) < len(preSpikes) {
		c.preInv = make([]float64, len(preSpikes))
	}
	inv := c.preInv[:len(preSpikes)]
	for i, p := range preSpikes {
		inv[i] = 1 - p
	}
	return vecmath.OuterInto(w, postSpikes, inv, c.cfg.DecayLambda)
}
