// Package dataset provides the small fixed logical datasets used to exercise
// the simulator: XOR and OR truth tables encoded as drive tensors with
// context labels. In the contrastive regime each row yields two
// presentations: the true label as a positive sample and a corrupted label
// as a negative sample.
package dataset

import "fmt"

// Sample is one presentation: input drive, context/label drive, and the
// contrastive polarity of the pairing.
type Sample struct {
	Input    []float64
	Context  []float64
	Positive bool
}

// Dataset is a named, fixed collection of samples.
type Dataset struct {
	Name    string
	Inputs  int // input width
	Outputs int // context/label width
	samples []Sample
}

// Samples returns the sample list. Callers must not mutate the returned
// slices.
func (d *Dataset) Samples() []Sample { return d.samples }

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// XOR returns the two-input XOR truth table with contrastive pairs: every
// row appears once with its true label (positive) and once with the flipped
// label (negative).
func XOR() *Dataset {
	return truthTable("xor", func(a, b float64) float64 {
		if a != b {
			return 1
		}
		return 0
	})
}

// OR returns the two-input OR truth table with contrastive pairs.
func OR() *Dataset {
	return truthTable("or", func(a, b float64) float64 {
		if a == 1 || b == 1 {
			return 1
		}
		return 0
	})
}

// AND returns the two-input AND truth table with contrastive pairs.
func AND() *Dataset {
	return truthTable("and", func(a, b float64) float64 {
		if a == 1 && b == 1 {
			return 1
		}
		return 0
	})
}

// ByName looks up a dataset by its CLI name.
func ByName(name string) (*Dataset, error) {
	switch name {
	case "xor":
		return XOR(), nil
	case "or":
		return OR(), nil
	case "and":
		return AND(), nil
	default:
		return nil, fmt.Errorf("dataset: unknown dataset %q (want xor, or, and)", name)
	}
}

func truthTable(name string, fn func(a, b float64) float64) *Dataset {
	d := &Dataset{Name: name, Inputs: 2, Outputs: 1}
	for _, row := range [][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		y := fn(row[0], row[1])
		d.samples = append(d.samples,
			Sample{Input: []float64{row[0], row[1]}, Context: []float64{y}, Positive: true},
			Sample{Input: []float64{row[0], row[1]}, Context: []float64{1 - y}, Positive: false},
		)
	}
	return d
}
