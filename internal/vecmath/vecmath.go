// Package vecmath provides small dense vector and matrix helpers for the
// simulation engine. All operations are shape-checked: a length mismatch is
// reported as an error rather than a panic, so a malformed tensor aborts the
// caller's timestep instead of the process.
package vecmath

import (
	"fmt"
	"math"
)

// Zeros returns a new zero vector of length n.
func Zeros(n int) []float64 {
	return make([]float64, n)
}

// Fill sets every element of v to x.
func Fill(v []float64, x float64) {
	for i := range v {
		v[i] = x
	}
}

// AddInto adds src into dst element-wise, mutating dst.
func AddInto(dst, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("vecmath: add length mismatch: %d vs %d", len(dst), len(src))
	}
	for i, x := range src {
		dst[i] += x
	}
	return nil
}

// Clamp01 clamps every element of v into [0, 1], in place.
func Clamp01(v []float64) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		} else if x > 1 {
			v[i] = 1
		}
	}
}

// SumSquares returns the sum of squared elements.
func SumSquares(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return s
}

// MatVec computes w · v for a (rows × cols) matrix stored row-major.
func MatVec(w []float64, rows, cols int, v []float64) ([]float64, error) {
	if len(w) != rows*cols {
		return nil, fmt.Errorf("vecmath: matrix size %d does not match shape %dx%d", len(w), rows, cols)
	}
	if len(v) != cols {
		return nil, fmt.Errorf("vecmath: matvec length mismatch: vector %d vs cols %d", len(v), cols)
	}
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		row := w[r*cols : (r+1)*cols]
		var s float64
		for c, x := range row {
			s += x * v[c]
		}
		out[r] = s
	}
	return out, nil
}

// OuterInto accumulates k * outer(post, pre) into the (len(post) × len(pre))
// row-major matrix w, mutating w.
func OuterInto(w []float64, post, pre []float64, k float64) error {
	if len(w) != len(post)*len(pre) {
		return fmt.Errorf("vecmath: outer target size %d does not match %dx%d", len(w), len(post), len(pre))
	}
	for r, p := range post {
		if p == 0 || k == 0 {
			continue
		}
		row := w[r*len(pre) : (r+1)*len(pre)]
		for c, q := range pre {
			row[c] += k * p * q
		}
	}
	return nil
}

// Stats summarizes a slice of values.
type Stats struct {
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	Count int
}

// Summarize computes mean, population standard deviation, min and max.
// An empty slice yields the zero Stats.
func Summarize(v []float64) Stats {
	if len(v) == 0 {
		return Stats{}
	}
	st := Stats{Min: v[0], Max: v[0], Count: len(v)}
	for _, x := range v {
		st.Mean += x
		if x < st.Min {
			st.Min = x
		}
		if x > st.Max {
			st.Max = x
		}
	}
	st.Mean /= float64(len(v))
	var ss float64
	for _, x := range v {
		d := x - st.Mean
		ss += d * d
	}
	st.Std = math.Sqrt(ss / float64(len(v)))
	return st
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
