// Package quantum simulates the fixed 7-qubit circuit that maps a ColorVector
// to per-wire PauliZ expectation values. The simulation is exact: the full
// 2^n state vector is evolved gate by gate, no sampling is involved.
package quantum

import (
	"math"

	"github.com/aristath/roadscan/internal/domain"
)

// Constants for the default circuit
const (
	DefaultWires  = domain.FeatureDim
	DefaultLayers = 1
	DefaultWeight = 0.5
	MaxWires      = 16
)

// Circuit is an immutable encoding + entangling circuit description.
// weights has shape layers x wires x 3 (Rot angles phi, theta, omega).
type Circuit struct {
	wires   int
	weights [][][3]float64
}

// Default returns the 7-wire circuit with one entangling layer whose
// rotation weights are all 0.5.
func Default() *Circuit {
	c, _ := NewCircuit(DefaultWires, UniformWeights(DefaultLayers, DefaultWires, DefaultWeight))
	return c
}

// UniformWeights builds a layers x wires x 3 weight tensor filled with w.
func UniformWeights(layers, wires int, w float64) [][][3]float64 {
	weights := make([][][3]float64, layers)
	for l := range weights {
		weights[l] = make([][3]float64, wires)
		for i := range weights[l] {
			weights[l][i] = [3]float64{w, w, w}
		}
	}
	return weights
}

// NewCircuit validates the shape and returns a circuit. The weights are copied.
func NewCircuit(wires int, weights [][][3]float64) (*Circuit, error) {
	if wires < 1 || wires > MaxWires {
		return nil, domain.Errorf(domain.KindCircuit, "new circuit", "wires must be in [1, %d], got %d", MaxWires, wires)
	}
	cp := make([][][3]float64, len(weights))
	for l, layer := range weights {
		if len(layer) != wires {
			return nil, domain.Errorf(domain.KindCircuit, "new circuit",
				"layer %d has %d weight triples, want %d", l, len(layer), wires)
		}
		cp[l] = append([][3]float64(nil), layer...)
	}
	return &Circuit{wires: wires, weights: cp}, nil
}

// Wires returns the register size.
func (c *Circuit) Wires() int { return c.wires }

// Layers returns the number of entangling layers.
func (c *Circuit) Layers() int { return len(c.weights) }

// Evaluate runs the circuit on v and returns ⟨Z⟩ for every wire in order.
// v may have any non-zero length; angles are read with circular indexing.
func (c *Circuit) Evaluate(v []float64) (domain.QuantumOutput, error) {
	reg, err := c.Run(v)
	if err != nil {
		return nil, err
	}

	out := make(domain.QuantumOutput, c.wires)
	for i := range out {
		// Clamp rounding noise so the [-1, 1] contract holds exactly
		out[i] = math.Max(-1, math.Min(1, reg.ExpectZ(i)))
	}
	return out, nil
}

// Run evolves a fresh register through the circuit and returns it.
func (c *Circuit) Run(v []float64) (*Register, error) {
	if len(v) == 0 {
		return nil, domain.Errorf(domain.KindCircuit, "evaluate circuit", "empty input vector")
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, domain.Errorf(domain.KindCircuit, "evaluate circuit", "component %d is not finite (%v)", i, x)
		}
	}

	reg := NewRegister(c.wires)
	n := len(v)

	// Angle encoding: each wire reads two circularly adjacent components
	for i := 0; i < c.wires; i++ {
		reg.Apply(RY(v[i%n]*math.Pi), i)
		reg.Apply(RZ(v[(i+1)%n]*math.Pi), i)
	}

	for l, layer := range c.weights {
		for i, w := range layer {
			reg.Apply(Rot(w[0], w[1], w[2]), i)
		}
		if c.wires > 1 {
			r := l%(c.wires-1) + 1
			for i := 0; i < c.wires; i++ {
				reg.CNOT(i, (i+r)%c.wires)
			}
		}
	}

	return reg, nil
}
