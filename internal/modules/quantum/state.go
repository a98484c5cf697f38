package quantum

// Register is the state vector of an n-qubit register. Wire 0 is the most
// significant bit of the basis-state index.
type Register struct {
	wires int
	amps  []complex128
}

// NewRegister returns an n-qubit register in the ground state |0…0⟩.
func NewRegister(wires int) *Register {
	amps := make([]complex128, 1<<wires)
	amps[0] = 1
	return &Register{wires: wires, amps: amps}
}

// Amplitudes returns a copy of the state vector.
func (r *Register) Amplitudes() []complex128 {
	out := make([]complex128, len(r.amps))
	copy(out, r.amps)
	return out
}

func (r *Register) mask(wire int) int {
	return 1 << (r.wires - 1 - wire)
}

// Apply applies a single-qubit gate to wire.
func (r *Register) Apply(g Gate, wire int) {
	m := r.mask(wire)
	for k := range r.amps {
		if k&m != 0 {
			continue
		}
		a0, a1 := r.amps[k], r.amps[k|m]
		r.amps[k] = g[0][0]*a0 + g[0][1]*a1
		r.amps[k|m] = g[1][0]*a0 + g[1][1]*a1
	}
}

// CNOT flips target on every basis state where control is 1.
func (r *Register) CNOT(control, target int) {
	cm, tm := r.mask(control), r.mask(target)
	for k := range r.amps {
		if k&cm != 0 && k&tm == 0 {
			r.amps[k], r.amps[k|tm] = r.amps[k|tm], r.amps[k]
		}
	}
}

// ExpectZ returns the exact expectation of PauliZ on wire: P(0) − P(1).
func (r *Register) ExpectZ(wire int) float64 {
	m := r.mask(wire)
	var e float64
	for k, a := range r.amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if k&m == 0 {
			e += p
		} else {
			e -= p
		}
	}
	return e
}
