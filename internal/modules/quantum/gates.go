package quantum

import (
	"math"
	"math/cmplx"
)

// Gate is a single-qubit unitary in the computational basis.
type Gate [2][2]complex128

// Identity is the 2x2 identity gate.
var Identity = Gate{{1, 0}, {0, 1}}

// Mul returns g·h (apply h first, then g).
func (g Gate) Mul(h Gate) Gate {
	var out Gate
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = g[i][0]*h[0][j] + g[i][1]*h[1][j]
		}
	}
	return out
}

// RY is a rotation by theta about the Y axis.
func RY(theta float64) Gate {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return Gate{{c, -s}, {s, c}}
}

// RZ is a rotation by phi about the Z axis.
func RZ(phi float64) Gate {
	return Gate{
		{cmplx.Exp(complex(0, -phi/2)), 0},
		{0, cmplx.Exp(complex(0, phi/2))},
	}
}

// Rot is the general rotation RZ(omega)·RY(theta)·RZ(phi).
func Rot(phi, theta, omega float64) Gate {
	return RZ(omega).Mul(RY(theta)).Mul(RZ(phi))
}
