// Package scoring combines the classical and quantum signals of one image
// into its scalar entropy score.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/roadscan/internal/domain"
)

// EntropyScore returns PopStdDev(color) + PopStdDev(quantum).
// Standard deviations divide by N, so the score is invariant under any
// reordering of either input.
func EntropyScore(color domain.ColorVector, quantum domain.QuantumOutput) (float64, error) {
	if len(color) == 0 {
		return 0, domain.Errorf(domain.KindEmptyInput, "entropy score", "empty color vector")
	}
	if len(quantum) == 0 {
		return 0, domain.Errorf(domain.KindEmptyInput, "entropy score", "empty quantum output")
	}
	return PopStdDev(color) + PopStdDev(quantum), nil
}

// PopStdDev is the population standard deviation of x (0 for empty x).
func PopStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	if variance < 0 {
		// Rounding on near-constant input
		return 0
	}
	return math.Sqrt(variance)
}
