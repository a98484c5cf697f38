// Package domain provides core domain models and types.
package domain

import (
	"math"
	"time"
)

// FeatureDim is the fixed length of a ColorVector and of a QuantumOutput.
const FeatureDim = 7

// ColorVector is the normalized color/texture signature of one image:
// 3 hue bins, 2 saturation bins, 1 value bin and edge density,
// re-normalized so the components sum to 1.
type ColorVector []float64

// Sum returns the sum of all components.
func (v ColorVector) Sum() float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// Valid reports whether v has FeatureDim non-negative finite components
// summing to 1 within tol.
func (v ColorVector) Valid(tol float64) bool {
	if len(v) != FeatureDim {
		return false
	}
	for _, x := range v {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return math.Abs(v.Sum()-1) <= tol
}

// QuantumOutput holds one PauliZ expectation value per wire, in wire order.
type QuantumOutput []float64

// Assessment is everything the advisory collaborator receives for one image.
type Assessment struct {
	Path     string        `json:"path"`
	Location string        `json:"location"`
	Color    ColorVector   `json:"color_vector"`
	Quantum  QuantumOutput `json:"quantum_output"`
	Entropy  float64       `json:"entropy_score"`
}

// EncryptedRecord is the persisted form of one processed image.
// Ciphertext is base64(nonce ‖ sealed ‖ tag); the plaintext never reaches disk.
type EncryptedRecord struct {
	ID         int64     `json:"id,omitempty" msgpack:"id,omitempty"`
	RunID      string    `json:"run_id,omitempty" msgpack:"run_id,omitempty"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	Ciphertext string    `json:"encrypted" msgpack:"encrypted"`
	Entropy    float64   `json:"entropy_score" msgpack:"entropy_score"`
}

// Complete reports whether the record carries everything persistence requires.
func (r EncryptedRecord) Complete() bool {
	return !r.Timestamp.IsZero() && r.Ciphertext != "" &&
		!math.IsNaN(r.Entropy) && !math.IsInf(r.Entropy, 0)
}
