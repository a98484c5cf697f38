package features

import "math"

// rgbToHSV converts an 8-bit RGB triple to the 8-bit HSV convention:
// H in [0, 180] (degrees halved), S and V in [0, 255].
func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	diff := maxC - minC

	v = uint8(maxC)
	if maxC == 0 {
		return 0, 0, v
	}
	s = uint8(math.Round(255 * diff / maxC))
	if diff == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxC {
	case rf:
		hue = 60 * (gf - bf) / diff
	case gf:
		hue = 120 + 60*(bf-rf)/diff
	default:
		hue = 240 + 60*(rf-gf)/diff
	}
	if hue < 0 {
		hue += 360
	}

	return uint8(math.Round(hue / 2)), s, v
}

// luma returns the Rec.601 gray level of an 8-bit RGB triple.
func luma(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Min(255, math.Round(y)))
}
