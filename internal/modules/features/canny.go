package features

import "math"

var (
	tan22 = math.Tan(22.5 * math.Pi / 180)
	tan67 = math.Tan(67.5 * math.Pi / 180)
)

// CannyEdges runs a two-threshold Canny detector over a w x h gray buffer and
// returns the edge mask. Gradients come from a 3x3 Sobel operator with
// replicated borders and are measured with the L1 norm |gx|+|gy|; no
// smoothing is applied first.
func CannyEdges(gray []uint8, w, h int, low, high float64) []bool {
	n := w * h
	edges := make([]bool, n)
	if n == 0 || len(gray) < n {
		return edges
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(gray[y*w+x])
	}

	gx := make([]float64, n)
	gy := make([]float64, n)
	mag := make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	// Non-maximum suppression along the quantized gradient direction
	candidate := make([]bool, n)
	stack := make([]int, 0, n/8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			ax, ay := math.Abs(gx[i]), math.Abs(gy[i])
			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				n1, n2 = magAt(x-1, y), magAt(x+1, y)
			case ay > ax*tan67:
				n1, n2 = magAt(x, y-1), magAt(x, y+1)
			case gx[i]*gy[i] > 0:
				n1, n2 = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				n1, n2 = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= n1 || m < n2 {
				continue
			}

			candidate[i] = true
			if m > high {
				edges[i] = true
				stack = append(stack, i)
			}
		}
	}

	// Hysteresis: weak candidates survive only when 8-connected to a strong edge
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if candidate[j] && !edges[j] {
					edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}

	return edges
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
