package geom

import (
	"github.com/chewxy/math32"
)

// Distance2 returns the squared Euclidean distance between a and b, summed
// in single precision over every component of a in order.
func Distance2(a, b []float32) float32 {
	var sum float32
	for k := range a {
		d := a[k] - b[k]
		// Explicit conversion: no FMA fusion.
		sum += float32(d * d)
	}
	return sum
}

// Finite returns true if no component of x is NaN or infinite.
func Finite(x []float32) bool {
	for _, v := range x {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}
