package cover

import (
	"math"

	"meshveil/pkg/rng"
)

// poisson draws a sample from Poisson(lambda). Knuth's algorithm is
// used for small lambda where it stays numerically stable and cheap;
// a Gaussian approximation takes over for larger lambda where Knuth's
// repeated-multiplication product would underflow.
func poisson(lambda float64, r *rng.Lehmer) int {
	if lambda <= 0 {
		return 0
	}
	if lambda < 30 {
		return poissonKnuth(lambda, r)
	}
	return poissonGaussian(lambda, r)
}

func poissonKnuth(lambda float64, r *rng.Lehmer) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= r.Float64()
		if p <= l {
			return k - 1
		}
	}
}

func poissonGaussian(lambda float64, r *rng.Lehmer) int {
	v := r.Gauss(lambda, math.Sqrt(lambda))
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	return n
}
