package sync

import "math"

// energy returns the sum of squared magnitudes of samples.
func energy(samples []complex128) float64 {
	var e float64
	for _, s := range samples {
		e += real(s)*real(s) + imag(s)*imag(s)
	}
	return e
}

// autocorrCoefficient computes the normalized magnitude of the conjugate
// dot product between two equal-length windows, scaled by the geometric
// mean of their energies so the result falls in [0, 1]. By Cauchy-Schwarz
// |sum(a*conj(b))| <= sqrt(energy(a)*energy(b)), so no clamping is needed
// beyond guarding the zero-energy case.
func autocorrCoefficient(a, b []complex128) float64 {
	var dotRe, dotIm float64
	for i := range a {
		ar, ai := real(a[i]), imag(a[i])
		br, bi := real(b[i]), imag(b[i])
		// a * conj(b)
		dotRe += ar*br + ai*bi
		dotIm += ai*br - ar*bi
	}
	mag := math.Hypot(dotRe, dotIm)
	denom := math.Sqrt(energy(a) * energy(b))
	if denom == 0 {
		return 0
	}
	return mag / denom
}

// dot returns the plain inner product of two equal-length real vectors.
func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// normalizedCorr is a Pearson-style normalized cross-correlation of two
// equal-length real vectors: both are centred on their means before the
// normalized dot product, so the result lands in [-1, 1] for non-constant
// inputs (0 when either input is constant).
func normalizedCorr(a, b []float64) float64 {
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	if len(a) > 0 {
		meanA /= float64(len(a))
		meanB /= float64(len(a))
	}
	var ab, aa, bb float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		ab += da * db
		aa += da * da
		bb += db * db
	}
	denom := math.Sqrt(aa * bb)
	if denom == 0 {
		return 0
	}
	return ab / denom
}

// argmaxDot slides window (length spSym) as a probe across ref starting at
// every offset in [0, searchLen), scoring each placement with a raw
// (unnormalized) dot product, and returns the offset with the highest
// score. ref must have at least spSym+searchLen-1 samples.
func argmaxDot(ref []float64, window []float64, searchLen int) (bestOffset int, bestScore float64) {
	bestScore = math.Inf(-1)
	for off := 0; off < searchLen; off++ {
		score := dot(ref[off:off+len(window)], window)
		if score > bestScore {
			bestScore = score
			bestOffset = off
		}
	}
	return bestOffset, bestScore
}
