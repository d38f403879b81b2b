// Package chirp builds and caches the ideal up/down reference chirps used by
// the synchronizer and symbol demodulator for a given radio configuration.
//
// A Bank is immutable after Build returns: every other component treats its
// four arrays as frozen reference data, regenerated only if the receiver is
// reconfigured (which means constructing a fresh Bank, not mutating one).
package chirp

import (
	"fmt"
	"math"
)

// ConfigError reports a configuration that cannot produce a valid chirp bank.
// Construction never panics or aborts the process on bad input; it returns
// this typed error instead.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chirp: invalid configuration: %s", e.Reason)
}

// Bank holds the reference chirps for one spreading factor / sample-rate /
// bandwidth combination.
type Bank struct {
	SF                int
	N                 int // bins per symbol, 2^SF
	SamplesPerSymbol  int
	Decim             int // samples per bin
	SymbolPeriod      float64
	Upchirp           []complex128
	Downchirp         []complex128
	UpchirpIfreq      []float64
	DownchirpIfreq    []float64
	UpchirpIfreqTriple []float64
}

// Build generates a frozen chirp bank for the given sample rate (Hz),
// bandwidth (Hz) and spreading factor. sf must be in [6,12] (6 is accepted
// here, one below the receiver's usable [7,12] range, to match the legacy
// tolerance of the reference decoder); sampleRate and bandwidth must be
// positive.
func Build(sampleRate, bandwidth float64, sf int) (*Bank, error) {
	if sf < 6 || sf > 12 {
		return nil, &ConfigError{Reason: fmt.Sprintf("sf %d out of range [6,12]", sf)}
	}
	if sampleRate <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("sample rate %g must be positive", sampleRate)}
	}
	if bandwidth <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("bandwidth %g must be positive", bandwidth)}
	}

	n := 1 << uint(sf)
	spSym := int(sampleRate * float64(n) / bandwidth)
	if spSym <= 0 {
		return nil, &ConfigError{Reason: "derived samples-per-symbol is non-positive"}
	}
	decim := spSym / n
	if decim <= 0 {
		decim = 1
	}

	b := &Bank{
		SF:               sf,
		N:                n,
		SamplesPerSymbol: spSym,
		Decim:            decim,
		SymbolPeriod:     1.0 / (bandwidth / float64(n)),
	}

	f0 := bandwidth / 2
	sweep := -(bandwidth * bandwidth) / (2 * float64(n))

	b.Downchirp = make([]complex128, spSym)
	b.Upchirp = make([]complex128, spSym)
	scale := complex(1, 1)
	for i := 0; i < spSym; i++ {
		t := float64(i) / sampleRate
		downAngle := 2 * math.Pi * (f0*t + sweep*t*t)
		upAngle := 2 * math.Pi * (f0*t - sweep*t*t)
		b.Downchirp[i] = cmplxExp(downAngle) * scale
		b.Upchirp[i] = cmplxExp(upAngle) * scale
	}

	b.DownchirpIfreq = instantaneousFrequency(b.Downchirp)
	b.UpchirpIfreq = instantaneousFrequency(b.Upchirp)

	b.UpchirpIfreqTriple = make([]float64, 0, 3*len(b.UpchirpIfreq))
	for i := 0; i < 3; i++ {
		b.UpchirpIfreqTriple = append(b.UpchirpIfreqTriple, b.UpchirpIfreq...)
	}

	return b, nil
}

func cmplxExp(angle float64) complex128 {
	s, c := math.Sincos(angle)
	return complex(c, s)
}

// instantaneousFrequency returns the wrapped first difference of the
// argument (phase) of samples, normalized into (-pi, pi]. The array has the
// same length as samples; the leading element is a copy of the first
// computed difference, since there is no sample before index 0.
func instantaneousFrequency(samples []complex128) []float64 {
	n := len(samples)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	prevPhase := phaseOf(samples[0])
	for i := 1; i < n; i++ {
		ph := phaseOf(samples[i])
		diff := wrapPi(ph - prevPhase)
		out[i] = diff
		prevPhase = ph
	}
	out[0] = out[1]
	return out
}

func phaseOf(c complex128) float64 {
	return math.Atan2(imag(c), real(c))
}

// wrapPi normalizes an angle into (-pi, pi].
func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
