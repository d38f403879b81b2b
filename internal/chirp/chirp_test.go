package chirp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuild_SamplesPerSymbolMatchesSF(t *testing.T) {
	for sf := 7; sf <= 12; sf++ {
		bank, err := Build(125000*16, 125000, sf)
		require.NoError(t, err)
		want := (1 << uint(sf)) * 16
		assert.Equal(t, want, bank.SamplesPerSymbol, "sf=%d", sf)
		assert.Equal(t, want, len(bank.Upchirp))
		assert.Equal(t, want, len(bank.Downchirp))
		assert.Equal(t, want, len(bank.UpchirpIfreq))
		assert.Equal(t, 3*want, len(bank.UpchirpIfreqTriple))
	}
}

func TestBuild_RejectsBadConfig(t *testing.T) {
	_, err := Build(1e6, 125000, 5)
	assert.Error(t, err)

	_, err = Build(1e6, 125000, 13)
	assert.Error(t, err)

	_, err = Build(0, 125000, 9)
	assert.Error(t, err)

	_, err = Build(1e6, 0, 9)
	assert.Error(t, err)
}

func TestBuild_ChirpsHaveConstantAmplitude(t *testing.T) {
	bank, err := Build(1e6, 125000, 7)
	require.NoError(t, err)
	for _, u := range bank.Upchirp {
		mag := real(u)*real(u) + imag(u)*imag(u)
		assert.InDelta(t, 2.0, mag, 1e-6) // |1+j|^2 == 2
	}
	for _, d := range bank.Downchirp {
		mag := real(d)*real(d) + imag(d)*imag(d)
		assert.InDelta(t, 2.0, mag, 1e-6)
	}
}

func TestInstantaneousFrequency_WrapsIntoPiRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sf := rapid.IntRange(7, 10).Draw(t, "sf")
		bank, err := Build(float64(int(1)<<uint(sf))*16, 125000, sf)
		require.NoError(t, err)
		for _, v := range bank.UpchirpIfreq {
			assert.GreaterOrEqual(t, v, -3.1415926536)
			assert.LessOrEqual(t, v, 3.1415926536)
		}
	})
}
