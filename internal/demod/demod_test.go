package demod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tve-devices/lorarx/internal/chirp"
)

// rotatedSymbol builds the complex samples LoRa would transmit for bin k:
// the ideal upchirp cyclically shifted left by k*decim samples.
func rotatedSymbol(bank *chirp.Bank, k int) []complex128 {
	n := len(bank.Upchirp)
	shift := (k * bank.Decim) % n
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = bank.Upchirp[(i+shift)%n]
	}
	return out
}

func TestBin_LinearWithRotation(t *testing.T) {
	bank, err := chirp.Build(125000*8, 125000, 7)
	require.NoError(t, err)

	for k := 0; k < bank.N; k++ {
		window := rotatedSymbol(bank, k)
		got := Bin(window, bank.N, bank.Decim)
		assert.Equal(t, k, got, "k=%d", k)
	}
}

func TestStep_AccumulatesBlockOfFourPlusCR(t *testing.T) {
	bank, err := chirp.Build(125000*8, 125000, 7)
	require.NoError(t, err)

	for cr := 1; cr <= 4; cr++ {
		d := New(cr)
		var ready bool
		for i := 0; i < 4+cr; i++ {
			window := rotatedSymbol(bank, i%bank.N)
			ready = d.Step(window, bank.N, bank.Decim, false, nil)
			if i < 4+cr-1 {
				assert.False(t, ready)
			}
		}
		assert.True(t, ready)
		assert.Len(t, d.Words(), 4+cr)
		d.Reset()
		assert.Empty(t, d.Words())
	}
}
