package lorawire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestGrayRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sf := rapid.IntRange(7, 12).Draw(t, "sf")
		n := rapid.Uint32Range(0, uint32(1<<uint(sf))-1).Draw(t, "n")
		assert.Equal(t, n, GrayDecode(GrayEncode(n)))
	})
}

func TestDeshuffleRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := byte(rapid.IntRange(0, 255).Draw(t, "b"))
		assert.Equal(t, b, Deshuffle(Shuffle(b, DefaultShufflePattern), DefaultShufflePattern))
	})
}

func TestDeshuffleRoundtrip_OtherPermutations(t *testing.T) {
	patterns := [][8]int{
		{7, 6, 5, 4, 3, 2, 1, 0},
		{0, 1, 2, 3, 4, 5, 6, 7},
		{2, 7, 0, 5, 1, 6, 3, 4},
	}
	for _, pattern := range patterns {
		rapid.Check(t, func(t *rapid.T) {
			b := byte(rapid.IntRange(0, 255).Draw(t, "b"))
			assert.Equal(t, b, Deshuffle(Shuffle(b, pattern), pattern))
		})
	}
}

func TestHammingSoftRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := byte(rapid.IntRange(0, 15).Draw(t, "a"))
		b := byte(rapid.IntRange(0, 15).Draw(t, "b"))

		cw0 := HammingEncodeSoftNibble(a)
		cw1 := HammingEncodeSoftNibble(b)

		n0, corrected0, ok0 := HammingDecodeSoftByte(cw0)
		n1, corrected1, ok1 := HammingDecodeSoftByte(cw1)

		assert.True(t, ok0)
		assert.True(t, ok1)
		assert.False(t, corrected0)
		assert.False(t, corrected1)
		assert.Equal(t, a, n0)
		assert.Equal(t, b, n1)
	})
}

func TestHammingSoftSingleBitErrorCorrects(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := byte(rapid.IntRange(0, 15).Draw(t, "a"))
		flip := rapid.IntRange(0, 7).Draw(t, "flip")

		cw := HammingEncodeSoftNibble(a)
		flipped := cw ^ (1 << uint(flip))

		want, _, ok := HammingDecodeSoftByte(cw)
		assert.True(t, ok)
		got, corrected, ok2 := HammingDecodeSoftByte(flipped)
		assert.True(t, ok2)
		assert.True(t, corrected)
		assert.Equal(t, want, got)
	})
}

func TestInterleaveRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cr := rapid.IntRange(1, 4).Draw(t, "cr")
		sf := rapid.IntRange(7, 12).Draw(t, "sf")
		n := 4 + cr

		words := make([]uint32, n)
		for i := range words {
			words[i] = rapid.Uint32Range(0, uint32(1<<uint(sf))-1).Draw(t, "word")
		}

		out := Deinterleave(words, sf)
		back := Interleave(out, n)
		assert.Equal(t, words, back)
	})
}

func TestWhiteningSequenceIsDeterministic(t *testing.T) {
	a := WhiteningSequence(WhiteningPayloadCR1, 64)
	b := WhiteningSequence(WhiteningPayloadCR1, 64)
	assert.Equal(t, a, b)

	c := WhiteningSequence(WhiteningHeader, 64)
	assert.NotEqual(t, a, c)
}
