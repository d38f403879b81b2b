package lorawire

// rotl rotates the low `size` bits of bits left by count positions.
func rotl(bits uint32, count, size uint) uint32 {
	if size == 0 {
		return 0
	}
	count %= size
	mask := uint32(1)<<size - 1
	bits &= mask
	if count == 0 {
		return bits
	}
	return ((bits << count) | (bits >> (size - count))) & mask
}

// rotr rotates the low `size` bits of bits right by count positions.
func rotr(bits uint32, count, size uint) uint32 {
	if size == 0 {
		return 0
	}
	count %= size
	return rotl(bits, size-count, size)
}

// Deinterleave reverses LoRa's diagonal interleaver. words holds len(words)
// == 4+cr Gray-coded symbols, each an n-bit field where n == ppm (sf, or
// sf-2 under the reduced-rate header schedule). It returns ppm output words,
// each (4+cr) bits wide — the raw material the block decoder deshuffles.
func Deinterleave(words []uint32, ppm int) []uint32 {
	n := len(words)
	rotated := make([]uint32, n)
	for i, w := range words {
		rotated[i] = rotl(w, uint(i), uint(ppm))
	}

	out := make([]uint32, ppm)
	for j := 0; j < ppm; j++ {
		var v uint32
		for i := 0; i < n; i++ {
			bit := (rotated[i] >> uint(j)) & 1
			v |= bit << uint(i)
		}
		out[ppm-1-j] = v
	}
	return out
}

// Interleave is the exact inverse of Deinterleave: given the (4+cr)-bit
// words Deinterleave produces, it reconstructs the original ppm-bit Gray
// symbols. It exists so the roundtrip property (and the reference encoder's
// behavior) can be exercised directly, without transmitting anything.
func Interleave(out []uint32, n int) []uint32 {
	ppm := len(out)
	rotated := make([]uint32, n)
	for j := 0; j < ppm; j++ {
		v := out[ppm-1-j]
		for i := 0; i < n; i++ {
			bit := (v >> uint(i)) & 1
			rotated[i] |= bit << uint(j)
		}
	}

	words := make([]uint32, n)
	for i := 0; i < n; i++ {
		words[i] = rotr(rotated[i], uint(i), uint(ppm))
	}
	return words
}
