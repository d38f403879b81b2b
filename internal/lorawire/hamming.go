package lorawire

import "math/bits"

// Parity check columns for LoRa's Hamming(7,4)/(8,4) code, given as bit
// strings indexed left-to-right from bit 0. p1=10110100 means bit 0, 2, 3
// and 5 of a codeword contribute to the first syndrome bit, and so on.
var parityMasks = [4]byte{
	maskFromBits(0, 2, 3, 5), // p1 = 10110100
	maskFromBits(1, 2, 3, 4), // p2 = 01111000
	maskFromBits(1, 2, 5, 6), // p3 = 01100110
	maskFromBits(1, 3, 5, 7), // p4 = 01010101
}

// DataBitPositions are the codeword bit positions carrying the 4 data bits,
// for both the corrected Hamming(7,4)/(8,4) path and the uncorrected
// cr-in-{1,2} path.
var DataBitPositions = [4]int{1, 2, 3, 5}

func maskFromBits(positions ...int) byte {
	var m byte
	for _, p := range positions {
		m |= 1 << uint(p)
	}
	return m
}

// syndrome returns the 4-bit syndrome of a codeword under parityMasks.
func syndrome(codeword byte) int {
	s := 0
	for i, m := range parityMasks {
		if bits.OnesCount8(codeword&m)%2 == 1 {
			s |= 1 << uint(i)
		}
	}
	return s
}

// flipLUT maps a nonzero syndrome to the single codeword bit whose flip
// produced it. It is derived from parityMasks rather than hand-copied from
// a reference table, since the syndrome contribution of a single-bit error
// is linear: syndrome(1<<b) is exactly what flipping bit b adds to any
// codeword's syndrome.
var flipLUT = buildFlipLUT()

func buildFlipLUT() [16]int {
	var lut [16]int
	for i := range lut {
		lut[i] = -1
	}
	for b := 0; b < 8; b++ {
		s := syndrome(1 << uint(b))
		if s != 0 && lut[s] == -1 {
			lut[s] = b
		}
	}
	return lut
}

// ExtractDataBits reads the 4 data bits at DataBitPositions out of a
// codeword and packs them into a nibble, LSB first.
func ExtractDataBits(codeword byte) byte {
	var nibble byte
	for k, pos := range DataBitPositions {
		bit := (codeword >> uint(pos)) & 1
		nibble |= bit << uint(k)
	}
	return nibble
}

// HammingDecodeSoftByte corrects at most one bit of codeword using the
// syndrome LUT, then extracts its data nibble. ok is false when the
// syndrome does not correspond to any single-bit error this code can
// correct (only possible if more than one bit was corrupted).
func HammingDecodeSoftByte(codeword byte) (nibble byte, corrected bool, ok bool) {
	s := syndrome(codeword)
	if s == 0 {
		return ExtractDataBits(codeword), false, true
	}
	b := flipLUT[s]
	if b < 0 {
		return ExtractDataBits(codeword), false, false
	}
	return ExtractDataBits(codeword ^ (1 << uint(b))), true, true
}

// CombineNibbles packs two 4-bit nibbles into one byte. swap reverses which
// nibble lands in the high position — LoRa's payload blocks swap, its
// header does not (see the nibble-order note in the decoder package).
func CombineNibbles(first, second byte, swap bool) byte {
	if swap {
		return (second << 4) | (first & 0x0F)
	}
	return (first << 4) | (second & 0x0F)
}

// HammingDecodeSoftPair decodes two codewords with single-bit correction
// (cr in {3,4}) and combines their data nibbles into one byte.
func HammingDecodeSoftPair(cw0, cw1 byte, swap bool) (out byte, parityError bool) {
	n0, _, ok0 := HammingDecodeSoftByte(cw0)
	n1, _, ok1 := HammingDecodeSoftByte(cw1)
	return CombineNibbles(n0, n1, swap), !ok0 || !ok1
}

// ExtractPairNoCorrection packs two codewords' raw data bits (cr in {1,2}):
// no error correction is attempted, but a nonzero syndrome is still
// reported so the caller can surface a parity-error flag.
func ExtractPairNoCorrection(cw0, cw1 byte, swap bool) (out byte, parityError bool) {
	n0 := ExtractDataBits(cw0)
	n1 := ExtractDataBits(cw1)
	parityError = syndrome(cw0) != 0 || syndrome(cw1) != 0
	return CombineNibbles(n0, n1, swap), parityError
}
