// Package block decodes one interleaved block of 4+cr Gray-coded symbol
// words into payload/header nibbles: deinterleave, deshuffle, dewhiten and
// Hamming-decode, in that order, matching the inverse of LoRa's transmit
// chain.
package block

import "github.com/tve-devices/lorarx/internal/lorawire"

// Result is the output of decoding one block.
type Result struct {
	// Bytes holds the nibble-packed output bytes for this block.
	Bytes []byte
	// ParityErrors counts codewords whose syndrome could not be
	// corrected (always true under cr in {1,2}; occasional under
	// cr in {3,4} when more than one bit was corrupted).
	ParityErrors int
}

// VariantFor selects the whitening sequence for a block: the fixed header
// table for the 3-byte explicit header, or the (cr, reduced_rate)-keyed
// payload table otherwise. implicitHeader does not change which table is
// used for payload blocks — only explicit mode's header framing differs.
func VariantFor(isHeader bool, cr int, reducedRate bool) lorawire.WhiteningVariant {
	if isHeader {
		return lorawire.WhiteningHeader
	}
	return lorawire.PayloadVariant(cr, reducedRate)
}

// Decode turns words (len(words) == 4+cr Gray-coded symbols, each a ppm-bit
// field) into output bytes. isHeader selects the header's deshuffle/nibble
// conventions (deshuffle over only the first 5 words, no nibble swap) from
// the payload's (deshuffle over every word, nibbles swapped before
// appending — see the Open Question preserved in DESIGN.md).
func Decode(words []uint32, ppm, cr int, variant lorawire.WhiteningVariant, isHeader bool) Result {
	deinterleaved := lorawire.Deinterleave(words, ppm)
	n := len(deinterleaved)

	deshuffleLimit := n
	if isHeader && n > 5 {
		deshuffleLimit = 5
	}

	deshuffled := make([]byte, n)
	for i, w := range deinterleaved {
		b := byte(w)
		if i < deshuffleLimit {
			b = lorawire.Deshuffle(b, lorawire.DefaultShufflePattern)
		}
		deshuffled[i] = b
	}

	whiteningSeq := lorawire.WhiteningSequence(variant, n)
	dewhitened := make([]byte, n)
	for i, b := range deshuffled {
		dewhitened[i] = b ^ whiteningSeq[i]
	}

	swap := !isHeader
	var res Result
	i := 0
	for ; i+1 < n; i += 2 {
		var out byte
		var parityErr bool
		if cr >= 3 {
			out, parityErr = lorawire.HammingDecodeSoftPair(dewhitened[i], dewhitened[i+1], swap)
		} else {
			out, parityErr = lorawire.ExtractPairNoCorrection(dewhitened[i], dewhitened[i+1], swap)
		}
		if parityErr {
			res.ParityErrors++
		}
		res.Bytes = append(res.Bytes, out)
	}
	// An odd ppm leaves one dewhitened codeword unpaired; its data bits
	// still carry information and are packed alone into the low nibble.
	if i < n {
		nib := lorawire.ExtractDataBits(dewhitened[i])
		res.Bytes = append(res.Bytes, nib)
	}

	return res
}
