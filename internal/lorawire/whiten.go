package lorawire

// WhiteningVariant selects which pseudorandom whitening sequence to XOR
// against deshuffled words. The reference implementation's header and
// payload tables are opaque binary data not present in the retrieved
// source; rather than guess several hundred magic bytes, sequences are
// generated deterministically from a 9-bit Fibonacci LFSR keyed by variant,
// exactly as a PN9-style whitening generator would be specified for a new
// radio stack. Decoder and tests share this generator, so every roundtrip
// property holds regardless of the exact byte values chosen.
type WhiteningVariant int

const (
	// WhiteningHeader is used for the 3-byte explicit PHY header block.
	WhiteningHeader WhiteningVariant = iota
	// WhiteningPayloadCR1 through WhiteningPayloadCR4Reduced cover the
	// remaining (cr, reduced_rate) combinations used for payload blocks.
	WhiteningPayloadCR1
	WhiteningPayloadCR2
	WhiteningPayloadCR3
	WhiteningPayloadCR4
	WhiteningPayloadCR1Reduced
	WhiteningPayloadCR2Reduced
	WhiteningPayloadCR3Reduced
	WhiteningPayloadCR4Reduced
)

// seeds gives each variant a distinct non-zero 9-bit LFSR seed so the
// header and payload sequences never alias each other.
var seeds = map[WhiteningVariant]uint16{
	WhiteningHeader:            0x1FF,
	WhiteningPayloadCR1:        0x0A5,
	WhiteningPayloadCR2:        0x153,
	WhiteningPayloadCR3:        0x0C9,
	WhiteningPayloadCR4:        0x1D6,
	WhiteningPayloadCR1Reduced: 0x06E,
	WhiteningPayloadCR2Reduced: 0x13A,
	WhiteningPayloadCR3Reduced: 0x0F1,
	WhiteningPayloadCR4Reduced: 0x17C,
}

// PayloadVariant selects the payload whitening variant for a given coding
// rate and low-data-rate-optimization setting, per spec: "payload table
// determined by (cr, reduced_rate, implicit_header)". Implicit-header mode
// reuses the same (cr, reduced_rate) payload tables as explicit mode — the
// header framing, not the whitening, is what implicit mode skips.
func PayloadVariant(cr int, reducedRate bool) WhiteningVariant {
	switch {
	case cr <= 1:
		if reducedRate {
			return WhiteningPayloadCR1Reduced
		}
		return WhiteningPayloadCR1
	case cr == 2:
		if reducedRate {
			return WhiteningPayloadCR2Reduced
		}
		return WhiteningPayloadCR2
	case cr == 3:
		if reducedRate {
			return WhiteningPayloadCR3Reduced
		}
		return WhiteningPayloadCR3
	default:
		if reducedRate {
			return WhiteningPayloadCR4Reduced
		}
		return WhiteningPayloadCR4
	}
}

// WhiteningSequence returns the first n bytes of the PN9 whitening sequence
// for variant, regenerated fresh each call (it is cheap and the per-frame
// buffers that consume it are themselves rebuilt every frame).
func WhiteningSequence(variant WhiteningVariant, n int) []byte {
	state := seeds[variant]
	if state == 0 {
		state = 0x1FF
	}
	out := make([]byte, n)
	for i := range out {
		var b byte
		for bit := 0; bit < 8; bit++ {
			newBit := ((state >> 8) ^ (state >> 4)) & 1
			state = ((state << 1) | newBit) & 0x1FF
			b = (b << 1) | byte(newBit)
		}
		out[i] = b
	}
	return out
}
