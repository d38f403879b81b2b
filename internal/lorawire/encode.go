package lorawire

// HammingEncodeSoftNibble is the inverse of HammingDecodeSoftByte's
// correction step: it places a 4-bit nibble at DataBitPositions and solves
// the remaining 4 bits so the codeword's syndrome is zero. The encoder path
// itself is out of scope for this receiver; this helper exists only so the
// decode/encode relationship in the property tests can be stated and
// checked directly, per the note that the encoder is described "only
// insofar as it clarifies the inverse relations the decoder must satisfy."
func HammingEncodeSoftNibble(nibble byte) byte {
	d1 := (nibble >> 0) & 1
	d2 := (nibble >> 1) & 1
	d3 := (nibble >> 2) & 1
	d5 := (nibble >> 3) & 1

	p0 := d2 ^ d3 ^ d5
	p4 := d1 ^ d2 ^ d3
	p6 := d1 ^ d2 ^ d5
	p7 := d1 ^ d3 ^ d5

	return p0<<0 | d1<<1 | d2<<2 | d3<<3 | p4<<4 | d5<<5 | p6<<6 | p7<<7
}
