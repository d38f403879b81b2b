package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tve-devices/lorarx/internal/block"
	"github.com/tve-devices/lorarx/internal/chirp"
	"github.com/tve-devices/lorarx/internal/loratap"
	"github.com/tve-devices/lorarx/internal/lorawire"
)

func TestComputePayloadPlan_ExplicitHeaderSF7(t *testing.T) {
	blocks, payloadLen := computePayloadPlan(22, 1, true, 7, false)
	assert.Equal(t, 24, payloadLen)
	assert.GreaterOrEqual(t, blocks, 1)
}

func TestComputePayloadPlan_PayloadLengthIgnoresRedundancy(t *testing.T) {
	lowSF := 7
	highSF := 11 // > 10, forces redundancy=2
	_, payload1 := computePayloadPlan(10, 4, false, lowSF, false)
	_, payload2 := computePayloadPlan(10, 4, false, highSF, false)
	assert.Equal(t, payload1, payload2) // payload_length only depends on length/hasMACCRC
}

func TestComputePayloadPlan_NeverReturnsZeroBlocks(t *testing.T) {
	blocks, _ := computePayloadPlan(0, 4, false, 12, false)
	assert.GreaterOrEqual(t, blocks, 1)
}

func TestNew_RejectsInvalidSF(t *testing.T) {
	_, err := New(Config{SampleRate: 1e6, Bandwidth: 125000, SF: 20}, nil)
	assert.Error(t, err)
}

func TestNew_StartsInDetectState(t *testing.T) {
	d, err := New(Config{SampleRate: 125000 * 8, Bandwidth: 125000, SF: 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, StateDetect, d.State())
}

func TestStop_ConsumesOneSymbolPerCallWithoutEmitting(t *testing.T) {
	d, err := New(Config{SampleRate: 125000 * 8, Bandwidth: 125000, SF: 7}, nil)
	require.NoError(t, err)
	d.Stop()

	sp := d.bank.SamplesPerSymbol
	samples := make([]complex128, sp)
	consumed := d.Process(samples)
	assert.Equal(t, sp, consumed)
	assert.Equal(t, StateStop, d.State())
	assert.Equal(t, 0, d.FramesEmitted)
}

func TestProcess_DetectsIdenticalUpchirpPreamble(t *testing.T) {
	d, err := New(Config{SampleRate: 125000 * 8, Bandwidth: 125000, SF: 7}, nil)
	require.NoError(t, err)

	sp := d.bank.SamplesPerSymbol
	stream := append(append([]complex128{}, d.bank.Upchirp...), d.bank.Upchirp...)

	consumed := d.Process(stream[:sp])
	assert.Equal(t, sp, consumed)
	assert.Equal(t, StateDetect, d.State())

	consumed = d.Process(stream[sp:])
	assert.Equal(t, sp, consumed)
	assert.Equal(t, StateUpchirpAlign, d.State())
}

func TestProcess_RetainsPartialWindowAcrossCalls(t *testing.T) {
	d, err := New(Config{SampleRate: 125000 * 8, Bandwidth: 125000, SF: 7}, nil)
	require.NoError(t, err)

	sp := d.bank.SamplesPerSymbol
	half := make([]complex128, sp/2)
	consumed := d.Process(half)
	assert.Equal(t, 0, consumed)
	assert.Len(t, d.buf, sp/2)
}

// capturingSink records every frame the decoder publishes, for the
// end-to-end test below.
type capturingSink struct {
	frames []*loratap.Frame
}

func (c *capturingSink) Publish(f *loratap.Frame) {
	c.frames = append(c.frames, f)
}

// rotatedSymbol builds the complex samples LoRa would transmit for bin:
// the ideal upchirp cyclically shifted left by bin*decim samples, the same
// construction demod's own tests use.
func rotatedSymbol(bank *chirp.Bank, bin int) []complex128 {
	n := len(bank.Upchirp)
	shift := (bin * bank.Decim) % n
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = bank.Upchirp[(i+shift)%n]
	}
	return out
}

// encodeBlockWords is the forward path (inverse of block.Decode), building
// the 4+cr interleaved Gray words a transmitter would send for one block.
// It mirrors block_test.go's encodeBlock, duplicated here because that
// helper is unexported in another package.
func encodeBlockWords(nibblePairs [][2]byte, ppm, cr int, isHeader bool) []uint32 {
	variant := block.VariantFor(isHeader, cr, false)
	n := ppm
	dewhitened := make([]byte, 0, n)
	swap := !isHeader
	for _, pair := range nibblePairs {
		a, b := pair[0], pair[1]
		if swap {
			a, b = b, a
		}
		dewhitened = append(dewhitened, lorawire.HammingEncodeSoftNibble(a))
		dewhitened = append(dewhitened, lorawire.HammingEncodeSoftNibble(b))
	}
	dewhitened = dewhitened[:n]

	whiteningSeq := lorawire.WhiteningSequence(variant, n)
	shuffled := make([]byte, n)
	for i, b := range dewhitened {
		shuffled[i] = b ^ whiteningSeq[i]
	}

	deshuffleLimit := n
	if isHeader && n > 5 {
		deshuffleLimit = 5
	}
	words := make([]uint32, n)
	for i, b := range shuffled {
		if i < deshuffleLimit {
			b = lorawire.Shuffle(b, lorawire.DefaultShufflePattern)
		}
		words[i] = uint32(b)
	}

	return lorawire.Interleave(words, 4+cr)
}

// symbolWindowsForBlock turns the Gray words a block would carry into the
// chirp waveforms that would demodulate back to them. reduced selects the
// header-rate/LDRO bit-depth reduction demod.Step applies after computing
// the raw bin, so the waveform must encode bin*4 (the pre-reduction value)
// whenever reduced is true.
func symbolWindowsForBlock(bank *chirp.Bank, words []uint32, reduced bool) [][]complex128 {
	out := make([][]complex128, len(words))
	for i, w := range words {
		bin := int(lorawire.GrayDecode(w))
		if reduced {
			bin *= 4
		}
		out[i] = rotatedSymbol(bank, bin)
	}
	return out
}

// TestProcess_DecodesFullExplicitHeaderFrame synthesizes a complete capture
// — preamble, upchirp alignment, SFD, pause, explicit header and a
// single-block payload with a MAC CRC — in the shape of scenario A (coding
// rate 1, MAC CRC present), and checks the decoder emits exactly one frame
// with the expected header fields and payload bytes. Drift correction is
// disabled so the decode phases consume exactly one symbol each; upchirp
// alignment may still consume a few samples of the SFD window.
func TestProcess_DecodesFullExplicitHeaderFrame(t *testing.T) {
	sink := &capturingSink{}
	d, err := New(Config{
		SampleRate:      125000 * 8,
		Bandwidth:       125000,
		SF:              7,
		FineSyncEnabled: false,
	}, sink)
	require.NoError(t, err)
	bank := d.bank
	sp := bank.SamplesPerSymbol

	// Explicit header: length=1, cr=1 (4/5), has_mac_crc=1, reserved
	// nibble=7. Header blocks always use cr=4 and the reduced (sf-2)
	// bit-depth; ppm=5 is odd, so the third pair's second nibble is
	// dropped when the encoder truncates to ppm codewords, and the lone
	// fifth codeword (0x7) decodes into the low (reserved) nibble.
	headerPairs := [][2]byte{{0x0, 0x1}, {0x0, 0x9}, {0x7, 0x0}}
	headerWords := encodeBlockWords(headerPairs, 5, 4, true)
	headerWindows := symbolWindowsForBlock(bank, headerWords, true)

	// Payload: one cr=1 block carrying data byte 0x2A followed by MAC CRC
	// bytes 0xB8 0x73. ppm=7 is also odd; the fourth pair is padding whose
	// leftover nibble is trimmed away by payload_length.
	payloadPairs := [][2]byte{{0x2, 0xA}, {0xB, 0x8}, {0x7, 0x3}, {0x0, 0x0}}
	payloadWords := encodeBlockWords(payloadPairs, 7, 1, false)
	payloadWindows := symbolWindowsForBlock(bank, payloadWords, false)

	var capture []complex128
	capture = append(capture, bank.Upchirp...)   // preamble symbol 1 (detect lock)
	capture = append(capture, bank.Upchirp...)   // preamble symbol 2 (detect lock)
	capture = append(capture, bank.Downchirp...) // align probe + SFD
	capture = append(capture, make([]complex128, sp+sp/4)...) // pause gap
	for _, w := range headerWindows {
		capture = append(capture, w...)
	}
	for _, w := range payloadWindows {
		capture = append(capture, w...)
	}
	capture = append(capture, make([]complex128, 2*sp)...) // trailing pad: the last window needs 2*sp buffered

	d.Process(capture)

	require.Equal(t, 1, d.FramesEmitted)
	require.Len(t, sink.frames, 1)

	f := sink.frames[0]
	assert.Equal(t, uint8(1), f.PHY.Length)
	assert.Equal(t, uint8(1), f.PHY.CR)
	assert.True(t, f.PHY.HasMACCRC)
	assert.Equal(t, []byte{0x2A, 0xB8, 0x73}, f.Payload)
	assert.Equal(t, 0, d.SyncLosses)
}
