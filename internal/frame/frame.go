// Package frame drives the receiver's top-level state machine: it
// sequences the synchronizer through preamble/SFD/pause, the demodulator
// through one symbol at a time, hands completed blocks to the block
// decoder, interprets the PHY header, tracks payload accounting, and
// assembles the final LoRaTap frame for publication.
package frame

import (
	"github.com/tve-devices/lorarx/internal/block"
	"github.com/tve-devices/lorarx/internal/chirp"
	"github.com/tve-devices/lorarx/internal/demod"
	"github.com/tve-devices/lorarx/internal/loratap"
	"github.com/tve-devices/lorarx/internal/sync"
	"github.com/tve-devices/lorarx/internal/trace"
)

// State is the receiver's top-level lifecycle state.
type State int

const (
	StateDetect State = iota
	StateUpchirpAlign
	StateFindSFD
	StatePause
	StateDecodeHeader
	StateDecodePayload
	StateStop
)

func (s State) String() string {
	switch s {
	case StateDetect:
		return "DETECT"
	case StateUpchirpAlign:
		return "SYNC"
	case StateFindSFD:
		return "FIND_SFD"
	case StatePause:
		return "PAUSE"
	case StateDecodeHeader:
		return "DECODE_HEADER"
	case StateDecodePayload:
		return "DECODE_PAYLOAD"
	case StateStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// headerOverheadBits is the implementation-defined constant in the
// symbols-needed formula (spec §4.5): it accounts for the header's own
// CRC-like framing bits folded into the payload symbol budget. Resolved as
// an Open Question in DESIGN.md — the retrieved pack did not carry the
// reference encoder's exact derivation, so the distilled spec's formula is
// implemented literally with this named constant standing in for it.
const headerOverheadBits = 20

// PHYHeader is the parsed (or, in implicit mode, configured) PHY header.
type PHYHeader struct {
	Length    uint8
	CR        int
	CRCMSN    uint8
	HasMACCRC bool
	CRCLSN    uint8
	Reserved  uint8
}

// Sink receives completed frames. Publish must not block the decode loop;
// internal/sink.UDPSink satisfies this with a non-blocking datagram write.
type Sink interface {
	Publish(*loratap.Frame)
}

// Config mirrors the receiver configuration surface (spec §6 plus the
// SPEC_FULL additions): radio parameters plus the metadata stamped into
// emitted LoRaTap frames.
type Config struct {
	SampleRate      float64
	Bandwidth       float64
	SF              int
	ImplicitHeader  bool
	CR              int // used only when ImplicitHeader
	CRCPresent      bool // used only when ImplicitHeader
	ReducedRate     bool
	FineSyncEnabled bool

	ChannelFrequency uint32
	SyncWord         uint8
}

// Decoder is the receiver's single entry point: construct once per radio
// configuration, then repeatedly call Process with incoming sample chunks.
type Decoder struct {
	cfg   Config
	bank  *chirp.Bank
	syncr *sync.Synchronizer
	demod *demod.Demodulator
	sink  Sink
	trace trace.Sink

	state    State
	header   PHYHeader
	activeCR int

	payloadSymbolsRemaining int
	payloadLength           int

	decoded []byte

	buf []complex128

	ParityErrors  int
	SyncLosses    int
	FramesEmitted int
}

// Option configures optional collaborators at construction time.
type Option func(*Decoder)

// WithTrace attaches an optional tracing sink (spec §9 design note):
// lifecycle tied to the decoder, encapsulating what the reference
// implementation did with process-wide debug timers and file prefixes.
func WithTrace(t trace.Sink) Option {
	return func(d *Decoder) { d.trace = t }
}

// New builds a Decoder for the given configuration. It fails only on chirp
// bank construction errors (invalid sf or non-positive rates); there is no
// other fatal configuration error (spec §7).
func New(cfg Config, sink Sink, opts ...Option) (*Decoder, error) {
	bank, err := chirp.Build(cfg.SampleRate, cfg.Bandwidth, cfg.SF)
	if err != nil {
		return nil, err
	}
	d := &Decoder{
		cfg:   cfg,
		bank:  bank,
		syncr: sync.New(bank, cfg.FineSyncEnabled, cfg.ImplicitHeader),
		sink:  sink,
		state: StateDetect,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// State reports the current top-level state, for operational visibility.
func (d *Decoder) State() State { return d.state }

// Stop transitions the decoder to STOP: subsequent Process calls discard
// their input in whole-symbol steps of samplesPerSymbol samples and never
// emit frames again, matching the "external STOP transition" in spec §5.
func (d *Decoder) Stop() {
	d.state = StateStop
}

// Process consumes as many complete steps as the buffered samples allow
// and returns how many of the newly-supplied samples were consumed this
// call. Samples left over (an incomplete window) are retained internally
// and prefixed onto the next call's input.
func (d *Decoder) Process(samples []complex128) int {
	prior := len(d.buf)
	d.buf = append(d.buf, samples...)
	before := len(d.buf)

	for len(d.buf) >= d.required() {
		n := d.step()
		if n < 0 {
			break
		}
		d.buf = d.buf[n:]
	}

	consumedFromBuf := before - len(d.buf)
	if consumedFromBuf < prior {
		return 0
	}
	return consumedFromBuf - prior
}

// required reports the minimum buffered sample count the current phase
// needs before it can make progress. DetectPreamble and AlignUpchirp fold
// their retained tail internally and only ever read one fresh symbol's
// worth of samples; every other phase reads a full window plus the widest
// fine-sync drift margin, so 2*samplesPerSymbol is the sufficient upper
// bound there.
func (d *Decoder) required() int {
	sp := d.bank.SamplesPerSymbol
	switch d.state {
	case StateStop, StateDetect, StateUpchirpAlign:
		return sp
	default:
		return 2 * sp
	}
}

func (d *Decoder) step() int {
	sp := d.bank.SamplesPerSymbol

	switch d.state {
	case StateDetect:
		consumed, detected := d.syncr.DetectPreamble(d.buf)
		if detected {
			d.state = StateUpchirpAlign
		}
		return consumed

	case StateUpchirpAlign:
		consumed := d.syncr.AlignUpchirp(d.buf)
		d.state = StateFindSFD
		return consumed

	case StateFindSFD:
		consumed, outcome := d.syncr.FindSFD(d.buf)
		switch outcome {
		case sync.SFDAcquired:
			d.state = StatePause
		case sync.SFDLost:
			d.SyncLosses++
			d.resetToDetect()
		}
		return consumed

	case StatePause:
		consumed := d.syncr.Pause()
		if d.cfg.ImplicitHeader {
			d.beginImplicitPayload()
			d.state = StateDecodePayload
		} else {
			d.beginHeader()
			d.state = StateDecodeHeader
		}
		return consumed

	case StateDecodeHeader:
		return d.decodeSymbol(true)

	case StateDecodePayload:
		return d.decodeSymbol(false)

	case StateStop:
		return sp
	}
	return 0
}

func (d *Decoder) beginHeader() {
	d.activeCR = 4
	d.demod = demod.New(d.activeCR)
	d.decoded = d.decoded[:0]
}

func (d *Decoder) beginImplicitPayload() {
	cr := d.cfg.CR
	if cr < 1 || cr > 4 {
		cr = 4
	}
	d.activeCR = cr
	d.demod = demod.New(cr)
	d.header = PHYHeader{CR: cr, HasMACCRC: d.cfg.CRCPresent}
	d.decoded = d.decoded[:0]
}

// reducedSchedule reports whether the active symbol uses the reduced-rate
// (sf-2 usable bits) bit-depth: always true for the explicit header, and
// true for payload when sf>10 or reduced_rate is configured (spec §4.3).
func (d *Decoder) reducedSchedule(isHeader bool) bool {
	return isHeader || d.cfg.SF > 10 || d.cfg.ReducedRate
}

func (d *Decoder) decodeSymbol(isHeader bool) int {
	sp := d.bank.SamplesPerSymbol
	window := d.buf[:sp]

	if d.trace != nil {
		d.trace.Symbol(window)
	}

	reduced := d.reducedSchedule(isHeader)
	ready := d.demod.Step(window, d.bank.N, d.bank.Decim, reduced, d.syncr)
	consumed := sp + d.syncr.FineSyncValue()

	if d.cfg.ImplicitHeader && !isHeader {
		if energyOf(window) < d.syncr.EOFThreshold() {
			d.closeFrameEarly()
			return consumed
		}
	}

	if ready {
		ppm := d.cfg.SF
		if reduced {
			ppm = d.cfg.SF - 2
		}
		variant := block.VariantFor(isHeader, d.activeCR, d.cfg.ReducedRate)
		res := block.Decode(d.demod.Words(), ppm, d.activeCR, variant, isHeader)
		d.demod.Reset()
		d.ParityErrors += res.ParityErrors
		d.decoded = append(d.decoded, res.Bytes...)

		if isHeader {
			if len(d.decoded) >= 3 {
				d.parseHeader()
				d.state = StateDecodePayload
			}
		} else if !d.cfg.ImplicitHeader {
			d.payloadSymbolsRemaining -= 4 + d.activeCR
			if d.payloadSymbolsRemaining <= 0 {
				d.emitFrame()
			}
		}
	}
	return consumed
}

// parseHeader reinterprets the first 3 decoded bytes as the PHY header and
// computes the payload symbol budget, per spec §4.5.
func (d *Decoder) parseHeader() {
	b0, b1, b2 := d.decoded[0], d.decoded[1], d.decoded[2]

	cr := int(b1 & 0x07)
	if cr < 1 || cr > 4 {
		cr = 4
	}

	d.header = PHYHeader{
		Length:    b0,
		CRCMSN:    (b1 >> 4) & 0x0F,
		HasMACCRC: (b1>>3)&1 == 1,
		CR:        cr,
		CRCLSN:    (b2 >> 4) & 0x0F,
		Reserved:  b2 & 0x0F,
	}

	blocksNeeded, payloadLen := computePayloadPlan(int(b0), cr, d.header.HasMACCRC, d.cfg.SF, d.cfg.ReducedRate)
	symbolsPerBlock := cr + 4
	d.payloadSymbolsRemaining = blocksNeeded * symbolsPerBlock
	d.payloadLength = payloadLen

	d.decoded = d.decoded[:0]
	d.activeCR = cr
	d.demod = demod.New(cr)
}

// computePayloadPlan implements the symbols_needed/blocks_needed/
// payload_length arithmetic of spec §4.5 as a pure function so it can be
// tested directly against hand-worked examples.
func computePayloadPlan(length, cr int, hasMACCRC bool, sf int, reducedRate bool) (blocksNeeded, payloadLength int) {
	symbolsPerBlock := cr + 4
	redundancy := 0
	if sf > 10 || reducedRate {
		redundancy = 2
	}
	bitsNeeded := length*8 + headerOverheadBits
	denom := sf - redundancy
	if denom <= 0 {
		denom = 1
	}
	symbolsNeeded := bitsNeeded * symbolsPerBlock / 4 / denom
	blocksNeeded = ceilDiv(symbolsNeeded, symbolsPerBlock)
	if blocksNeeded < 1 {
		blocksNeeded = 1
	}
	payloadLength = length
	if hasMACCRC {
		payloadLength += 2
	}
	return blocksNeeded, payloadLength
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (d *Decoder) closeFrameEarly() {
	d.header.Length = uint8(len(d.decoded))
	d.payloadLength = len(d.decoded)
	d.emitFrame()
}

func (d *Decoder) emitFrame() {
	payload := d.decoded
	if d.payloadLength > 0 && len(payload) > d.payloadLength {
		payload = payload[:d.payloadLength]
	}

	snr := d.syncr.SNR()
	frame := &loratap.Frame{
		Header: loratap.Header{
			ChannelFrequency: d.cfg.ChannelFrequency,
			ChannelBandwidth: uint8(d.cfg.Bandwidth / 125000),
			ChannelSF:        uint8(d.cfg.SF),
			SyncWord:         d.cfg.SyncWord,
		},
		PHY: loratap.PHYHeader{
			Length:    d.header.Length,
			CRCMSN:    d.header.CRCMSN,
			HasMACCRC: d.header.HasMACCRC,
			CR:        uint8(d.header.CR),
			CRCLSN:    d.header.CRCLSN,
			Reserved:  d.header.Reserved,
		},
		Payload:   append([]byte(nil), payload...),
		SNRdB:     snr,
		ParityErr: d.ParityErrors > 0,
	}

	if d.sink != nil {
		d.sink.Publish(frame)
	}
	d.FramesEmitted++
	d.resetAfterEmit()
}

func (d *Decoder) resetAfterEmit() {
	d.resetToDetect()
}

func (d *Decoder) resetToDetect() {
	d.state = StateDetect
	d.syncr.Reset()
	d.demod = nil
	d.decoded = d.decoded[:0]
	d.header = PHYHeader{}
	d.payloadSymbolsRemaining = 0
	d.payloadLength = 0
	d.activeCR = 0
}

func energyOf(samples []complex128) float64 {
	var e float64
	for _, s := range samples {
		e += real(s)*real(s) + imag(s)*imag(s)
	}
	return e
}
