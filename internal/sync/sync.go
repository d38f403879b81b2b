// Package sync implements the four-phase LoRa synchronization automaton:
// preamble detection by windowed autocorrelation, upchirp-boundary
// alignment, start-of-frame-delimiter acquisition, and the fixed PAUSE gap
// before payload decoding begins. It also owns the per-symbol fine-sync
// drift correction the symbol demodulator calls back into.
//
// The outer receiver state (DETECT/SYNC/FIND_SFD/PAUSE/DECODE_HEADER/
// DECODE_PAYLOAD/STOP) is owned by the frame controller, not here; this
// package exposes one method per automaton phase and lets the controller
// sequence them.
package sync

import (
	"math"

	"github.com/tve-devices/lorarx/internal/chirp"
)

// Command is a one-way message the synchronizer drains at the top of
// DetectPreamble and FindSFD. It replaces the reference implementation's raw back-pointer
// from a sibling component into the synchronizer (design note in spec §9)
// with a buffered channel.
type Command struct {
	// ForceDetect requests an immediate reset back to preamble search,
	// e.g. after an operator-triggered abort in the frame controller.
	ForceDetect bool
}

// SFDOutcome is the result of one FindSFD call.
type SFDOutcome int

const (
	// SFDRetry means the correlation was inconclusive; stay in FIND_SFD.
	SFDRetry SFDOutcome = iota
	// SFDAcquired means the downchirp pair was found; move to PAUSE.
	SFDAcquired
	// SFDStillUpchirp means the window still looks like preamble
	// upchirps; fine-sync was invoked to nudge alignment, stay in
	// FIND_SFD.
	SFDStillUpchirp
	// SFDLost means corrFails exceeded the watchdog; revert to DETECT.
	SFDLost
)

// Synchronizer holds the running synchronization state for one frame
// attempt: correlation failure counters, the current fine-sync correction,
// the short-term power history used for SNR, and the command queue.
type Synchronizer struct {
	bank            *chirp.Bank
	fineSyncEnabled bool
	implicitHeader  bool

	corrFails int
	fineSync  int
	power     PowerHistory
	cmds      chan Command

	prevWindow   []complex128 // previous symbol window, for DetectPreamble
	retained     []complex128 // window retained across DetectPreamble -> AlignUpchirp
	eofThreshold float64      // implicit-header end-of-frame energy threshold
}

// New builds a Synchronizer bound to bank. fineSyncEnabled mirrors the
// configuration's disable_drift_correction flag (inverted); implicitHeader
// enables the end-of-frame energy-threshold bookkeeping used by implicit
// mode.
func New(bank *chirp.Bank, fineSyncEnabled, implicitHeader bool) *Synchronizer {
	return &Synchronizer{
		bank:            bank,
		fineSyncEnabled: fineSyncEnabled,
		implicitHeader:  implicitHeader,
		cmds:            make(chan Command, 8),
	}
}

// Commands returns the send side of the one-way command queue.
func (s *Synchronizer) Commands() chan<- Command {
	return s.cmds
}

func (s *Synchronizer) drainCommands() {
	for {
		select {
		case cmd := <-s.cmds:
			if cmd.ForceDetect {
				s.Reset()
			}
		default:
			return
		}
	}
}

// Reset clears all per-frame synchronizer state, returning it to the state
// it had right after New.
func (s *Synchronizer) Reset() {
	s.corrFails = 0
	s.fineSync = 0
	s.prevWindow = nil
	s.retained = nil
	s.power.Reset()
}

// FineSyncValue is the drift correction (in samples) to apply to the next
// consume; the frame controller adds it to the nominal window size.
func (s *Synchronizer) FineSyncValue() int {
	return s.fineSync
}

// EOFThreshold is the implicit-mode end-of-frame energy threshold memorized
// at preamble detection (energy/2 of the detected symbol).
func (s *Synchronizer) EOFThreshold() float64 {
	return s.eofThreshold
}

// SNR computes the frame controller's SNR stamp from the power history:
// newest entry is signal power, oldest is noise power.
func (s *Synchronizer) SNR() float64 {
	if s.power.Len() == 0 {
		return 0
	}
	noise := s.power.Oldest()
	if noise <= 0 {
		return 0
	}
	return 10 * math.Log10(s.power.Newest()/noise)
}

// DetectPreamble consumes one symbol-sized window and compares it against
// the previous window via normalized autocorrelation. A coefficient >= 0.90
// declares the preamble present.
func (s *Synchronizer) DetectPreamble(samples []complex128) (consumed int, detected bool) {
	s.drainCommands()
	sp := s.bank.SamplesPerSymbol
	window := samples[:sp]

	if s.prevWindow == nil {
		s.prevWindow = append([]complex128(nil), window...)
		return sp, false
	}

	coeff := autocorrCoefficient(s.prevWindow, window)
	if coeff >= 0.90 {
		s.power.Push(energy(window))
		s.retained = append([]complex128(nil), window...)
		if s.implicitHeader {
			s.eofThreshold = energy(window) / 2
		}
		s.prevWindow = nil
		return sp, true
	}

	s.prevWindow = append(s.prevWindow[:0], window...)
	return sp, false
}

// AlignUpchirp slides the reference upchirp IF curve across a 2*spSym
// window (the tail end retained from DetectPreamble plus a fresh symbol's
// worth of samples) and returns how many samples of the fresh portion to
// consume so the next window starts on a symbol boundary.
func (s *Synchronizer) AlignUpchirp(samples []complex128) (consumed int) {
	sp := s.bank.SamplesPerSymbol
	window := make([]complex128, 0, 2*sp)
	window = append(window, s.retained...)
	window = append(window, samples[:sp]...)

	ifreq := instantaneousFrequency(window)
	offset, _ := argmaxDot(ifreq, s.bank.UpchirpIfreq, sp)
	s.retained = nil
	return offset
}

// FindSFD evaluates the current symbol window against the downchirp IF
// reference. Always reports a consume count of samplesPerSymbol+fineSync.
func (s *Synchronizer) FindSFD(samples []complex128) (consumed int, outcome SFDOutcome) {
	s.drainCommands()
	sp := s.bank.SamplesPerSymbol
	window := samples[:sp]
	ifreq := instantaneousFrequency(window)
	corr := normalizedCorr(ifreq, s.bank.DownchirpIfreq)

	switch {
	case corr > 0.96:
		s.corrFails = 0
		outcome = SFDAcquired
	case corr < -0.97:
		s.FineSync(window, -1, 4*s.bank.Decim)
		outcome = SFDStillUpchirp
	default:
		s.corrFails++
		if s.corrFails > 4 {
			outcome = SFDLost
		} else {
			outcome = SFDRetry
		}
	}

	consumed = sp + s.fineSync
	return consumed, outcome
}

// Pause consumes the fixed gap between SFD and payload: one symbol plus the
// quarter-symbol delay (samplesPerSymbol + samplesPerSymbol/4 samples).
func (s *Synchronizer) Pause() (consumed int) {
	sp := s.bank.SamplesPerSymbol
	return sp + sp/4
}

// FineSync implements demod.FineSyncer: given the coarse bin estimate for
// the symbol just demodulated (or -1 when called from the SFD phase, which
// has no bin yet), it searches +/-searchSpace samples around the nominal
// boundary in the triple-upchirp reference and records the lag that
// maximizes correlation as the drift correction for the next consume.
func (s *Synchronizer) FineSync(window []complex128, bin int, searchSpace int) int {
	if !s.fineSyncEnabled {
		s.fineSync = 0
		return 0
	}

	sp := s.bank.SamplesPerSymbol
	shift := (bin + 1) * s.bank.Decim
	ifreq := instantaneousFrequency(window)

	start := shift + sp - searchSpace
	if start < 0 {
		start = 0
	}
	searchLen := 2*searchSpace + 1
	if start+searchLen+len(ifreq) > len(s.bank.UpchirpIfreqTriple) {
		searchLen = len(s.bank.UpchirpIfreqTriple) - start - len(ifreq)
	}
	if searchLen <= 0 {
		s.fineSync = 0
		return 0
	}

	offset, _ := argmaxDot(s.bank.UpchirpIfreqTriple[start:], ifreq, searchLen)
	lag := offset - searchSpace
	s.fineSync = -lag
	return lag
}

// instantaneousFrequency mirrors chirp's and demod's; see the comment on
// demod's instantaneousFrequency for why this tiny leaf computation is duplicated rather than
// imported across packages that operate on arbitrary incoming windows.
func instantaneousFrequency(samples []complex128) []float64 {
	n := len(samples)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	prevPhase := math.Atan2(imag(samples[0]), real(samples[0]))
	for i := 1; i < n; i++ {
		ph := math.Atan2(imag(samples[i]), real(samples[i]))
		diff := ph - prevPhase
		for diff > math.Pi {
			diff -= 2 * math.Pi
		}
		for diff <= -math.Pi {
			diff += 2 * math.Pi
		}
		out[i] = diff
		prevPhase = ph
	}
	out[0] = out[1]
	return out
}
