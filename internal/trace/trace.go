// Package trace provides an optional, construction-time-only debugging
// sink for the decoder. It replaces the reference implementation's global
// mutable debug timers and file-prefix state (spec §9 design note) with a
// small interface whose lifecycle is tied to the Decoder that owns it:
// built once at construction, closed once at shutdown, never touched
// through package-level state.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Sink receives per-symbol trace events. Decoder calls Symbol for every
// demodulated window when a Sink is configured; implementations must not
// block the decode loop for long.
type Sink interface {
	Symbol(window []complex128)
	Close() error
}

// FileSink appends one energy summary line per symbol to a file whose name
// is generated from a strftime pattern, mirroring the teacher's timestamped
// log file naming convention (tq.go / xmit.go already depend on
// lestrrat-go/strftime for this).
type FileSink struct {
	mu    sync.Mutex
	f     *os.File
	count int
}

// NewFileSink creates (or appends to) a trace file under dir, named from
// pattern (an strftime format string, e.g. "lorarx-%Y%m%d-%H%M%S.trace").
func NewFileSink(dir, pattern string) (*FileSink, error) {
	name, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return nil, fmt.Errorf("trace: formatting file name: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace: opening %s: %w", name, err)
	}
	return &FileSink{f: f}, nil
}

// Symbol writes one line: sequence number and total energy of the window.
func (s *FileSink) Symbol(window []complex128) {
	var energy float64
	for _, v := range window {
		energy += real(v)*real(v) + imag(v)*imag(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	fmt.Fprintf(s.f, "%d %g\n", s.count, energy)
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
