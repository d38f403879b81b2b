package iqsource

import (
	"encoding/binary"
	"io"
	"math"
	"os"
)

// File reads an IQ capture stored as interleaved little-endian float32
// I/Q pairs — the natural on-disk capture format for SDR front ends,
// analogous to the teacher's WAV-file audio source (audio.go/atest.go)
// but without the RIFF container, since there is no standard container
// for raw complex baseband captures.
type File struct {
	f          *os.File
	sampleRate float64
	scratch    []byte
}

// OpenFile opens path for reading as a raw interleaved-float32-IQ capture
// at the given sample rate (the file format carries no rate metadata).
func OpenFile(path string, sampleRate float64) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, sampleRate: sampleRate}, nil
}

// SampleRate returns the rate the file was opened with.
func (s *File) SampleRate() float64 { return s.sampleRate }

// Read fills buf with up to len(buf) complex samples, returning io.EOF
// together with the final, possibly short, batch once the file is
// exhausted.
func (s *File) Read(buf []complex128) (int, error) {
	need := len(buf) * 8 // 2 x float32 per sample
	if cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}
	raw := s.scratch[:need]

	n, err := io.ReadFull(s.f, raw)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}

	samples := n / 8
	for i := 0; i < samples; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
		buf[i] = complex(float64(re), float64(im))
	}

	if samples < len(buf) {
		return samples, io.EOF
	}
	return samples, nil
}

// Close releases the underlying file handle.
func (s *File) Close() error {
	return s.f.Close()
}
