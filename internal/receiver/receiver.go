// Package receiver wires the decoder into a minimal, concrete host
// pipeline: a goroutine reading sample chunks from an iqsource.Source and
// feeding them to a frame.Decoder, paired with a writer goroutine that
// drains the decoder's frame queue to a final sink. Spec §1 treats the
// "host DSP graph that feeds samples" as an external collaborator; this
// package gives it the small, testable implementation SPEC_FULL calls for,
// grounded in the teacher's goroutine-pair transmit-queue pattern (tq.go).
package receiver

import (
	"context"
	"io"

	"github.com/tve-devices/lorarx/internal/frame"
	"github.com/tve-devices/lorarx/internal/iqsource"
	"github.com/tve-devices/lorarx/internal/rxlog"
	"github.com/tve-devices/lorarx/internal/sink"
)

// Receiver drives the sample-to-frame pipeline.
type Receiver struct {
	source    iqsource.Source
	decoder   *frame.Decoder
	queue     *sink.ChanSink
	final     frame.Sink
	chunkSize int
	log       *rxlog.Logger
}

// New builds a Receiver around a decoder that was itself constructed with
// queue as its Sink (spec §5's "host must interpose a queue" if the final
// sink may block): decoder publishes to queue, Run's writer goroutine
// drains queue to final. chunkSize is the sample count read per
// Source.Read call.
func New(source iqsource.Source, decoder *frame.Decoder, queue *sink.ChanSink, final frame.Sink, chunkSize int, log *rxlog.Logger) *Receiver {
	return &Receiver{
		source:    source,
		decoder:   decoder,
		queue:     queue,
		final:     final,
		chunkSize: chunkSize,
		log:       log,
	}
}

// Run reads chunks from source and feeds the decoder until the source
// reports io.EOF or ctx is canceled. A writer goroutine concurrently
// drains completed frames to final. Run blocks until both the read loop
// and the writer goroutine have finished.
func (r *Receiver) Run(ctx context.Context) error {
	done := make(chan struct{})
	go r.writeLoop(ctx, done)

	buf := make([]complex128, r.chunkSize)
	var readErr error
readLoop:
	for {
		select {
		case <-ctx.Done():
			readErr = ctx.Err()
			break readLoop
		default:
		}

		n, err := r.source.Read(buf)
		if n > 0 {
			r.decoder.Process(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				r.log.Errorf("reading iq samples: %v", err)
				readErr = err
			}
			break readLoop
		}
	}

	r.queue.Close()
	<-done
	if dropped := r.queue.Dropped(); dropped > 0 {
		r.log.Warnf("frame queue dropped %d frames", dropped)
	}
	return readErr
}

func (r *Receiver) writeLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case f, ok := <-r.queue.Frames():
			if !ok {
				return
			}
			r.final.Publish(f)
		case <-ctx.Done():
			return
		}
	}
}
