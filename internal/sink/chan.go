package sink

import "github.com/tve-devices/lorarx/internal/loratap"

// ChanSink forwards frames onto a buffered channel, dropping them
// (non-blocking) if the channel is full. internal/receiver uses this to
// decouple the decode loop from whatever downstream sink the frame is
// ultimately written to, satisfying spec §5's "host must interpose a
// queue" if the real sink can block.
type ChanSink struct {
	ch      chan *loratap.Frame
	dropped int
}

// NewChanSink creates a ChanSink with the given buffer depth.
func NewChanSink(depth int) *ChanSink {
	return &ChanSink{ch: make(chan *loratap.Frame, depth)}
}

// Publish enqueues frame, or drops it and counts the drop if the buffer is
// full.
func (c *ChanSink) Publish(frame *loratap.Frame) {
	select {
	case c.ch <- frame:
	default:
		c.dropped++
	}
}

// Frames returns the receive side of the queue for a consumer goroutine.
func (c *ChanSink) Frames() <-chan *loratap.Frame {
	return c.ch
}

// Dropped reports how many frames were discarded due to backpressure.
func (c *ChanSink) Dropped() int {
	return c.dropped
}

// Close closes the underlying channel. Callers must ensure no further
// Publish calls happen afterward (a closed-channel send would panic) —
// internal/receiver calls this only after its read loop has stopped
// feeding the decoder.
func (c *ChanSink) Close() {
	close(c.ch)
}
