// Package sink implements the frame controller's external publish
// contract: fire-and-forget, non-blocking delivery of completed LoRaTap
// frames, matching the teacher's UDP client pattern in kissutil.go/
// kissnet.go adapted from a KISS-frame payload to a LoRaTap-wrapped one.
package sink

import (
	"net"

	"github.com/tve-devices/lorarx/internal/loratap"
	"github.com/tve-devices/lorarx/internal/rxlog"
)

// UDPSink publishes marshaled LoRaTap frames as individual UDP datagrams
// to a fixed destination. Writes never block the decode loop: a connected
// UDP socket's Write either succeeds immediately or is dropped, matching
// spec §5's "if the sink may block, the host must interpose a queue" (the
// queue lives one layer up, in internal/receiver).
type UDPSink struct {
	conn *net.UDPConn
	log  *rxlog.Logger
}

// NewUDPSink dials addr (host:port) as a connected UDP socket.
func NewUDPSink(addr string, log *rxlog.Logger) (*UDPSink, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return &UDPSink{conn: conn, log: log}, nil
}

// Publish marshals frame and writes it as one datagram. Marshal or write
// errors are logged at debug level and otherwise swallowed — per spec §7,
// no error propagates out of the decode path.
func (s *UDPSink) Publish(frame *loratap.Frame) {
	buf, err := frame.MarshalBinary()
	if err != nil {
		s.log.Debugf("sink: marshal frame: %v", err)
		return
	}
	if _, err := s.conn.Write(buf); err != nil {
		s.log.Debugf("sink: write frame: %v", err)
	}
}

// Close releases the underlying socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
