package stcp

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// StreamNetConn adapts a real net.Conn (spec §9: "the network substrate
// ... is an external collaborator") into a NetConn by framing each
// encoded segment with a 4-byte big-endian length prefix, so that a
// byte-stream transport such as TCP can still deliver our segments as
// discrete units. This mirrors the lossless, ordered, message-boundary
// substrate the engine assumes; the spec is explicit that building that
// substrate is out of scope, so StreamNetConn leans on an already-ordered
// net.Conn rather than reimplementing loss recovery.
type StreamNetConn struct {
	conn net.Conn
	r    *bufio.Reader

	mu sync.Mutex // serializes writes; RecvSegment has a single caller
}

// NewStreamNetConn wraps conn.
func NewStreamNetConn(conn net.Conn) *StreamNetConn {
	return &StreamNetConn{conn: conn, r: bufio.NewReader(conn)}
}

// SendSegment implements NetConn.
func (s *StreamNetConn) SendSegment(ctx context.Context, h Header, payload []byte) error {
	buf := Encode(h, payload)
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(buf)))

	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Write(lenPrefix[:]); err != nil {
		return errors.Wrap(err, "stcp: stream netconn: write length prefix")
	}
	if _, err := s.conn.Write(buf); err != nil {
		return errors.Wrap(err, "stcp: stream netconn: write segment")
	}
	return nil
}

// RecvSegment implements NetConn.
func (s *StreamNetConn) RecvSegment(ctx context.Context) (Header, []byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
	}
	var lenPrefix [4]byte
	if _, err := io.ReadFull(s.r, lenPrefix[:]); err != nil {
		return Header{}, nil, errors.Wrap(err, "stcp: stream netconn: read length prefix")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return Header{}, nil, errors.Wrap(err, "stcp: stream netconn: read segment")
	}
	return Decode(buf)
}

// Close closes the underlying net.Conn.
func (s *StreamNetConn) Close() error { return s.conn.Close() }
