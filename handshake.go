package stcp

import (
	"context"

	"github.com/pkg/errors"
)

// ErrConnectionRefused is returned by Dial/Accept when the peer never
// completes the three-way handshake, per spec §4.6's scenario coverage.
var ErrConnectionRefused = errors.New("stcp: connection refused")

// Dial drives the active three-way open (spec §4.6 scenario S1) over nc,
// blocking until the connection reaches ESTABLISHED or ctx is done. It is
// the handshake counterpart to [Accept], kept as a free function rather
// than an Engine method because, like the teacher's Open, it needs no
// state beyond the ControlBlock and the raw network collaborator.
func Dial(ctx context.Context, nc NetConn, cfg Config) (*ControlBlock, error) {
	cb := NewControlBlock(RoleActive, cfg)
	syn, err := cb.BeginActiveOpen()
	if err != nil {
		return nil, errors.Wrap(err, "stcp: dial")
	}
	if err := nc.SendSegment(ctx, syn, nil); err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: dial: send SYN: %v", err)
	}
	h, _, err := nc.RecvSegment(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: dial: await SYN+ACK: %v", err)
	}
	ack, err := cb.HandleSynSentSegment(h)
	if err != nil {
		return nil, errors.Wrap(ErrConnectionRefused, err.Error())
	}
	if err := nc.SendSegment(ctx, ack, nil); err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: dial: send final ACK: %v", err)
	}
	return cb, nil
}

// Accept drives the passive three-way open (spec §4.6 scenario S2) over
// nc, blocking until the connection reaches ESTABLISHED or ctx is done.
func Accept(ctx context.Context, nc NetConn, cfg Config) (*ControlBlock, error) {
	cb := NewControlBlock(RolePassive, cfg)
	h, _, err := nc.RecvSegment(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: accept: await SYN: %v", err)
	}
	synAck, err := cb.HandleListenSegment(h)
	if err != nil {
		return nil, errors.Wrap(ErrConnectionRefused, err.Error())
	}
	if err := nc.SendSegment(ctx, synAck, nil); err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: accept: send SYN+ACK: %v", err)
	}
	h, _, err = nc.RecvSegment(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionRefused, "stcp: accept: await final ACK: %v", err)
	}
	if err := cb.HandleSynRcvdSegment(h); err != nil {
		return nil, errors.Wrap(ErrConnectionRefused, err.Error())
	}
	return cb, nil
}
