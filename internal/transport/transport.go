// Package transport provides signer.Channel implementations: a WebSocket
// client for the relay, a length-prefixed framer for stream connections and
// an in-memory pipe.
package transport

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

var (
	ErrClosed        = errors.Wrap(signer.ErrChannel, "channel closed")
	ErrFrameTooLarge = errors.Wrap(signer.ErrChannel, "frame too large")
)

// Dial opens a channel to the relay at rawURL. ws:// and wss:// URLs speak
// WebSocket; tcp:// URLs carry length-prefixed frames over a plain stream.
func Dial(ctx context.Context, rawURL string) (signer.Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(signer.ErrChannel, "relay url %q: %v", rawURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
		ws, err := DialWebSocket(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case "tcp":
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, errors.Wrapf(signer.ErrChannel, "dial %s: %v", u.Host, err)
		}
		return NewFramed(conn), nil
	default:
		return nil, errors.Wrapf(signer.ErrChannel, "unsupported relay scheme %q", u.Scheme)
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// interruptRead arranges for a blocked read on c to return once ctx is done.
// The returned func must be called when the read finishes.
func interruptRead(ctx context.Context, c interface{}) func() bool {
	d, ok := c.(readDeadliner)
	if !ok {
		return func() bool { return true }
	}
	return interrupt(ctx, d.SetReadDeadline)
}

// interruptWrite is interruptRead for the write side.
func interruptWrite(ctx context.Context, c interface{}) func() bool {
	d, ok := c.(writeDeadliner)
	if !ok {
		return func() bool { return true }
	}
	return interrupt(ctx, d.SetWriteDeadline)
}

func interrupt(ctx context.Context, setDeadline func(time.Time) error) func() bool {
	if deadline, ok := ctx.Deadline(); ok {
		setDeadline(deadline)
	} else {
		setDeadline(time.Time{})
	}
	return context.AfterFunc(ctx, func() {
		setDeadline(time.Now())
	})
}
