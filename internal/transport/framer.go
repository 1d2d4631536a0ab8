package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

// Framed carries one frame per message over a byte stream, each prefixed by
// its length as a big-endian uint16.
type Framed struct {
	rwc io.ReadWriteCloser

	rmu sync.Mutex
	r   *bufio.Reader
	sz2 []byte

	wmu sync.Mutex
	w   *bufio.Writer
	sz1 []byte
}

var _ signer.Channel = (*Framed)(nil)

func NewFramed(rwc io.ReadWriteCloser) *Framed {
	return &Framed{
		rwc: rwc,
		r:   bufio.NewReader(rwc),
		w:   bufio.NewWriter(rwc),
		sz1: make([]byte, 2),
		sz2: make([]byte, 2),
	}
}

func (f *Framed) Send(ctx context.Context, msg []byte) error {
	if len(msg) > math.MaxUint16 {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(msg))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.wmu.Lock()
	defer f.wmu.Unlock()

	stop := interruptWrite(ctx, f.rwc)
	defer stop()

	binary.BigEndian.PutUint16(f.sz1, uint16(len(msg)))

	if _, err := f.w.Write(f.sz1); err != nil {
		return f.writeErr(ctx, err)
	}
	if _, err := f.w.Write(msg); err != nil {
		return f.writeErr(ctx, err)
	}
	if err := f.w.Flush(); err != nil {
		return f.writeErr(ctx, err)
	}
	return nil
}

func (f *Framed) writeErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return errors.Wrap(signer.ErrChannel, err.Error())
}

func (f *Framed) Recv(ctx context.Context) ([]byte, error) {
	f.rmu.Lock()
	defer f.rmu.Unlock()

	stop := interruptRead(ctx, f.rwc)
	defer stop()

	if _, err := io.ReadFull(f.r, f.sz2); err != nil {
		return nil, f.readErr(ctx, err)
	}

	buf := make([]byte, binary.BigEndian.Uint16(f.sz2))
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, f.readErr(ctx, err)
	}
	return buf, nil
}

func (f *Framed) readErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return errors.Wrap(signer.ErrChannel, err.Error())
}

func (f *Framed) Close() error {
	return f.rwc.Close()
}
