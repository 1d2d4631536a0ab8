package transport

import (
	"context"
	"sync"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

const pipeBuffer = 16

// PipeEnd is one side of an in-memory channel pair. Closing either end closes
// both.
type PipeEnd struct {
	r <-chan []byte
	w chan<- []byte

	closed chan struct{}
	once   *sync.Once
}

var _ signer.Channel = (*PipeEnd)(nil)

// Pipe returns two connected ends.
func Pipe() (*PipeEnd, *PipeEnd) {
	i := make(chan []byte, pipeBuffer)
	r := make(chan []byte, pipeBuffer)
	closed := make(chan struct{})
	once := new(sync.Once)

	return &PipeEnd{r: i, w: r, closed: closed, once: once},
		&PipeEnd{r: r, w: i, closed: closed, once: once}
}

func (p *PipeEnd) Send(ctx context.Context, msg []byte) error {
	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.w <- buf:
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv drains frames sent before a close before reporting it.
func (p *PipeEnd) Recv(ctx context.Context) ([]byte, error) {
	select {
	case m := <-p.r:
		return m, nil
	default:
	}

	select {
	case m := <-p.r:
		return m, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PipeEnd) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
