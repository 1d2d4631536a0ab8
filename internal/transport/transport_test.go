package transport

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFramedRoundTrip(t *testing.T) {
	ctx := testCtx(t)
	a, b := net.Pipe()
	fa, fb := NewFramed(a), NewFramed(b)
	defer fa.Close()
	defer fb.Close()

	frames := [][]byte{[]byte(`{"action":"disconnect"}`), {}, bytes.Repeat([]byte{'x'}, 70000)[:65535]}

	go func() {
		for _, f := range frames {
			if err := fa.Send(ctx, f); err != nil {
				return
			}
		}
	}()

	for _, want := range frames {
		got, err := fb.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		assert.True(t, bytes.Equal(want, got))
	}
}

func TestFramedRejectsOversize(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	err := NewFramed(a).Send(testCtx(t), make([]byte, 65536))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.ErrorIs(t, err, signer.ErrChannel)
}

func TestFramedCloseEndsRecv(t *testing.T) {
	a, b := net.Pipe()
	fb := NewFramed(b)
	defer fb.Close()

	require.NoError(t, a.Close())
	_, err := fb.Recv(testCtx(t))
	assert.ErrorIs(t, err, signer.ErrChannel)
}

func TestFramedRecvHonoursContext(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	fb := NewFramed(b)
	defer fb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := fb.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFramedSendHonoursContext(t *testing.T) {
	// Nobody reads b, so the write blocks until the context ends.
	a, b := net.Pipe()
	defer b.Close()
	fa := NewFramed(a)
	defer fa.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- fa.Send(ctx, []byte(`{"action":"disconnect"}`)) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Send still blocked after the context was cancelled")
	}
}

func TestFramedSendHonoursDeadline(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	fa := NewFramed(a)
	defer fa.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := fa.Send(ctx, []byte(`{"action":"disconnect"}`))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipe(t *testing.T) {
	ctx := testCtx(t)
	a, b := Pipe()

	msg := []byte("hello")
	require.NoError(t, a.Send(ctx, msg))
	msg[0] = 'j'

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, b.Send(ctx, []byte("back")))
	got, err = a.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "back", string(got))
}

func TestPipeCloseDrainsThenFails(t *testing.T) {
	ctx := testCtx(t)
	a, b := Pipe()

	require.NoError(t, a.Send(ctx, []byte("last")))
	require.NoError(t, a.Close())

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", string(got))

	_, err = b.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Send(ctx, []byte("x")), ErrClosed)
	assert.NoError(t, b.Close())
}

func TestWebSocketRoundTrip(t *testing.T) {
	ctx := testCtx(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			msg, err := ws.Recv(r.Context())
			if err != nil {
				return
			}
			if err := ws.Send(r.Context(), append([]byte("echo:"), msg...)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, err := DialWebSocket(ctx, url)
	require.NoError(t, err)

	require.NoError(t, ws.Send(ctx, []byte(`{"action":"disconnect"}`)))
	got, err := ws.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `echo:{"action":"disconnect"}`, string(got))

	require.NoError(t, ws.Close())
	_, err = ws.Recv(ctx)
	assert.Error(t, err)
}

func TestWebSocketPeerCloseIsChannelError(t *testing.T) {
	ctx := testCtx(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		if err != nil {
			return
		}
		ws.Close()
	}))
	defer srv.Close()

	ws, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Recv(ctx)
	assert.ErrorIs(t, err, signer.ErrChannel)
}

func TestDialWebSocketFailure(t *testing.T) {
	_, err := DialWebSocket(testCtx(t), "ws://127.0.0.1:1/nothing")
	assert.ErrorIs(t, err, signer.ErrChannel)
}

func TestDialTCPUsesFramer(t *testing.T) {
	ctx := testCtx(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *Framed, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- NewFramed(conn)
	}()

	ch, err := Dial(ctx, "tcp://"+ln.Addr().String())
	require.NoError(t, err)
	defer ch.Close()
	_, ok := ch.(*Framed)
	assert.True(t, ok)

	srv, ok := <-accepted
	require.True(t, ok)
	defer srv.Close()

	require.NoError(t, ch.Send(ctx, []byte(`{"action":"disconnect"}`)))
	got, err := srv.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"disconnect"}`, string(got))
}

func TestDialRejectsUnknownScheme(t *testing.T) {
	for _, u := range []string{"http://127.0.0.1:8080", "relay", "://bad"} {
		_, err := Dial(testCtx(t), u)
		assert.ErrorIs(t, err, signer.ErrChannel, u)
	}
}
