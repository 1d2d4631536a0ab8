package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/pkg/signer"
)

const closeGracePeriod = time.Second

// WebSocket is a Channel carrying one text message per frame.
type WebSocket struct {
	conn *websocket.Conn

	rmu sync.Mutex
	wmu sync.Mutex
}

var _ signer.Channel = (*WebSocket)(nil)

// DialWebSocket connects to the relay at url.
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(signer.ErrChannel, "dial %s: %v (status %s)", url, err, resp.Status)
		}
		return nil, errors.Wrapf(signer.ErrChannel, "dial %s: %v", url, err)
	}
	return NewWebSocket(conn), nil
}

// Upgrade accepts a WebSocket connection on the server side.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Wrap(signer.ErrChannel, err.Error())
	}
	return NewWebSocket(conn), nil
}

func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

func (ws *WebSocket) Send(ctx context.Context, msg []byte) error {
	ws.wmu.Lock()
	defer ws.wmu.Unlock()

	stop := interruptWrite(ctx, ws.conn)
	defer stop()

	if err := ws.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return errors.Wrap(signer.ErrChannel, err.Error())
	}
	return nil
}

func (ws *WebSocket) Recv(ctx context.Context) ([]byte, error) {
	ws.rmu.Lock()
	defer ws.rmu.Unlock()

	stop := interruptRead(ctx, ws.conn)
	defer stop()

	for {
		typ, msg, err := ws.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrClosed
			}
			return nil, errors.Wrap(signer.ErrChannel, err.Error())
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close sends a normal-closure frame and tears down the connection.
func (ws *WebSocket) Close() error {
	ws.wmu.Lock()
	ws.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))
	ws.wmu.Unlock()

	return ws.conn.Close()
}
