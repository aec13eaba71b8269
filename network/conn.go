package network

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errOutboxFull = errors.New("client outbox full")

// wsConn adapts a websocket connection to room.Conn. Sends are queued so
// the room actor never blocks on a slow client; the writer goroutine also
// owns the ping loop.
type wsConn struct {
	conn      *websocket.Conn
	outbox    chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	wc := &wsConn{
		conn:   conn,
		outbox: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go wc.writePump()
	return wc
}

func (wc *wsConn) Send(b []byte) error {
	select {
	case wc.outbox <- b:
		return nil
	case <-wc.done:
		return errors.New("connection closed")
	default:
		// A client that cannot drain its outbox is as good as gone.
		return errOutboxFull
	}
}

func (wc *wsConn) Close() error {
	wc.closeOnce.Do(func() {
		close(wc.done)
		_ = wc.conn.Close()
	})
	return nil
}

// closeWith sends a close frame with an application code before tearing
// the connection down (e.g. room-full rejection).
func (wc *wsConn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = wc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = wc.conn.WriteMessage(websocket.CloseMessage, msg)
}

func (wc *wsConn) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case b := <-wc.outbox:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = wc.Close()
				return
			}
		case <-ticker.C:
			_ = wc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = wc.Close()
				return
			}
		case <-wc.done:
			return
		}
	}
}
