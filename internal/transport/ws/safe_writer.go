package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeWriter serialises writes to a websocket connection. Reads are not
// guarded and must stay on one goroutine.
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

// WriteJSON writes v as one text frame, failing if it takes longer than
// timeout. A zero timeout waits forever.
func (w *SafeWriter) WriteJSON(v any, timeout time.Duration) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if timeout > 0 {
		w.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return w.conn.WriteJSON(v)
}

// WriteClose sends a close frame with the given code.
func (w *SafeWriter) WriteClose(code int, text string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	msg := websocket.FormatCloseMessage(code, text)
	return w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
