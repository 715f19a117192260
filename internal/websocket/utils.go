package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Deadlines for monitor connections. Writes are short server pushes;
// reads only ever carry client pings, so the read window is generous.
const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped marshals v onto the connection under the write deadline.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError pushes an EventError frame with a reason the client can
// display.
func WriteError(conn *websocket.Conn, reason string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: reason})
}

// ReadJSON decodes the next client frame into v under the read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
