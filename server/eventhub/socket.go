package eventhub

import (
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
)

type socketMsg int

const (
	socketMsgClosed socketMsg = iota // The websocket client has closed the connection
)

// RunSocket subscribes to the hub and pushes every event to the websocket
// connection as a JSON text message, until the client disconnects or a write
// fails. Blocks until then, so call it from the HTTP handler goroutine.
func RunSocket(log logs.Log, hub *Hub, conn *websocket.Conn) {
	sub := hub.Subscribe()
	defer sub.Close()
	defer conn.Close()

	fromSocket := make(chan socketMsg, 1)
	go socketReader(conn, fromSocket)

	for {
		select {
		case ev, more := <-sub.C:
			if !more {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Infof("Error writing event to websocket: %v", err)
				return
			}
		case <-fromSocket:
			return
		}
	}
}

// Read from the websocket and post to our own channel, so that we can run a
// single loop that handles both event delivery and client disconnection.
// Clients have nothing to say to us on this channel, so incoming messages
// are discarded.
func socketReader(conn *websocket.Conn, fromSocket chan socketMsg) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	fromSocket <- socketMsgClosed
}
