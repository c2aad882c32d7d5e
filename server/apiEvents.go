package server

import (
	"net/http"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/eventhub"
	"github.com/julienschmidt/httprouter"
)

// httpEvents is the live events channel. The connection stays open until the
// client goes away; every classification progress/status event published
// after the connection is established gets pushed as a JSON message.
func (s *Server) httpEvents(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("httpEvents websocket upgrade failed: %v", err)
		return
	}
	eventhub.RunSocket(s.Log, s.Hub, c)
}
