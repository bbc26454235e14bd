package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/engine"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/service"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Events streams session views as Server-Sent Events, starting with the
// current view. The event id is the view revision.
func (h *Handler) Events(c *gin.Context) {
	ch, cancel := sessionFrom(c).Subscribe()
	defer cancel()
	c.Header(constants.CacheControlHeader, constants.CacheControlNoCache)
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{
				Event: "view",
				Id:    strconv.FormatUint(v.Revision, 10),
				Data:  toResponse(v),
			})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wsMsg is the envelope of every server message.
type wsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// clientIn is the envelope of client messages: {"type":"start"} or
// {"type":"move","data":{"index":0}}.
type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WebSocket streams views like Events and also accepts the two session
// commands from the client.
func (h *Handler) WebSocket(c *gin.Context) {
	s := sessionFrom(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(constants.ErrStreamingNotAllowed, err, logging.Fields{constants.LogFieldSessionID: s.ID()})
		return
	}
	defer conn.Close()

	ch, cancel := s.Subscribe()
	defer cancel()
	replies := make(chan wsMsg, 4)
	done := make(chan struct{})
	go h.wsReader(conn, s, replies, done)

	// Only this loop writes to conn.
	for {
		var m wsMsg
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			m = wsMsg{Type: "view", Data: toResponse(v)}
		case m = <-replies:
		case <-done:
			return
		}
		if err := conn.WriteJSON(m); err != nil {
			logging.Error(constants.ErrFailedEncodeState, err, logging.Fields{constants.LogFieldSessionID: s.ID()})
			return
		}
	}
}

func (h *Handler) wsReader(conn *websocket.Conn, s *service.Session, replies chan<- wsMsg, done chan<- struct{}) {
	defer close(done)
	reply := func(msg string) {
		select {
		case replies <- wsMsg{Type: "error", Data: gin.H{constants.JSONKeyError: msg}}:
		default:
		}
	}
	for {
		var in clientIn
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		switch in.Type {
		case "start":
			go h.startInBackground(s)
		case "move":
			var req selectMoveRequest
			if err := json.Unmarshal(in.Data, &req); err != nil || req.Index == nil {
				reply(constants.ErrInvalidRequest)
				continue
			}
			if _, err := s.SelectMove(*req.Index); errors.Is(err, engine.ErrInvalidMove) {
				reply(constants.ErrInvalidMoveIndex)
			} else if err != nil {
				reply(constants.ErrSessionNotFound)
			}
		default:
			reply(constants.ErrInvalidRequest)
		}
	}
}
