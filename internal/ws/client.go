package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection. Control replies travel as
// text frames; level documents travel as zstd-compressed binary frames.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string
	groups map[string]bool
	logger *zap.Logger
}

// request is the inbound subscribe/unsubscribe envelope.
type request struct {
	Action string `json:"action"`
	Symbol string `json:"symbol,omitempty"`
}

// reply is the outbound control envelope.
type reply struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
	ConnID string `json:"connId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HandleWS upgrades the connection and starts the client pumps.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		groups: make(map[string]bool),
		logger: h.logger,
	}

	h.register <- client

	client.send <- marshalReply(reply{Type: "connected", ConnID: client.connID})

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection. Control envelopes
// start with '{' and go out as text; everything else is a compressed binary
// frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msgType := websocket.BinaryMessage
			if len(message) > 0 && message[0] == '{' {
				msgType = websocket.TextMessage
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an inbound envelope.
func (c *Client) handleMessage(data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("malformed client message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		c.send <- marshalReply(reply{Type: "error", Error: "malformed message"})
		return
	}

	switch req.Action {
	case "subscribe":
		if req.Symbol == "" {
			c.send <- marshalReply(reply{Type: "error", Error: "subscribe requires a symbol"})
			return
		}
		c.hub.Subscribe(c, req.Symbol)
		c.send <- marshalReply(reply{Type: "subscribed", Symbol: req.Symbol})

	case "unsubscribe":
		c.hub.Unsubscribe(c, req.Symbol)
		c.send <- marshalReply(reply{Type: "unsubscribed", Symbol: req.Symbol})

	case "ping":
		c.send <- marshalReply(reply{Type: "pong"})

	default:
		c.send <- marshalReply(reply{Type: "error", Error: "unknown action: " + req.Action})
	}
}

func marshalReply(r reply) []byte {
	data, _ := json.Marshal(r)
	return data
}
