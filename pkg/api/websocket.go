package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "moves", "usable", "turn", "choose", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string `json:"type"`              // Response type: "result", "error", "pong"
	ID      string `json:"id,omitempty"`      // Request ID
	Payload any    `json:"payload,omitempty"` // Response data
	Error   string `json:"error,omitempty"`   // Error message if any
	Code    string `json:"code,omitempty"`    // Error code if any
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
}

// WebSocket handles WebSocket connections for interactive play.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &WSClient{conn: conn, handlers: h, sendChan: make(chan WSResponse, 256)}
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	h := c.handlers
	switch msg.Type {
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	case "moves":
		var req PositionRequest
		if c.decode(msg, &req) {
			resp, apiErr := h.moves(req)
			c.reply(msg, resp, apiErr)
		}
	case "usable":
		var req PositionRequest
		if c.decode(msg, &req) {
			resp, apiErr := h.usable(req)
			c.reply(msg, resp, apiErr)
		}
	case "turn":
		var req TurnRequest
		if c.decode(msg, &req) {
			resp, apiErr := h.turn(req)
			c.reply(msg, resp, apiErr)
		}
	case "choose":
		var req ChooseRequest
		if c.decode(msg, &req) {
			resp, apiErr := h.choose(req)
			c.reply(msg, resp, apiErr)
		}
	default:
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}
}

func (c *WSClient) decode(msg WSMessage, v any) bool {
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"}
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"}
		return false
	}
	return true
}

func (c *WSClient) reply(msg WSMessage, payload any, apiErr *apiError) {
	if apiErr != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: apiErr.msg, Code: apiErr.code}
		return
	}
	c.sendChan <- WSResponse{Type: "result", ID: msg.ID, Payload: payload}
}
