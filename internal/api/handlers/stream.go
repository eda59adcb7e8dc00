package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/report"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for the client to send its deck list.
	requestWait = 30 * time.Second
)

// StreamMessage is one server message of the price stream.
type StreamMessage struct {
	Type   string               `json:"type"` // "item", "result" or "error"
	Item   *report.ItemDocument `json:"item,omitempty"`
	Result *report.Document     `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// StreamHandler prices a deck list over a WebSocket, sending each line item
// as soon as it is priced.
type StreamHandler struct {
	pricer   Pricer
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewStreamHandler creates a new StreamHandler. checkOrigin decides which
// browser origins may connect; nil only allows same-host requests.
func NewStreamHandler(pricer Pricer, checkOrigin func(*http.Request) bool, logger *log.Logger) *StreamHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &StreamHandler{
		pricer: pricer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeWs reads one DecklistRequest from the client, then streams "item"
// messages followed by a final "result" or "error" message.
func (h *StreamHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(MaxBodyBytes)
	if err := conn.SetReadDeadline(time.Now().Add(requestWait)); err != nil {
		return
	}

	var req DecklistRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = h.send(conn, StreamMessage{Type: "error", Error: "invalid request: " + err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	onItem := func(item pricing.LineItem) {
		doc := report.NewItemDocument(item)
		if err := h.send(conn, StreamMessage{Type: "item", Item: &doc}); err != nil {
			cancel()
		}
	}

	result, err := h.pricer.Price(ctx, req.Decklist, onItem)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			_ = h.send(conn, StreamMessage{Type: "error", Error: err.Error()})
		}
		return
	}

	doc := report.NewDocument(result)
	if err := h.send(conn, StreamMessage{Type: "result", Result: &doc}); err != nil {
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *StreamHandler) send(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", "type", msg.Type, "err", err)
		return err
	}
	return nil
}
