package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Client is one open socket
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, h.opts.SendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues a frame without blocking. A full buffer disconnects the client.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		c.hub.metrics.WSSlowConsumer()
		c.hub.logger.Warn("Socket send buffer full, disconnecting slow consumer",
			zap.String("connection_id", c.id),
			zap.String("user_id", c.userID.String()))
		go c.closeWith(websocket.ClosePolicyViolation, "slow consumer")
		return false
	}
}

// closeWith sends a close frame, closes the socket and unregisters it once
func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.hub.opts.WriteWait))
		_ = c.conn.Close()
		c.hub.unregister(c)
	})
}

func (c *Client) readPump() {
	defer c.closeWith(websocket.CloseNormalClosure, "")

	pongWait := c.hub.opts.PongWait
	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logger.Debug("Socket read failed",
					zap.String("connection_id", c.id),
					zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.closeWith(websocket.CloseNormalClosure, "")
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame runs one client event. Failures are answered with an error
// event and never close the socket.
func (c *Client) handleFrame(data []byte) {
	var in incomingFrame
	if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
		c.replyError("", "INVALID_FRAME", "Frames must be JSON objects with an event name")
		return
	}
	c.hub.metrics.WSEvent("in", in.Event)

	ctx, cancel := context.WithTimeout(c.hub.ctx, c.hub.opts.EventTimeout)
	defer cancel()

	switch in.Event {
	case EventPing:
		c.reply(EventPong, struct{}{})

	case EventSendMessage:
		var p SendMessagePayload
		if !c.decode(in, &p) || !c.requireConversation(in.Event, p.ConversationID) {
			return
		}
		msg, err := c.hub.chat.SendMessage(ctx, c.userID, p.ConversationID, p.Content)
		if err != nil {
			c.replyErr(in.Event, err)
			return
		}
		c.reply(EventMessageSent, MessageSentPayload{ClientID: p.ClientID, Message: *msg})

	case EventTypingStart, EventTypingStop:
		var p ConversationPayload
		if !c.decode(in, &p) || !c.requireConversation(in.Event, p.ConversationID) {
			return
		}
		conv, err := c.hub.chat.Participant(ctx, c.userID, p.ConversationID)
		if err != nil {
			c.replyErr(in.Event, err)
			return
		}
		out := EventUserTyping
		if in.Event == EventTypingStop {
			out = EventUserStoppedTyping
		}
		payload := TypingPayload{ConversationID: conv.ID, UserID: c.userID}
		for _, other := range conv.OtherParticipants(c.userID) {
			c.hub.SendToUser(other, out, payload)
		}

	case EventMarkAsRead:
		var p ConversationPayload
		if !c.decode(in, &p) || !c.requireConversation(in.Event, p.ConversationID) {
			return
		}
		if _, err := c.hub.chat.MarkAsRead(ctx, c.userID, p.ConversationID); err != nil {
			c.replyErr(in.Event, err)
		}

	default:
		c.replyError(in.Event, "UNKNOWN_EVENT", "Unknown event "+in.Event)
	}
}

func (c *Client) decode(in incomingFrame, v any) bool {
	if len(in.Data) == 0 {
		c.replyError(in.Event, "INVALID_PAYLOAD", "Event data is required")
		return false
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		c.replyError(in.Event, "INVALID_PAYLOAD", "Event data is malformed")
		return false
	}
	return true
}

func (c *Client) requireConversation(event string, id uuid.UUID) bool {
	if id == uuid.Nil {
		c.replyError(event, "INVALID_PAYLOAD", "conversation_id is required")
		return false
	}
	return true
}

func (c *Client) reply(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		c.hub.logger.Error("Failed to encode socket frame", zap.String("event", event), zap.Error(err))
		return
	}
	if c.enqueue(frame) {
		c.hub.metrics.WSEvent("out", event)
	}
}

func (c *Client) replyErr(event string, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.replyError(event, domainErr.Code, domainErr.Message)
		return
	}
	c.hub.logger.Error("Socket event failed",
		zap.String("event", event),
		zap.String("user_id", c.userID.String()),
		zap.Error(err))
	c.replyError(event, "INTERNAL_ERROR", "Something went wrong")
}

func (c *Client) replyError(event, code, message string) {
	c.reply(EventError, ErrorPayload{Code: code, Message: message, Event: event})
}
