// Package realtime serves the chat socket channel: one websocket per browser
// tab, fanned out per user.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	appchat "github.com/playhub/backend/internal/application/chat"
	appnotification "github.com/playhub/backend/internal/application/notification"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrTooManyConnections is returned when a user already has the maximum number of sockets
var ErrTooManyConnections = shared.NewDomainError("TOO_MANY_CONNECTIONS", "Too many open connections for this user")

// ChatService is the part of the chat application service the socket uses
type ChatService interface {
	SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content string) (*appchat.MessageDTO, error)
	MarkAsRead(ctx context.Context, userID, conversationID uuid.UUID) (*appchat.ReadReceipt, error)
	Participant(ctx context.Context, userID, conversationID uuid.UUID) (*chat.Conversation, error)
}

// Metrics receives socket counters. telemetry.Metrics implements it.
type Metrics interface {
	WSConnected(delta int)
	WSEvent(direction, event string)
	WSSlowConsumer()
}

type noopMetrics struct{}

func (noopMetrics) WSConnected(int)        {}
func (noopMetrics) WSEvent(string, string) {}
func (noopMetrics) WSSlowConsumer()        {}

// Options tune the hub; zero fields take the defaults below
type Options struct {
	SendBuffer            int
	PingInterval          time.Duration
	PongWait              time.Duration
	WriteWait             time.Duration
	MaxMessageSize        int64
	MaxConnectionsPerUser int
	AllowedOrigins        []string
	EventTimeout          time.Duration
}

// OptionsFromConfig maps the realtime config section
func OptionsFromConfig(cfg config.RealtimeConfig) Options {
	return Options{
		SendBuffer:            cfg.SendBuffer,
		PingInterval:          cfg.PingInterval,
		PongWait:              cfg.PongWait,
		WriteWait:             cfg.WriteWait,
		MaxMessageSize:        cfg.MaxMessageSize,
		MaxConnectionsPerUser: cfg.MaxConnectionsPerUser,
		AllowedOrigins:        cfg.AllowedOrigins,
	}
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 8 << 10
	}
	if o.MaxConnectionsPerUser <= 0 {
		o.MaxConnectionsPerUser = 5
	}
	if o.EventTimeout <= 0 {
		o.EventTimeout = 10 * time.Second
	}
	return o
}

// HubOption is a functional option for configuring the hub
type HubOption func(*Hub)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) HubOption {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithOptions overrides the connection limits and timings
func WithOptions(o Options) HubOption {
	return func(h *Hub) {
		h.opts = o.withDefaults()
	}
}

// Hub tracks open sockets per user and routes frames to them
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*Client]struct{}
	chat     ChatService
	opts     Options
	metrics  Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub creates a new hub
func NewHub(chatService ChatService, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		chat:    chatService,
		opts:    Options{}.withDefaults(),
		metrics: noopMetrics{},
		logger:  zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser clients)
// and origins on the allow-list; an empty list or "*" allows every origin
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// Serve upgrades the request and runs the connection of userID until it closes.
// It returns ErrTooManyConnections before upgrading when the user is at the limit.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	if h.ConnectionCount(userID) >= h.opts.MaxConnectionsPerUser {
		return ErrTooManyConnections
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the request
		return err
	}

	client := newClient(h, conn, userID)
	if err := h.register(client); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrTooManyConnections.Message),
			time.Now().Add(h.opts.WriteWait))
		_ = conn.Close()
		return err
	}

	go client.writePump()
	client.readPump()
	return nil
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	set := h.clients[c.userID]
	if len(set) >= h.opts.MaxConnectionsPerUser {
		h.mu.Unlock()
		return ErrTooManyConnections
	}
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.WSConnected(1)
	h.logger.Info("Socket connected",
		zap.String("connection_id", c.id),
		zap.String("user_id", c.userID.String()))
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, present := set[c]; !present {
			ok = false
		} else {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		h.metrics.WSConnected(-1)
		h.logger.Info("Socket disconnected",
			zap.String("connection_id", c.id),
			zap.String("user_id", c.userID.String()))
	}
}

// IsOnline reports whether userID has at least one open socket
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	return h.ConnectionCount(userID) > 0
}

// ConnectionCount returns the number of open sockets of userID
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Count returns the number of open sockets
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// SendToUser queues a frame on every socket of userID
func (h *Hub) SendToUser(userID uuid.UUID, event string, data any) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("Failed to encode socket frame", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.enqueue(payload) {
			h.metrics.WSEvent("out", event)
		}
	}
}

// PushNotification delivers a notification to the recipient's sockets
func (h *Hub) PushNotification(_ context.Context, recipientID uuid.UUID, n appnotification.NotificationDTO) {
	h.SendToUser(recipientID, EventNotification, NotificationPayload{Notification: n})
}

// EventTypes returns the chat events the hub relays
func (h *Hub) EventTypes() []string {
	return []string{chat.EventTypeMessageSent, chat.EventTypeMessagesRead}
}

// Handle relays stored chat events to the participants' sockets
func (h *Hub) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *chat.MessageSentEvent:
		payload := NewMessagePayload{Message: appchat.MessageDTO{
			ID:             e.MessageID,
			ConversationID: e.ConversationID,
			SenderID:       e.SenderID,
			Content:        e.Content,
			CreatedAt:      e.CreatedAt,
		}}
		h.SendToUser(e.SenderID, EventNewMessage, payload)
		for _, id := range e.RecipientIDs {
			h.SendToUser(id, EventNewMessage, payload)
		}
	case *chat.MessagesReadEvent:
		payload := MessagesReadPayload{
			ConversationID: e.ConversationID,
			UserID:         e.ReaderID,
			ReadAt:         e.ReadAt,
		}
		for _, id := range e.RecipientIDs {
			h.SendToUser(id, EventMessagesRead, payload)
		}
	default:
		return errors.New("realtime: unexpected event type " + event.EventType())
	}
	return nil
}

// Shutdown closes every socket
func (h *Hub) Shutdown() {
	h.cancel()
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	h.logger.Info("Socket hub stopped", zap.Int("connections", len(all)))
}

func encodeFrame(event string, data any) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	return json.Marshal(outgoingFrame{Event: event, Data: data})
}

var (
	_ shared.EventHandler      = (*Hub)(nil)
	_ appnotification.Pusher   = (*Hub)(nil)
	_ appnotification.Presence = (*Hub)(nil)
	_ ChatService              = (*appchat.Service)(nil)
)
