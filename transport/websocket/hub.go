package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frames buffered per client before it is dropped.
	sendBuffer = 256
)

// TokenVerifier resolves an account token to a user ID.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// inbound is one decoded frame waiting for the hub loop.
type inbound struct {
	client *Client
	env    Envelope
}

// Hub owns every live connection and runs all game events on one goroutine.
// It implements service.Notifier and service.Scheduler.
type Hub struct {
	// Registered clients by connection ID
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	tasks      chan func()
	done       chan struct{}

	game     service.GameService
	verifier TokenVerifier
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithTokenVerifier enables the optional ?token= binding of connections to
// accounts.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(h *Hub) { h.verifier = v }
}

// WithAllowedOrigins restricts the Origin header accepted on upgrade. An empty
// list allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		tasks:      make(chan func(), 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetGameService attaches the service that handles inbound events. It must be
// called before Run.
func (h *Hub) SetGameService(svc service.GameService) {
	h.game = svc
}

// Run starts the hub's event loop. It returns when ctx is cancelled, after
// closing every connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(ctx, client)

		case in := <-h.inbound:
			h.dispatch(ctx, in.client, in.env)

		case fn := <-h.tasks:
			fn()
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var accountID string
	if token := r.URL.Query().Get("token"); token != "" && h.verifier != nil {
		id, err := h.verifier.VerifyToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		accountID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		id:        uuid.NewString(),
		accountID: accountID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Send implements service.Notifier. Messages for unknown connections are
// dropped; a client whose buffer is full is disconnected.
func (h *Hub) Send(connID string, msg service.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal websocket message", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	// The read lock keeps unregister from closing client.send mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		h.log.Warn("client send buffer full, disconnecting", zap.String("conn", connID))
		go client.conn.Close()
	}
}

// AfterFunc implements service.Scheduler. fn runs on the hub loop, never
// concurrently with an event handler.
func (h *Hub) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case h.tasks <- fn:
		case <-h.done:
		}
	})
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("client connected",
		zap.String("conn", client.id),
		zap.Bool("authenticated", client.accountID != ""),
		zap.Int("clients", total))
	h.Send(client.id, service.Message{Type: EventConnected, Data: Connected{ConnectionID: client.id}})
}

// unregisterClient drops the connection and tears down its room.
func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("client disconnected", zap.String("conn", client.id), zap.Int("clients", total))
	if h.game != nil {
		h.game.Leave(ctx, client.id)
	}
}

// dispatch routes one inbound frame to the game service.
func (h *Hub) dispatch(ctx context.Context, client *Client, env Envelope) {
	if h.game == nil {
		h.log.Error("no game service attached")
		return
	}
	conn := service.Conn{ID: client.id, AccountID: client.accountID}

	switch env.Type {
	case EventCreateGame:
		var req service.CreateRequest
		if err := decodePayload(env.Data, &req); err != nil {
			h.reject(client, env.Type, err)
			return
		}
		if _, err := h.game.CreateGame(ctx, conn, req); err != nil {
			h.reject(client, env.Type, err)
		}

	case EventJoinGame:
		var req service.JoinRequest
		if err := decodePayload(env.Data, &req); err != nil {
			h.reject(client, env.Type, err)
			return
		}
		if _, err := h.game.JoinGame(ctx, conn, req.RoomCode); err != nil {
			h.reject(client, env.Type, err)
		}

	case EventMakeMove:
		var req service.MoveRequest
		if _, ok := env.Data["cellIndex"]; !ok {
			h.reject(client, env.Type, ErrInvalidPayload)
			return
		}
		if err := decodePayload(env.Data, &req); err != nil {
			h.reject(client, env.Type, err)
			return
		}
		h.game.MakeMove(ctx, client.id, req)

	case EventRequestRematch:
		var req service.RematchRequest
		if err := decodePayload(env.Data, &req); err != nil {
			h.reject(client, env.Type, err)
			return
		}
		h.game.RequestRematch(ctx, client.id, req.RoomCode)

	default:
		h.reject(client, env.Type, ErrUnknownEvent)
	}
}

// reject reports a user error to the sender only.
func (h *Hub) reject(client *Client, event string, err error) {
	h.log.Debug("event rejected", zap.String("conn", client.id), zap.String("event", event), zap.Error(err))
	h.Send(client.id, errorMessage(err))
}
