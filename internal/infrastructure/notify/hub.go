package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
)

// Message types pushed to websocket clients.
const (
	MessageHello        = "hello"
	MessageNotification = "notification"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Data      *domain.Notification `json:"data,omitempty"`
}

// HubConfig configures the websocket hub.
type HubConfig struct {
	Host string
	// Port to listen on. Zero picks a free port.
	Port   int
	Logger *zap.Logger
}

// Hub broadcasts notifications to connected websocket clients.
type Hub struct {
	addr     string
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *zap.Logger
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		addr:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    cfg.Logger.Named("ws_hub"),
	}
}

// Start listens and serves /ws and /health.
func (h *Hub) Start() error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)

	h.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	h.wg.Add(1)
	go h.broadcastLoop()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.logger.Info("notification hub listening", zap.String("address", ln.Addr().String()))
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("notification hub crashed", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (h *Hub) Addr() string {
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// Stop closes every client and shuts the server down.
func (h *Hub) Stop(ctx context.Context) error {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	var err error
	if h.server != nil {
		err = h.server.Shutdown(ctx)
	}
	h.wg.Wait()
	return err
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Notify queues the notification for broadcast. A full queue drops it.
func (h *Hub) Notify(_ context.Context, n domain.Notification) error {
	msg := Message{Type: MessageNotification, Timestamp: n.CreatedAt, Data: &n}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	default:
		h.logger.Warn("broadcast queue full, dropping notification", zap.String("tag", n.Tag))
		return nil
	}
}

func (h *Hub) broadcastLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg := <-h.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to marshal message", zap.Error(err))
				continue
			}

			h.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				clients = append(clients, conn)
			}
			h.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					h.logger.Debug("client write failed", zap.Error(err))
					h.removeClient(conn)
				}
			}
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Debug("client connected", zap.Int("clients", count))

	hello, _ := json.Marshal(Message{Type: MessageHello, Timestamp: time.Now()})
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, hello)
	cancel()

	go h.readLoop(conn)
}

// readLoop only detects disconnects; clients never send anything meaningful.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)
	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("client disconnected", zap.Int("clients", count))
}

func (h *Hub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": h.Clients(),
	})
}
