// Package spectate streams a running game to read-only WebSocket clients.
package spectate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/setgame/internal/ui"
)

const shutdownTimeout = 5 * time.Second

// Hub is a ui.Sink that mirrors the board and broadcasts every notification
// to connected spectators. New spectators get a snapshot of the mirror first,
// taken under the same lock as their registration so no event is missed or
// seen twice.
type Hub struct {
	ui.Funnel

	mu          sync.Mutex
	gameID      string
	names       []string
	cards       []int
	tokens      []map[int]struct{}
	scores      []int
	freezes     []int64
	remaining   int64
	warn        bool
	winners     []int
	connections map[*Connection]struct{}

	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewHub creates a hub for a board with the given number of slots.
func NewHub(gameID string, names []string, slots int, logger *log.Logger) *Hub {
	h := &Hub{
		gameID:      gameID,
		names:       names,
		cards:       make([]int, slots),
		tokens:      make([]map[int]struct{}, slots),
		scores:      make([]int, len(names)),
		freezes:     make([]int64, len(names)),
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("spectate"),
	}
	for i := range h.cards {
		h.cards[i] = -1
		h.tokens[i] = make(map[int]struct{})
	}
	h.Funnel = h.publish
	return h
}

func (h *Hub) publish(e ui.Event) {
	msg, err := NewMessage(MessageTypeEvent, e)
	if err != nil {
		h.logger.Error("Failed to encode event", "kind", e.Kind, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.apply(e)
	for c := range h.connections {
		c.SendMessage(msg)
	}
}

func (h *Hub) apply(e ui.Event) {
	validSlot := e.Slot >= 0 && e.Slot < len(h.cards)
	validPlayer := e.Player >= 0 && e.Player < len(h.scores)

	switch e.Kind {
	case ui.KindPlaceCard:
		if validSlot {
			h.cards[e.Slot] = e.Card
		}
	case ui.KindRemoveCard:
		if validSlot {
			h.cards[e.Slot] = -1
		}
	case ui.KindPlaceToken:
		if validSlot {
			h.tokens[e.Slot][e.Player] = struct{}{}
		}
	case ui.KindRemoveToken:
		if validSlot {
			delete(h.tokens[e.Slot], e.Player)
		}
	case ui.KindRemoveTokens:
		if validSlot {
			clear(h.tokens[e.Slot])
		}
	case ui.KindScore:
		if validPlayer {
			h.scores[e.Player] = e.Score
		}
	case ui.KindFreeze:
		if validPlayer {
			h.freezes[e.Player] = e.Millis
		}
	case ui.KindCountdown:
		h.remaining = e.Millis
		h.warn = e.Warn
	case ui.KindAnnounceWinner:
		h.winners = e.Winners
	}
}

// Snapshot returns the current mirror of the board.
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() Snapshot {
	s := Snapshot{
		GameID:          h.gameID,
		Players:         make([]PlayerState, len(h.names)),
		Slots:           make([]SlotState, len(h.cards)),
		RemainingMillis: h.remaining,
		Warn:            h.warn,
		Winners:         append([]int(nil), h.winners...),
	}
	for i, name := range h.names {
		s.Players[i] = PlayerState{ID: i, Name: name, Score: h.scores[i], FrozenMillis: h.freezes[i]}
	}
	for slot, card := range h.cards {
		tokens := make([]int, 0, len(h.tokens[slot]))
		for p := range h.tokens[slot] {
			tokens = append(tokens, p)
		}
		sort.Ints(tokens)
		s.Slots[slot] = SlotState{Slot: slot, Card: card, Tokens: tokens}
	}
	return s
}

// Handler serves /ws for spectators and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// Serve runs the HTTP server on ln until ctx is cancelled, then disconnects
// every spectator.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: h.Handler()}

	errs := make(chan error, 1)
	go func() {
		h.logger.Info("Starting spectator server", "addr", ln.Addr().String())
		errs <- srv.Serve(ln)
	}()

	select {
	case err := <-errs:
		h.Close()
		return fmt.Errorf("spectator server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("spectator server shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("spectator server: %w", err)
	}
	return nil
}

// Close disconnects every spectator.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.connections = make(map[*Connection]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors during shutdown
	}
}

// Spectators returns the number of connected clients.
func (h *Hub) Spectators() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, h.logger)

	h.mu.Lock()
	snapshot, err := NewMessage(MessageTypeSnapshot, h.snapshotLocked())
	if err != nil {
		h.mu.Unlock()
		h.logger.Error("Failed to encode snapshot", "error", err)
		_ = client.Close()
		return
	}
	client.SendMessage(snapshot)
	h.connections[client] = struct{}{}
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("Spectator connected", "total", total)
	client.Start()

	go func() {
		<-client.ctx.Done()
		h.mu.Lock()
		delete(h.connections, client)
		total := len(h.connections)
		h.mu.Unlock()
		h.logger.Info("Spectator disconnected", "total", total)
	}()
}

// handleHealth handles health check requests
func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}
