package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/quizroom/internal/broadcast"
	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// IdentityResolver returns the participant a request belongs to in a game,
// or nil when the request carries no registration
type IdentityResolver func(r *http.Request, gameID int64) *int64

// Hub connects game room websockets to the room bus and the quiz services
type Hub struct {
	log      logger.Logger
	bus      broadcast.Bus
	games    services.GameServicer
	answers  services.AnswerServicer
	identify IdentityResolver

	mutex   sync.RWMutex
	clients map[*Client]struct{}
}

// Client is a middleman between the websocket connection and its game room
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	sub     *broadcast.Subscription
	session *Session
	ctx     context.Context
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, bus broadcast.Bus, games services.GameServicer, answers services.AnswerServicer) *Hub {
	return &Hub{
		log:     log,
		bus:     bus,
		games:   games,
		answers: answers,
		clients: make(map[*Client]struct{}),
	}
}

// SetIdentityResolver sets how connections are mapped to registered participants
func (h *Hub) SetIdentityResolver(fn IdentityResolver) {
	h.identify = fn
}

// Clients returns the number of open connections to a game room
func (h *Hub) Clients(gameID int64) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for c := range h.clients {
		if c.sub.GameID == gameID {
			n++
		}
	}
	return n
}

func (h *Hub) register(c *Client) {
	h.mutex.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mutex.Unlock()
	h.log.Debug("Client connected", "game_id", c.sub.GameID, "total_clients", total)
}

func (h *Hub) unregister(c *Client) {
	h.mutex.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mutex.Unlock()
	if ok {
		h.bus.Unsubscribe(c.sub)
		h.log.Debug("Client disconnected", "game_id", c.sub.GameID, "total_clients", total)
	}
}

// ServeWs handles websocket requests for the game room in the URL
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	if _, err := h.games.State(r.Context(), gameID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to load game state", "game_id", gameID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var participantID *int64
	if h.identify != nil {
		participantID = h.identify(r, gameID)
	}

	// Joined before the handshake completes; events published during the
	// replay wait in the subscription
	sub := h.bus.Subscribe(gameID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.bus.Unsubscribe(sub)
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	// Store calls outlive the request so in-flight submissions complete
	// after a disconnect
	ctx := context.WithoutCancel(r.Context())

	client := &Client{
		hub:     h,
		conn:    conn,
		ctx:     ctx,
		sub:     sub,
		session: NewSession(h.log, gameID, participantID, h.games, h.answers, h.bus),
	}
	h.register(client)

	if err := client.replay(); err != nil {
		h.log.Error("Replay failed", "game_id", gameID, "error", err)
	}

	go client.writePump()
	go client.readPump()
}

// replay writes the catch-up events directly, before the write pump starts
func (c *Client) replay() error {
	events, err := c.session.Replay(c.ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := c.write(ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) write(ev models.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// readPump pumps messages from the websocket connection to the session
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
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
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}
		c.session.HandleMessage(c.ctx, message)
	}
}

// writePump pumps room events to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.sub.C:
			if !ok {
				// Unsubscribed, or dropped for falling behind
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(ev); err != nil {
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
