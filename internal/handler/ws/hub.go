// Package ws streams computed matchups to browser clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
	xhttp "CourtEdge/pkg/http"
	applogger "CourtEdge/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// AllTeams subscribes a client to every matchup.
const AllTeams = "*"

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = 25 * time.Second
)

// ClientMsg is what browsers send: subscribe, unsubscribe or ping.
type ClientMsg struct {
	Type string `json:"type"`
	Team string `json:"team"`
}

// ServerMsg wraps everything the hub sends.
type ServerMsg struct {
	Type    string               `json:"type"`
	Team    string               `json:"team,omitempty"`
	Matchup *models.MatchupEvent `json:"matchup,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans matchup events out to subscribed connections.
// Subscriptions are keyed by team abbreviation or AllTeams.
type Hub struct {
	upgrader websocket.Upgrader
	log      *applogger.Logger

	mu      sync.RWMutex
	subs    map[string]map[*client]struct{}
	clients map[*client]struct{}
	closed  bool
}

var _ domrepo.EventPublisher = (*Hub)(nil)

func NewHub(allowOrigin func(r *http.Request) bool, l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      l,
		subs:     make(map[string]map[*client]struct{}),
		clients:  make(map[*client]struct{}),
	}
}

// RegisterRoutes mounts the feed. Clients start subscribed to ?team=, or to all teams.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/matchups", func(c echo.Context) error {
		req := &models.FeedRequest{}
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}
		h.serve(c.Response(), c.Request(), req.Team)
		return nil
	})
}

// HandleWS upgrades the request and serves the connection until it drops.
// The optional team query parameter sets the initial subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.URL.Query().Get("team"))
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, team string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", applogger.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	if team != "" {
		h.subscribe(c, team)
	}

	go h.writeLoop(c)
	h.readLoop(c)
	h.unregister(c)
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		var msg ClientMsg
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(c, msg.Team)
			h.reply(c, ServerMsg{Type: "subscribed", Team: normalizeTeam(msg.Team)})
		case "unsubscribe":
			h.unsubscribe(c, msg.Team)
			h.reply(c, ServerMsg{Type: "unsubscribed", Team: normalizeTeam(msg.Team)})
		case "ping":
			h.reply(c, ServerMsg{Type: "pong"})
		}
	}
}

// writeLoop is the only writer of c.conn.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) reply(c *client, msg ServerMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.deliverLocked(c, b)
	}
}

// deliverLocked drops a client whose buffer is full rather than blocking the hub.
func (h *Hub) deliverLocked(c *client, b []byte) {
	select {
	case c.send <- b:
	default:
		go h.unregister(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for key, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	c.close()
}

func (h *Hub) subscribe(c *client, team string) {
	key := normalizeTeam(team)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, ok := h.subs[key]; !ok {
		h.subs[key] = make(map[*client]struct{})
	}
	h.subs[key][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client, team string) {
	key := normalizeTeam(team)
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[key]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
}

// Broadcast sends ev once to every client subscribed to either team or to AllTeams.
func (h *Hub) Broadcast(ev models.MatchupEvent) int {
	b, err := json.Marshal(ServerMsg{Type: "matchup", Matchup: &ev})
	if err != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*client]struct{})
	for _, key := range []string{AllTeams, normalizeTeam(ev.HomeTeam), normalizeTeam(ev.AwayTeam)} {
		for c := range h.subs[key] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			h.deliverLocked(c, b)
		}
	}
	return len(seen)
}

func (h *Hub) PublishMatchup(_ context.Context, ev models.MatchupEvent) error {
	n := h.Broadcast(ev)
	h.log.Debug("matchup broadcast", applogger.String("event_id", ev.EventID), applogger.Int("clients", n))
	return nil
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.subs = make(map[string]map[*client]struct{})
	return nil
}

func normalizeTeam(team string) string {
	t := strings.ToUpper(strings.TrimSpace(team))
	if t == "" {
		return AllTeams
	}
	return t
}
