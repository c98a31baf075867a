package services

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Hub routes websocket clients and implements the Broadcaster contract for
// the game services. It also acts as the session registry: each client
// carries its room code and player name, so there is no global
// connection-to-room map.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex

	rooms    *RoomService
	chat     *ChatService
	sessions *SessionService
}

type Client struct {
	hub        *Hub
	id         string
	socket     *websocket.Conn
	send       chan []byte
	roomCode   string
	playerName string

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// Message is the outgoing event envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// inboundMessage defers payload decoding until the event type is known.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// eventPayload covers every field a client event may carry.
type eventPayload struct {
	Code    string            `json:"codigo"`
	Player  string            `json:"jugador"`
	Token   string            `json:"token"`
	Message string            `json:"mensaje"`
	Answers map[string]string `json:"respuestas"`
}

func NewHub(rooms *RoomService, chat *ChatService, sessions *SessionService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      rooms,
		chat:       chat,
		sessions:   sessions,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client registered: %s for room %s (%s) - total clients: %d",
				client.id, client.roomCode, client.playerName, h.clientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			if ok {
				log.Printf("Client unregistered: %s for room %s (%s) - total clients: %d",
					client.id, client.roomCode, client.playerName, h.clientCount())
				if client.roomCode != "" && client.playerName != "" {
					h.rooms.MarkDisconnected(client.roomCode, client.playerName, h)
				}
			}
		}
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// PublishToRoom sends an event to every client subscribed to a room.
func (h *Hub) PublishToRoom(code, event string, payload interface{}) {
	data, err := json.Marshal(Message{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if !strings.EqualFold(client.roomCode, code) {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

// SendToClient delivers an event to one connection only.
func (h *Hub) SendToClient(client *Client, event string, payload interface{}) {
	data, err := json.Marshal(Message{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

// ConnectedPlayers lists the player names currently attached to a room.
func (h *Hub) ConnectedPlayers(code string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var players []string
	for client := range h.clients {
		if strings.EqualFold(client.roomCode, code) && client.playerName != "" {
			players = append(players, client.playerName)
		}
	}
	return players
}

func (h *Hub) RegisterClient(conn *websocket.Conn, roomCode, playerName string) *Client {
	client := &Client{
		hub:        h,
		id:         uuid.NewString(),
		socket:     conn,
		send:       make(chan []byte, 256),
		roomCode:   roomCode,
		playerName: playerName,
		limiters:   make(map[string]*rate.Limiter),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

// allow rate-limits one action type for this client.
func (c *Client) allow(action string, every time.Duration) bool {
	c.limiterMu.Lock()
	limiter, ok := c.limiters[action]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(every), 1)
		c.limiters[action] = limiter
	}
	c.limiterMu.Unlock()
	return limiter.Allow()
}

func (c *Client) decodePayload(raw json.RawMessage) (eventPayload, bool) {
	var p eventPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Printf("Error unmarshaling payload from client %s: %v", c.id, err)
			return p, false
		}
	}
	// A session token overrides whatever identity the payload claims.
	if p.Token != "" && c.hub.sessions != nil {
		if code, player, err := c.hub.sessions.ParseToken(p.Token); err == nil {
			p.Code, p.Player = code, player
		} else {
			log.Printf("Rejected session token from client %s: %v", c.id, err)
		}
	}
	return p, true
}

func (c *Client) handleMessage(msg inboundMessage) {
	switch msg.Type {
	case "ping":
		c.hub.SendToClient(c, "pong", "pong")

	case "join_room_event":
		if !c.allow("join_room", 2*time.Second) {
			log.Printf("Rate limit exceeded for join_room from client %s", c.id)
			return
		}
		p, ok := c.decodePayload(msg.Payload)
		if !ok || !validPlayerName(p.Player) {
			return
		}
		c.roomCode = p.Code
		c.playerName = p.Player
		room := c.hub.rooms.AttachPlayer(p.Code, p.Player)
		if room == nil {
			return
		}
		log.Printf("Player %s joined room %s via WebSocket", p.Player, p.Code)
		c.hub.PublishToRoom(p.Code, "player_joined", rosterPayload(room))

	case "rejoin_room_event":
		p, ok := c.decodePayload(msg.Payload)
		if !ok || p.Code == "" || p.Player == "" {
			return
		}
		c.roomCode = p.Code
		c.playerName = p.Player
		room := c.hub.rooms.AttachPlayer(p.Code, p.Player)
		if room == nil {
			return
		}
		// Snapshot goes to the rejoiner only, roster to the whole room.
		c.hub.SendToClient(c, "restore_state", statePayload(room))
		c.hub.PublishToRoom(p.Code, "player_joined", rosterPayload(room))

	case "host_is_starting":
		p, ok := c.decodePayload(msg.Payload)
		if !ok || p.Code == "" || p.Player == "" {
			return
		}
		c.hub.rooms.StartRound(p.Code, p.Player, c.hub)

	case "player_ready":
		if !c.allow("player_ready", time.Second) {
			log.Printf("Rate limit exceeded for player_ready from client %s", c.id)
			return
		}
		p, ok := c.decodePayload(msg.Payload)
		if !ok || p.Code == "" || p.Player == "" {
			return
		}
		c.hub.rooms.MarkReady(p.Code, p.Player, c.hub)

	case "enviar_respuestas":
		p, ok := c.decodePayload(msg.Payload)
		if !ok || p.Code == "" || p.Player == "" {
			return
		}
		c.hub.rooms.SubmitAnswers(p.Code, p.Player, p.Answers)

	case "basta_pressed":
		p, ok := c.decodePayload(msg.Payload)
		if !ok || p.Code == "" {
			return
		}
		c.hub.rooms.FinalizeRound(p.Code, c.hub)

	case "enviar_mensaje_chat":
		if !c.allow("chat", 500*time.Millisecond) {
			return
		}
		p, ok := c.decodePayload(msg.Payload)
		if !ok {
			return
		}
		if reason := c.hub.chat.SendMessage(p.Code, p.Player, p.Message, c.hub); reason != "" {
			c.hub.SendToClient(c, "mensaje_rechazado", gin.H{"razon": reason})
		}

	default:
		log.Printf("Unknown message type %q from client %s in room %s", msg.Type, c.id, c.roomCode)
	}
}

func validPlayerName(name string) bool {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "null", "undefined", "none":
		return false
	}
	return true
}
