package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// InboundHandler receives raw client messages from a connection's read pump.
type InboundHandler func(conn *Connection, message []byte)

// ConnectionManager manages WebSocket connections grouped into per-game
// rooms keyed by pin. A connection belongs to at most one room, joined via
// the join-room client message. Events sent to a room with no subscribers
// are dropped, never buffered.
type ConnectionManager struct {
	rooms map[string]map[*Connection]bool
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	inbound  InboundHandler

	broadcastCh chan BroadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID       string
	Pin      string // room pin, empty until join-room
	PlayerID string // set by join-room for player connections
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage routes an event to a room, optionally narrowed to one
// player's connections.
type BroadcastMessage struct {
	Pin      string
	Event    *GameEvent
	PlayerID string
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig, inbound InboundHandler) *ConnectionManager {
	return &ConnectionManager{
		rooms: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		inbound:     inbound,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start begins processing broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection. The
// connection receives nothing until it joins a room.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("connection_id", connection.ID).Str("remote", r.RemoteAddr).Msg("WebSocket connection established")
	return nil
}

// JoinRoom subscribes a connection to a game's room, leaving any previous
// room first.
func (cm *ConnectionManager) JoinRoom(conn *Connection, pin, playerID string) {
	cm.mu.Lock()
	if conn.Pin != "" && conn.Pin != pin {
		cm.leaveRoomLocked(conn)
	}
	conn.Pin = pin
	conn.PlayerID = playerID
	if cm.rooms[pin] == nil {
		cm.rooms[pin] = make(map[*Connection]bool)
	}
	cm.rooms[pin][conn] = true
	total := len(cm.rooms[pin])
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("pin", pin).
		Str("player_id", playerID).
		Int("room_connections", total).
		Msg("connection joined room")
}

func (cm *ConnectionManager) leaveRoomLocked(conn *Connection) {
	if room, exists := cm.rooms[conn.Pin]; exists {
		delete(room, conn)
		if len(room) == 0 {
			delete(cm.rooms, conn.Pin)
		}
	}
}

// unregisterConnection removes a connection from its room and closes its
// send channel.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn.Pin != "" {
		if room, exists := cm.rooms[conn.Pin]; exists {
			if _, ok := room[conn]; ok {
				delete(room, conn)
				close(conn.Send)
				if len(room) == 0 {
					delete(cm.rooms, conn.Pin)
				}
				log.Info().Str("connection_id", conn.ID).Str("pin", conn.Pin).Msg("connection unregistered")
			}
		}
		conn.Pin = ""
	}
}

// BroadcastToRoom queues an event for every connection in a room.
func (cm *ConnectionManager) BroadcastToRoom(pin string, event *GameEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Pin: pin, Event: event}:
	default:
		log.Warn().Str("pin", pin).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastToPlayer queues an event for one player's connections in a room.
func (cm *ConnectionManager) BroadcastToPlayer(pin, playerID string, event *GameEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{Pin: pin, Event: event, PlayerID: playerID}:
	default:
		log.Warn().Str("pin", pin).Str("player_id", playerID).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	room, exists := cm.rooms[message.Pin]
	if !exists {
		// Empty room: the event is dropped, not buffered. Late joiners
		// refetch a snapshot instead of replaying.
		cm.mu.RUnlock()
		return
	}

	var targets []*Connection
	for conn := range room {
		if message.PlayerID != "" && conn.PlayerID != message.PlayerID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- eventData:
		default:
			// Connection is slow/dead, close it
			log.Warn().Str("connection_id", conn.ID).Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("pin", message.Pin).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// Stats returns counters about active rooms and connections.
func (cm *ConnectionManager) Stats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	total := 0
	roomCounts := make(map[string]int)
	for pin, room := range cm.rooms {
		roomCounts[pin] = len(room)
		total += len(room)
	}

	return map[string]interface{}{
		"total_connections": total,
		"active_rooms":      len(cm.rooms),
		"room_connections":  roomCounts,
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client messages and hands them to the inbound handler.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.inbound != nil {
			c.Manager.inbound(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// SendEvent writes an event directly to this connection, bypassing rooms.
// Used for errors on connections that have not joined yet.
func (c *Connection) SendEvent(event *GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal direct event")
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, dropping direct event")
	}
}
