package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/lobbygames/napat/internal/models"
	"github.com/lobbygames/napat/internal/notify"
	"github.com/lobbygames/napat/internal/room"
	"github.com/lobbygames/napat/internal/session"
)

// Config holds configuration for client WebSocket connections.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  8192,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Handler upgrades browser connections and runs one game session per
// connection. Each connection owns its own session.Controller and room
// subscription; closing the socket leaves the room.
type Handler struct {
	store    room.Store
	broker   notify.Broker
	clock    clockwork.Clock
	upgrader websocket.Upgrader
	config   Config
}

// NewHandler creates a gateway handler over the given store and broker.
func NewHandler(store room.Store, broker notify.Broker, clock clockwork.Clock, config Config) *Handler {
	return &Handler{
		store:  store,
		broker: broker,
		clock:  clock,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
}

// RegisterRoutes registers the gateway's routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
}

// HandleRoomConnection upgrades the request and serves the session until
// the socket closes.
func (h *Handler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	conn := &clientConn{
		id:      uuid.New().String(),
		ws:      ws,
		ctrl:    session.NewController(h.store, h.broker, h.clock),
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		handler: h,
	}

	log.Info().Str("connection_id", conn.id).Msg("client connected")

	go conn.writePump()
	go conn.eventPump()
	go conn.readPump()
}

// clientConn is one browser client attached to the gateway.
type clientConn struct {
	id        string
	ws        *websocket.Conn
	ctrl      *session.Controller
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	handler   *Handler
}

// readPump consumes client actions until the socket closes, then tears
// the session down.
func (c *clientConn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(c.handler.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.handler.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.handler.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", c.id).Msg("unexpected WebSocket close")
			}
			return
		}
		c.handleAction(message)
		c.ws.SetReadDeadline(time.Now().Add(c.handler.config.ReadTimeout))
	}
}

// writePump flushes queued pushes and keeps the connection alive.
func (c *clientConn) writePump() {
	ticker := time.NewTicker(c.handler.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.id).Msg("failed to write message")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.handler.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// eventPump relays controller events to the client as pushes.
func (c *clientConn) eventPump() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.ctrl.Events():
			c.push(pushFromEvent(ev))
		}
	}
}

func pushFromEvent(ev session.Event) Push {
	switch ev.Type {
	case session.EventPlayerLeft:
		return Push{Type: PushPlayerLeft, Notice: &NoticePayload{
			ID:         ev.Notice.ID,
			PlayerName: ev.Notice.PlayerName,
			Timestamp:  ev.Notice.Timestamp,
		}}
	case session.EventNoticeExpired:
		return Push{Type: PushNoticeExpired, NoticeID: ev.NoticeID}
	case session.EventForfeitWin:
		return Push{Type: PushForfeitWin, Winner: ev.Winner}
	default:
		return Push{Type: PushRoomState, State: ev.State}
	}
}

// handleAction dispatches one client request. The action set is closed;
// anything else is answered with an error push.
func (c *clientConn) handleAction(message []byte) {
	var action Action
	if err := json.Unmarshal(message, &action); err != nil {
		c.pushError(action.Type, err, "bad_request")
		return
	}

	ctx := context.Background()

	switch action.Type {
	case ActionCreateRoom:
		settings := session.Settings{}
		if action.Settings != nil {
			settings.TotalRounds = action.Settings.TotalRounds
			settings.TimerDuration = action.Settings.TimerDuration
		}
		code, err := c.ctrl.CreateRoom(ctx, action.Name, settings)
		if err != nil {
			c.pushError(action.Type, err, "")
			return
		}
		c.push(Push{Type: PushRoomCreated, RoomCode: code})

	case ActionCheckRoom:
		info := c.ctrl.CheckRoomStatus(ctx, action.RoomCode)
		c.push(Push{Type: PushRoomInfo, RoomCode: action.RoomCode, Info: &info})

	case ActionJoinRoom:
		if err := c.ctrl.JoinRoom(ctx, action.Name, action.RoomCode); err != nil {
			c.pushError(action.Type, err, "")
			return
		}
		c.push(Push{Type: PushAck, Action: action.Type, RoomCode: action.RoomCode})

	case ActionStartGame:
		if err := c.ctrl.StartGame(ctx); err != nil {
			c.pushError(action.Type, err, "")
		}

	case ActionSetDraft:
		if action.Answers != nil {
			c.ctrl.SetDraft(*action.Answers)
		}

	case ActionSubmitAnswers:
		answers := models.AnswerSet{}
		if action.Answers != nil {
			answers = *action.Answers
		}
		if err := c.ctrl.SubmitAnswers(ctx, answers); err != nil {
			c.pushError(action.Type, err, "")
		}

	case ActionLeaveRoom:
		if err := c.ctrl.LeaveRoom(ctx); err != nil {
			c.pushError(action.Type, err, "")
			return
		}
		c.push(Push{Type: PushAck, Action: action.Type})

	default:
		c.pushError(action.Type, errUnknownAction, "unknown_action")
	}
}

func (c *clientConn) push(p Push) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.id).Msg("failed to marshal push")
		return
	}
	select {
	case c.send <- data:
	default:
		// The client is not keeping up; drop it rather than block every
		// other session.
		log.Warn().Str("connection_id", c.id).Msg("send buffer full, closing connection")
		c.close()
	}
}

func (c *clientConn) pushError(action ActionType, err error, code string) {
	if code == "" {
		code = errorCode(err)
	}
	c.push(Push{Type: PushError, Action: action, Error: err.Error(), Code: code})
}

// close tears the session down once, leaving the room and releasing the
// subscription.
func (c *clientConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.ctrl.LeaveRoom(context.Background()); err != nil {
			log.Warn().Err(err).Str("connection_id", c.id).Msg("leave on disconnect failed")
		}
		c.ws.Close()
		log.Info().Str("connection_id", c.id).Msg("client disconnected")
	})
}
