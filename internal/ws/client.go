package ws

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// События, которыми сервер отвечает на кадры клиента.
const (
	EventPong   = "pong"
	EventTyping = "typing"
	EventError  = "error"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameSize  = 4 * 1024
	sendQueueSize = 32
	typingTimeout = 3 * time.Second
)

// Frame кадр от клиента. Сообщения в диалог отправляются через REST,
// сокет принимает только служебные кадры.
type Frame struct {
	Type           string     `json:"type"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
}

// TypingEvent уходит собеседнику, пока пользователь набирает сообщение.
type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

// Client одно WebSocket соединение пользователя.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	send   chan []byte
	log    *logrus.Entry
	once   sync.Once
}

func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
		log:    hub.log.WithField("user_id", userID),
	}
}

// Run обслуживает соединение до его закрытия или отмены ctx.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.pushEvents(ctx)
	c.readFrames(ctx)
}

// Close снимает клиента с хаба и закрывает соединение. Повторные вызовы игнорируются.
func (c *Client) Close() {
	c.once.Do(func() {
		c.hub.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// readFrames читает кадры клиента и отвечает на них.
func (c *Client) readFrames(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("stack", string(debug.Stack())).Errorf("ws: panic при чтении: %v", r)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("ws: соединение оборвано")
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

// handleFrame разбирает один кадр клиента.
func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.reply(EventError, errorBody("некорректный кадр"))
		return
	}

	switch frame.Type {
	case "ping":
		c.reply(EventPong, map[string]time.Time{"server_time": time.Now().UTC()})
	case EventTyping:
		c.relayTyping(ctx, frame.ConversationID)
	default:
		c.reply(EventError, errorBody("неизвестный тип кадра: "+frame.Type))
	}
}

// relayTyping передаёт собеседнику признак набора текста, если пользователь
// может писать в этот диалог.
func (c *Client) relayTyping(ctx context.Context, conversationID *uuid.UUID) {
	if conversationID == nil {
		c.reply(EventError, errorBody("conversation_id обязателен"))
		return
	}
	resolve := c.hub.typingPeer
	if resolve == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, typingTimeout)
	defer cancel()
	peer, err := resolve(ctx, *conversationID, c.userID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.reply(EventError, errorBody(appErr.Message))
			return
		}
		c.log.WithError(err).Warn("ws: не удалось определить собеседника")
		return
	}

	event := TypingEvent{ConversationID: *conversationID, UserID: c.userID}
	if err := c.hub.BroadcastToUser(peer, EventTyping, event); err != nil {
		c.log.WithError(err).Debug("ws: typing не доставлен")
	}
}

// reply ставит событие в очередь этого соединения. Переполненная очередь
// означает, что клиент не читает: такие ответы отбрасываются.
func (c *Client) reply(event string, data any) {
	raw, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		c.log.WithError(err).Error("ws: не удалось сериализовать ответ")
		return
	}
	select {
	case c.send <- raw:
	default:
		c.log.WithField("event", event).Warn("ws: очередь соединения переполнена, ответ отброшен")
	}
}

// pushEvents отправляет клиенту события из очереди и держит соединение пингами.
func (c *Client) pushEvents(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if r := recover(); r != nil {
			c.log.WithField("stack", string(debug.Stack())).Errorf("ws: panic при отправке: %v", r)
		}
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.WithError(err).Debug("ws: запись не удалась")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}
