package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/goroutine"
	"github.com/ignatzorin/tokenbid-backend/internal/logger"
)

// Hub управляет всеми WebSocket клиентами.
// Хаб только доставляет события: уведомления сохраняются сервисами
// в транзакции операции ещё до отправки.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	typingPeer TypingResolver
	log        *logrus.Entry
}

// TypingResolver возвращает собеседника по диалогу или ошибку, если
// пользователь не может писать в этот диалог.
type TypingResolver func(ctx context.Context, conversationID, userID uuid.UUID) (uuid.UUID, error)

type message struct {
	userID  uuid.UUID
	payload []byte
}

// Envelope формат сообщения для клиента: "type" содержит имя события,
// "data" полезную нагрузку.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		log:        logger.Component("ws"),
	}
}

// Run запускает главный цикл хаба до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// SetTypingResolver включает пересылку кадров typing. Вызывается до приёма соединений.
func (h *Hub) SetTypingResolver(resolve TypingResolver) {
	h.typingPeer = resolve
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser ставит событие в очередь на отправку всем соединениям пользователя.
// Не блокирует: при переполненной очереди событие отбрасывается с ошибкой.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- message{userID: userID, payload: raw}:
		return nil
	default:
		return fmt.Errorf("ws: очередь отправки переполнена")
	}
}

func (h *Hub) online(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
	h.log.WithField("user_id", client.userID).Debugf("ws: подключение, активных: %d", len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// медленный клиент: закрываем вне цикла хаба, Close вызывает Unregister
			h.log.WithField("user_id", userID).Warn("ws: буфер клиента переполнен, соединение закрывается")
			c := client
			goroutine.SafeGo(c.Close)
		}
	}
}
