package realtime

import (
	"context"
	"sync"

	"guardian-server/internal/interfaces"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var _ interfaces.Broadcaster = (*Hub)(nil)

// Client - одно websocket соединение подписчика ленты.
type Client struct {
	ID   string
	Conn *websocket.Conn
	send chan []byte
}

// Hub управляет подключенными клиентами и рассылает им сообщения.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewHub создает хаб. Цикл обработки запускается через Run.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "RealtimeHub").Logger(),
	}
}

// Run обрабатывает регистрацию и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("Realtime hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info().Msg("Realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Str("clientID", client.ID).Int("clients", total).Msg("Client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug().Str("clientID", client.ID).Msg("Client unregistered")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Медленный клиент: отключаем, чтобы не держать рассылку
					h.logger.Warn().Str("clientID", client.ID).Msg("Send queue full, dropping client")
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast ставит сообщение в очередь рассылки. Не блокирует при переполненной очереди.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Int("messageSize", len(message)).Msg("Broadcast queue full, message dropped")
	}
}

// ClientCount возвращает число подключенных клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// registerClient возвращает false, если хаб уже остановлен.
func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
