// Package hub реализует relay-сервер сессий доски: комнаты, участники,
// рассылка операций. Сервер не интерпретирует содержимое операций —
// он лишь доставляет их от автора зрителям в порядке отправки
// (single-writer + упорядоченный транспорт = порядок доставки равен
// причинному порядку, sequence numbers не нужны).
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/tutorlab/liveboard/internal/server/storage"
	"github.com/tutorlab/liveboard/pkg/api"
)

// Role роль участника сессии
type Role string

const (
	// RoleAuthor единственный пишущий участник (преподаватель)
	RoleAuthor Role = "author"
	// RoleViewer читающий участник (ученик)
	RoleViewer Role = "viewer"
)

// Hub управляет комнатами сессий и архивом снапшотов.
// Все операции над комнатами защищены мьютексом: подключения
// обслуживаются конкурентными горутинами чтения/записи.
type Hub struct {
	logger   *slog.Logger
	sessions storage.SessionStorage
	rooms    map[string]*room
	mu       sync.RWMutex
}

// room одна сессия доски: автор и подключенные зрители
type room struct {
	id      string
	author  *Client
	clients map[*Client]bool
}

// New создает новый hub
func New(logger *slog.Logger, sessions storage.SessionStorage) *Hub {
	return &Hub{
		logger:   logger,
		sessions: sessions,
		rooms:    make(map[string]*room),
	}
}

// Join регистрирует участника в комнате его сессии.
// Повторное подключение автора замещает предыдущее авторское соединение
// (типичный случай — реконнект после обрыва, когда старое соединение
// еще не закрыто по таймауту).
func (h *Hub) Join(ctx context.Context, client *Client) {
	h.mu.Lock()
	r, exists := h.rooms[client.sessionID]
	if !exists {
		r = &room{
			id:      client.sessionID,
			clients: make(map[*Client]bool),
		}
		h.rooms[client.sessionID] = r
	}

	var replaced *Client
	if client.role == RoleAuthor {
		replaced = r.author
		if replaced != nil {
			delete(r.clients, replaced)
		}
		r.author = client
	}
	r.clients[client] = true
	h.mu.Unlock()

	if replaced != nil {
		h.logger.Warn("Author connection replaced",
			"session_id", client.sessionID,
			"old_client", replaced.id,
			"new_client", client.id)
		replaced.closeSend()
	}

	h.logger.Info("Client joined session",
		"session_id", client.sessionID,
		"client_id", client.id,
		"role", client.role)

	// Уведомляем остальных участников; автор по peer_joined
	// отправляет свежий снапшот — это единственный механизм
	// сходимости состояния
	h.broadcast(client.sessionID, api.Message{
		Kind:   api.KindPeerJoined,
		PeerID: client.id,
	}, client)

	// Если автор оффлайн, отдаем зрителю архивный снапшот,
	// чтобы перезагрузившийся зритель не остался с пустой доской
	if client.role == RoleViewer {
		h.sendArchivedSnapshot(ctx, client)
		return
	}

	// Автор переподключился к комнате с живыми зрителями: подсказываем
	// ему отправить снапшот, чтобы закрыть пропущенные за время обрыва
	// операции. Путь тот же, что и при обычном подключении зрителя.
	h.mu.RLock()
	hasViewers := false
	if r, ok := h.rooms[client.sessionID]; ok {
		hasViewers = len(r.clients) > 1
	}
	h.mu.RUnlock()

	if hasViewers {
		h.send(client, api.Message{Kind: api.KindPeerJoined})
	}
}

// sendArchivedSnapshot отправляет зрителю последний архивный снапшот,
// если авторское соединение сейчас отсутствует
func (h *Hub) sendArchivedSnapshot(ctx context.Context, client *Client) {
	h.mu.RLock()
	r, exists := h.rooms[client.sessionID]
	authorOnline := exists && r.author != nil
	h.mu.RUnlock()

	if authorOnline {
		return
	}

	elements, err := h.sessions.GetSnapshot(ctx, client.sessionID)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			h.logger.Error("Failed to load archived snapshot",
				"session_id", client.sessionID,
				"error", err)
		}
		return
	}

	h.send(client, api.Message{
		Kind:     api.KindSnapshot,
		Elements: elements,
	})

	h.logger.Info("Sent archived snapshot",
		"session_id", client.sessionID,
		"client_id", client.id,
		"elements", len(elements))
}

// Leave снимает участника с учета и уведомляет остальных
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	r, exists := h.rooms[client.sessionID]
	if exists {
		delete(r.clients, client)
		if r.author == client {
			r.author = nil
		}
		if len(r.clients) == 0 {
			delete(h.rooms, client.sessionID)
		}
	}
	h.mu.Unlock()

	if !exists {
		return
	}

	h.logger.Info("Client left session",
		"session_id", client.sessionID,
		"client_id", client.id)

	h.broadcast(client.sessionID, api.Message{
		Kind:   api.KindPeerLeft,
		PeerID: client.id,
	}, client)
}

// HandleMessage обрабатывает одно входящее сообщение участника.
// Мутирующие операции от не-автора отбрасываются: протокол сам по себе
// не запрещает зрителю писать, поэтому single-writer принудительно
// соблюдается на сервере, а не только соглашением в клиенте.
func (h *Hub) HandleMessage(ctx context.Context, client *Client, raw []byte) {
	var msg api.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("Failed to decode message",
			"session_id", client.sessionID,
			"client_id", client.id,
			"error", err)
		return
	}

	if msg.Kind.Mutating() && client.role != RoleAuthor {
		h.logger.Warn("Dropped mutating message from non-author",
			"session_id", client.sessionID,
			"client_id", client.id,
			"kind", msg.Kind)
		return
	}

	switch msg.Kind {
	case api.KindOpen:
		if err := h.sessions.OpenSession(ctx, client.sessionID); err != nil {
			h.logger.Error("Failed to open session", "session_id", client.sessionID, "error", err)
		}

	case api.KindClose:
		// Явное завершение сессии: помечаем закрытой и убираем архив
		if err := h.sessions.CloseSession(ctx, client.sessionID); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			h.logger.Error("Failed to close session", "session_id", client.sessionID, "error", err)
		}
		if err := h.sessions.DeleteSnapshot(ctx, client.sessionID); err != nil {
			h.logger.Error("Failed to delete snapshot", "session_id", client.sessionID, "error", err)
		}

	case api.KindSnapshot:
		// Архивируем живой снапшот автора для опоздавших зрителей
		if err := h.sessions.SaveSnapshot(ctx, client.sessionID, msg.Elements); err != nil {
			h.logger.Error("Failed to archive snapshot", "session_id", client.sessionID, "error", err)
		}
	}

	// Доставляем операцию остальным участникам в порядке получения
	h.broadcast(client.sessionID, msg, client)

	// После wb_close рассылаем session_end: зрители сворачивают сессию
	// и перестают переподключаться
	if msg.Kind == api.KindClose {
		h.broadcast(client.sessionID, api.Message{Kind: api.KindSessionEnd}, client)
	}
}

// broadcast отправляет сообщение всем участникам комнаты кроме sender
func (h *Hub) broadcast(sessionID string, msg api.Message, sender *Client) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", "kind", msg.Kind, "error", err)
		return
	}

	h.mu.RLock()
	r, exists := h.rooms[sessionID]
	if !exists {
		h.mu.RUnlock()
		return
	}

	receivers := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c != sender {
			receivers = append(receivers, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range receivers {
		c.enqueue(data)
	}
}

// send отправляет сообщение одному участнику
func (h *Hub) send(client *Client, msg api.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", "kind", msg.Kind, "error", err)
		return
	}
	client.enqueue(data)
}
