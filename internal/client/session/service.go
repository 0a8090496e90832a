// Package session связывает машину состояний доски, канал синхронизации
// и локальное хранилище в один сервис живой сессии урока.
//
// Для каждой операции есть ровно один путь применения, общий для
// локального и удаленного источника (методы доски); сервис лишь
// транслирует результаты в сеть и в durable-хранилище.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tutorlab/liveboard/internal/board"
	"github.com/tutorlab/liveboard/internal/client/storage"
	"github.com/tutorlab/liveboard/internal/client/ws"
	"github.com/tutorlab/liveboard/pkg/api"
)

// Sender отправляет сообщения в канал синхронизации
type Sender interface {
	Send(msg api.Message) error
}

// Service обслуживает одну живую сессию доски одного участника
type Service struct {
	logger    *slog.Logger
	board     *board.Board
	channel   Sender
	store     storage.BoardStorage
	sessionID string
	role      ws.Role

	// onSessionEnd вызывается у зрителя при завершении сессии автором
	onSessionEnd func()

	mu    sync.Mutex
	ended bool
}

// Config параметры сервиса сессии
type Config struct {
	SessionID string
	Role      ws.Role
	Board     *board.Board
	Channel   Sender
	Storage   storage.BoardStorage
	// OnSessionEnd опциональный callback завершения сессии
	// (зритель сворачивает доску)
	OnSessionEnd func()
}

// NewService создает сервис сессии
func NewService(logger *slog.Logger, cfg Config) *Service {
	return &Service{
		logger:       logger,
		board:        cfg.Board,
		channel:      cfg.Channel,
		store:        cfg.Storage,
		sessionID:    cfg.SessionID,
		role:         cfg.Role,
		onSessionEnd: cfg.OnSessionEnd,
	}
}

// Restore восстанавливает последнее известное состояние доски из
// локального хранилища. Отсутствие сохраненного состояния — не ошибка,
// сессия просто начинается с чистой доски.
func (s *Service) Restore(ctx context.Context) error {
	elements, err := s.store.LoadElements(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrBoardNotFound) {
			return nil
		}
		return fmt.Errorf("failed to restore board state: %w", err)
	}

	s.mu.Lock()
	s.board.ApplySnapshot(elements)
	s.mu.Unlock()

	s.logger.Info("Board state restored",
		"session_id", s.sessionID,
		"elements", len(elements))
	return nil
}

// HandleEvent применяет локальное событие автора и рассылает
// порожденные операции участникам. Локальное применение немедленное
// и оптимистичное: сеть — fire-and-forget.
func (s *Service) HandleEvent(ctx context.Context, ev board.Event) error {
	if s.role != ws.RoleAuthor {
		return ws.ErrNotAuthor
	}

	s.mu.Lock()
	ops := s.board.Apply(ev)
	s.mu.Unlock()

	for _, op := range ops {
		s.sendOp(op)
	}

	if len(ops) > 0 {
		s.persist(ctx)
	}

	return nil
}

// sendOp транслирует операцию доски в сообщение канала.
// Соответствие обязано быть точным: undo операции add уходит как
// delete того же элемента, undo операции delete — как add
// восстановленного элемента. Иначе состояние зрителей необратимо
// разойдется с авторским — периодической сверки кроме снапшота
// при подключении нет.
func (s *Service) sendOp(op board.Op) {
	var msg api.Message

	switch op.Kind {
	case board.OpAdd:
		msg = api.Message{Kind: api.KindAdd, Element: op.Element}
	case board.OpDelete:
		msg = api.Message{Kind: api.KindDelete, ElementID: op.ID}
	case board.OpClear:
		msg = api.Message{Kind: api.KindClear}
	default:
		return
	}

	if err := s.channel.Send(msg); err != nil {
		// Ошибка отправки не трогает локальное состояние: автор —
		// источник истины, зрители догонят через снапшот
		s.logger.Warn("Failed to send operation", "kind", msg.Kind, "error", err)
	}
}

// HandleMessage обрабатывает входящее сообщение канала синхронизации
func (s *Service) HandleMessage(ctx context.Context, msg api.Message) {
	switch msg.Kind {
	case api.KindPeerJoined:
		// Подключившийся участник получает полный снапшот — это
		// единственный механизм сходимости состояния, в том числе
		// после реконнекта зрителя
		if s.role == ws.RoleAuthor {
			s.sendSnapshot(msg.PeerID)
		}

	case api.KindPeerLeft:
		s.logger.Info("Peer left", "session_id", s.sessionID, "peer_id", msg.PeerID)

	case api.KindAdd:
		if s.role == ws.RoleAuthor || msg.Element == nil {
			return
		}
		s.mu.Lock()
		s.board.ApplyRemoteAdd(*msg.Element)
		s.mu.Unlock()
		s.persist(ctx)

	case api.KindDelete:
		if s.role == ws.RoleAuthor {
			return
		}
		s.mu.Lock()
		s.board.ApplyRemoteDelete(msg.ElementID)
		s.mu.Unlock()
		s.persist(ctx)

	case api.KindClear:
		if s.role == ws.RoleAuthor {
			return
		}
		s.mu.Lock()
		s.board.ApplyRemoteClear()
		s.mu.Unlock()
		s.persist(ctx)

	case api.KindSnapshot:
		if s.role == ws.RoleAuthor {
			return
		}
		s.mu.Lock()
		s.board.ApplySnapshot(msg.Elements)
		s.mu.Unlock()
		s.persist(ctx)
		s.logger.Info("Snapshot applied",
			"session_id", s.sessionID,
			"elements", len(msg.Elements))

	case api.KindOpen:
		s.logger.Info("Whiteboard opened", "session_id", s.sessionID)

	case api.KindClose, api.KindSessionEnd:
		// Автор завершил сессию: очищаем локальное состояние
		// и сворачиваем доску
		s.teardown(ctx)
	}
}

// sendSnapshot отправляет полный список элементов доски
func (s *Service) sendSnapshot(peerID string) {
	s.mu.Lock()
	elements := s.board.Elements()
	s.mu.Unlock()

	if err := s.channel.Send(api.Message{
		Kind:     api.KindSnapshot,
		Elements: elements,
	}); err != nil {
		s.logger.Warn("Failed to send snapshot", "error", err)
		return
	}

	s.logger.Info("Snapshot sent",
		"session_id", s.sessionID,
		"peer_id", peerID,
		"elements", len(elements))
}

// End явно завершает сессию на авторской стороне: уведомляет зрителей
// и очищает локальное состояние
func (s *Service) End(ctx context.Context) error {
	if s.role != ws.RoleAuthor {
		return ws.ErrNotAuthor
	}

	if err := s.channel.Send(api.Message{Kind: api.KindClose}); err != nil {
		s.logger.Warn("Failed to send close", "error", err)
	}

	s.teardown(ctx)
	return nil
}

// Ended сообщает, завершена ли сессия
func (s *Service) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// teardown очищает сохраненное состояние сессии; выполняется один раз
func (s *Service) teardown(ctx context.Context) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	if err := s.store.ClearSession(ctx, s.sessionID); err != nil {
		s.logger.Warn("Failed to clear stored session", "session_id", s.sessionID, "error", err)
	}

	s.logger.Info("Session ended", "session_id", s.sessionID)

	if s.onSessionEnd != nil {
		s.onSessionEnd()
	}
}

// persist сохраняет текущее состояние доски в локальное хранилище.
// Ошибка записи логируется, но не прерывает рисование: хранилище —
// это только восстановление после перезагрузки страницы.
func (s *Service) persist(ctx context.Context) {
	s.mu.Lock()
	elements := s.board.Elements()
	s.mu.Unlock()

	if err := s.store.SaveElements(ctx, s.sessionID, elements); err != nil {
		s.logger.Warn("Failed to persist board state",
			"session_id", s.sessionID,
			"error", err)
	}
}
