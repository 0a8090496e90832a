package storage

import (
	"context"
	"time"

	"github.com/tutorlab/liveboard/internal/models"
)

// SessionStatus статус сессии доски на стороне relay-сервера
type SessionStatus string

const (
	// StatusOpen автор объявил доску активной (wb_open)
	StatusOpen SessionStatus = "open"
	// StatusClosed сессия явно завершена автором (wb_close)
	StatusClosed SessionStatus = "closed"
)

// Session представляет запись о сессии доски
type Session struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Status    SessionStatus
}

// SessionStorage defines interface for the server-side session registry
// and snapshot archive. Архив снапшотов позволяет отдать опоздавшему
// зрителю последнее известное состояние доски, даже если автор сейчас
// оффлайн; живой снапшот автора всегда перезаписывает архивный.
type SessionStorage interface {
	// OpenSession создает или переоткрывает сессию
	OpenSession(ctx context.Context, sessionID string) error

	// CloseSession помечает сессию завершенной
	// Возвращает ErrSessionNotFound, если сессия не существует
	CloseSession(ctx context.Context, sessionID string) error

	// GetSession возвращает запись о сессии
	// Возвращает ErrSessionNotFound, если сессия не существует
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// SaveSnapshot сохраняет последний снапшот элементов сессии
	SaveSnapshot(ctx context.Context, sessionID string, elements []models.DrawingElement) error

	// GetSnapshot возвращает последний сохраненный снапшот сессии
	// Возвращает ErrSnapshotNotFound, если снапшот не сохранялся
	GetSnapshot(ctx context.Context, sessionID string) ([]models.DrawingElement, error)

	// DeleteSnapshot удаляет архивный снапшот сессии
	DeleteSnapshot(ctx context.Context, sessionID string) error
}
