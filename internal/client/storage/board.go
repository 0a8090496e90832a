package storage

import (
	"context"

	"github.com/tutorlab/liveboard/internal/models"
)

// BoardStorage defines interface for durable client-side board persistence.
// Последний известный список элементов хранится под ключом сессии,
// читается при монтировании доски и перезаписывается при каждой мутации.
// Очищается при явном завершении сессии.
type BoardStorage interface {
	// SaveElements сохраняет полный список элементов сессии
	SaveElements(ctx context.Context, sessionID string, elements []models.DrawingElement) error

	// LoadElements возвращает последний сохраненный список элементов сессии.
	// Возвращает ErrBoardNotFound, если для сессии ничего не сохранено.
	LoadElements(ctx context.Context, sessionID string) ([]models.DrawingElement, error)

	// ClearSession удаляет сохраненное состояние сессии
	ClearSession(ctx context.Context, sessionID string) error
}
