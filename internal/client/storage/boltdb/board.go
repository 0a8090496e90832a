package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/tutorlab/liveboard/internal/client/storage"
	"github.com/tutorlab/liveboard/internal/models"
)

// SaveElements stores the full element list for a session
// Перезаписывает предыдущее состояние целиком: доска небольшая,
// а полная перезапись гарантирует согласованность после любой мутации
func (s *Storage) SaveElements(ctx context.Context, sessionID string, elements []models.DrawingElement) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		// Сериализуем список элементов в JSON
		data, err := json.Marshal(elements)
		if err != nil {
			return fmt.Errorf("failed to marshal elements: %w", err)
		}

		// Сохраняем по ключу сессии
		if err := bucket.Put([]byte(sessionID), data); err != nil {
			return fmt.Errorf("failed to save board state: %w", err)
		}

		return nil
	})
}

// LoadElements retrieves the last saved element list for a session
func (s *Storage) LoadElements(ctx context.Context, sessionID string) ([]models.DrawingElement, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var elements []models.DrawingElement

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		// Получаем данные по ключу сессии
		data := bucket.Get([]byte(sessionID))
		if data == nil {
			return storage.ErrBoardNotFound
		}

		// Десериализуем
		if err := json.Unmarshal(data, &elements); err != nil {
			return fmt.Errorf("failed to unmarshal elements: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return elements, nil
}

// ClearSession removes the saved board state for a session
// Вызывается при явном завершении сессии
func (s *Storage) ClearSession(ctx context.Context, sessionID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBoards)
		if bucket == nil {
			return fmt.Errorf("boards bucket not found")
		}

		if err := bucket.Delete([]byte(sessionID)); err != nil {
			return fmt.Errorf("failed to clear board state: %w", err)
		}

		return nil
	})
}
