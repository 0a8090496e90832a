package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tutorlab/liveboard/internal/models"
	"github.com/tutorlab/liveboard/internal/server/storage"
)

// OpenSession creates the session record or reopens an existing one
func (s *Storage) OpenSession(ctx context.Context, sessionID string) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO sessions (id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, sessionID, storage.StatusOpen, now, now)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	return nil
}

// CloseSession marks the session as closed
func (s *Storage) CloseSession(ctx context.Context, sessionID string) error {
	query := `
		UPDATE sessions
		SET status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, storage.StatusClosed, time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

// GetSession retrieves a session record by ID
func (s *Storage) GetSession(ctx context.Context, sessionID string) (*storage.Session, error) {
	query := `
		SELECT id, status, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	session := &storage.Session{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.Status,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return session, nil
}

// SaveSnapshot stores the latest element snapshot for a session
// Сессия создается неявно, если автор прислал снапшот до wb_open
func (s *Storage) SaveSnapshot(ctx context.Context, sessionID string, elements []models.DrawingElement) error {
	if err := s.OpenSession(ctx, sessionID); err != nil {
		return err
	}

	// Сериализуем список элементов в JSON
	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("failed to marshal elements: %w", err)
	}

	query := `
		INSERT INTO snapshots (session_id, elements, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET elements = excluded.elements, updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, sessionID, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves the latest archived snapshot for a session
func (s *Storage) GetSnapshot(ctx context.Context, sessionID string) ([]models.DrawingElement, error) {
	query := `
		SELECT elements
		FROM snapshots
		WHERE session_id = ?
	`

	var data string
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var elements []models.DrawingElement
	if err := json.Unmarshal([]byte(data), &elements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal elements: %w", err)
	}

	return elements, nil
}

// DeleteSnapshot removes the archived snapshot for a session
func (s *Storage) DeleteSnapshot(ctx context.Context, sessionID string) error {
	query := `DELETE FROM snapshots WHERE session_id = ?`

	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
