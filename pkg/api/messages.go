package api

import "github.com/tutorlab/liveboard/internal/models"

// Kind определяет тип сообщения в канале синхронизации доски
type Kind string

const (
	// KindOpen автор сигнализирует, что доска активна
	KindOpen Kind = "wb_open"
	// KindClose автор сигнализирует, что сессия доски завершена
	KindClose Kind = "wb_close"
	// KindAdd один зафиксированный элемент добавлен на доску
	KindAdd Kind = "wb_add"
	// KindDelete элемент удален с доски (по ID)
	KindDelete Kind = "wb_delete"
	// KindClear доска полностью очищена
	KindClear Kind = "wb_clear"
	// KindSnapshot полный список элементов для догоняющей синхронизации
	KindSnapshot Kind = "wb_snapshot"
	// KindPeerJoined уведомление о подключении участника к сессии
	KindPeerJoined Kind = "peer_joined"
	// KindPeerLeft уведомление об отключении участника от сессии
	KindPeerLeft Kind = "peer_left"
	// KindSessionEnd уведомление о завершении сессии (teardown у зрителей)
	KindSessionEnd Kind = "session_end"
)

// Mutating возвращает true для операций, изменяющих состояние доски.
// Такие сообщения может отправлять только автор (single-writer model).
func (k Kind) Mutating() bool {
	switch k {
	case KindAdd, KindDelete, KindClear, KindSnapshot, KindOpen, KindClose:
		return true
	}
	return false
}

// Message представляет одно сообщение канала синхронизации.
// Поля Element/ElementID/Elements заполняются в зависимости от Kind.
type Message struct {
	Kind      Kind                    `json:"kind"`
	Element   *models.DrawingElement  `json:"element,omitempty"`    // для wb_add
	ElementID string                  `json:"element_id,omitempty"` // для wb_delete
	Elements  []models.DrawingElement `json:"elements,omitempty"`   // для wb_snapshot
	PeerID    string                  `json:"peer_id,omitempty"`    // для peer_joined/peer_left
}

// UploadResponse представляет ответ сервера на загрузку изображения
type UploadResponse struct {
	URL string `json:"url"`
}

// ErrorResponse представляет ответ сервера с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
