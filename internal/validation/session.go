package validation

import (
	"fmt"
	"regexp"
)

// SessionIDPattern определяет допустимый формат идентификатора сессии
// Только латинские буквы (a-z, A-Z), цифры (0-9), дефис (-), нижнее подчеркивание (_)
// Длина: 3-64 символа
var SessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

// ColorPattern допустимый формат цвета: #rrggbb
var ColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const (
	// MinSessionIDLen минимальная длина идентификатора сессии
	MinSessionIDLen = 3
	// MaxSessionIDLen максимальная длина идентификатора сессии
	MaxSessionIDLen = 64
)

// ValidateSessionID проверяет, что идентификатор сессии соответствует требованиям
// Формат: латинские буквы (a-z, A-Z), цифры (0-9), дефис (-), нижнее подчеркивание (_)
// Длина: 3-64 символа
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	if len(sessionID) < MinSessionIDLen {
		return fmt.Errorf("session id must be at least %d characters long", MinSessionIDLen)
	}

	if len(sessionID) > MaxSessionIDLen {
		return fmt.Errorf("session id must not exceed %d characters", MaxSessionIDLen)
	}

	if !SessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("session id can only contain letters (a-z, A-Z), numbers (0-9), hyphens (-), and underscores (_)")
	}

	return nil
}

// ValidateColor проверяет, что цвет задан в формате #rrggbb
func ValidateColor(color string) error {
	if color == "" {
		return fmt.Errorf("color cannot be empty")
	}

	if !ColorPattern.MatchString(color) {
		return fmt.Errorf("color must be in #rrggbb format")
	}

	return nil
}
