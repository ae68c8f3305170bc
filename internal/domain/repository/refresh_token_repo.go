package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// RefreshTokenRepository определяет методы для работы с refresh-сессиями
type RefreshTokenRepository interface {
	Create(token *entity.RefreshToken) error
	GetByHash(tokenHash string) (*entity.RefreshToken, error)
	Update(token *entity.RefreshToken) error
	// RevokeAllByUser отзывает все живые сессии пользователя, возвращает их число
	RevokeAllByUser(userID uint, reason string) (int64, error)
	// ListActiveByUser возвращает живые сессии пользователя
	ListActiveByUser(userID uint) ([]entity.RefreshToken, error)
	// DeleteExpired удаляет давно истекшие сессии, возвращает число удаленных
	DeleteExpired() (int64, error)
}
