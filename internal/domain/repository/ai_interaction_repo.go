package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// AIInteractionRepository определяет методы для журнала обращений к AI
type AIInteractionRepository interface {
	Create(interaction *entity.AIInteraction) error
	GetByID(id uint) (*entity.AIInteraction, error)
	// ListByUser возвращает последние обращения пользователя; kind может быть пустым
	ListByUser(userID uint, kind string, limit int) ([]entity.AIInteraction, error)
	UpdateRating(id uint, rating int) error
}
