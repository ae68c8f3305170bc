package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// AIInteractionRepo реализует repository.AIInteractionRepository с использованием GORM
type AIInteractionRepo struct {
	db *gorm.DB
}

// NewAIInteractionRepo создает новый репозиторий журнала AI-обращений
func NewAIInteractionRepo(db *gorm.DB) *AIInteractionRepo {
	return &AIInteractionRepo{db: db}
}

// Create сохраняет запись об обращении к AI
func (r *AIInteractionRepo) Create(interaction *entity.AIInteraction) error {
	return r.db.Create(interaction).Error
}

// GetByID возвращает запись по ID
func (r *AIInteractionRepo) GetByID(id uint) (*entity.AIInteraction, error) {
	var interaction entity.AIInteraction
	err := r.db.First(&interaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &interaction, nil
}

// ListByUser возвращает последние обращения пользователя; kind может быть пустым
func (r *AIInteractionRepo) ListByUser(userID uint, kind string, limit int) ([]entity.AIInteraction, error) {
	query := r.db.Where("user_id = ?", userID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var items []entity.AIInteraction
	err := query.Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// UpdateRating сохраняет оценку пользователя
func (r *AIInteractionRepo) UpdateRating(id uint, rating int) error {
	result := r.db.Model(&entity.AIInteraction{}).Where("id = ?", id).Update("rating", rating)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
