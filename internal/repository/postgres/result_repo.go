package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// ResultRepo реализует repository.ResultRepository с использованием GORM
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// CreateWithAnswers сохраняет результат и привязывает к нему ответы
// в одной транзакции
func (r *ResultRepo) CreateWithAnswers(result *entity.Result, answers []entity.Answer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].ResultID = &result.ID
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID возвращает результат по ID
func (r *ResultRepo) GetByID(id uint) (*entity.Result, error) {
	var result entity.Result
	err := r.db.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListByUser возвращает результаты пользователя с пагинацией и общим количеством
func (r *ResultRepo) ListByUser(userID uint, limit, offset int) ([]entity.Result, int64, error) {
	var total int64
	if err := r.db.Model(&entity.Result{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []entity.Result
	err := r.db.Where("user_id = ?", userID).
		Order("completed_at DESC").Limit(limit).Offset(offset).
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListByUserSince возвращает результаты начиная с указанной даты,
// по возрастанию времени завершения
func (r *ResultRepo) ListByUserSince(userID uint, since time.Time) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("user_id = ? AND completed_at >= ?", userID, since).
		Order("completed_at ASC").
		Find(&results).Error
	return results, err
}
