package postgres

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository с использованием GORM
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByIDs возвращает вопросы по списку идентификаторов
func (r *QuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

// Search возвращает страницу вопросов по фильтру вместе с общим количеством
func (r *QuestionRepo) Search(filter repository.QuestionFilter, limit, offset int) ([]entity.Question, int64, error) {
	query := r.applyFilter(r.db.Model(&entity.Question{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []entity.Question
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&questions).Error
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (r *QuestionRepo) applyFilter(query *gorm.DB, filter repository.QuestionFilter) *gorm.DB {
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Topic != "" {
		query = query.Where("topic = ?", filter.Topic)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.CreatedBy != 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Query != "" {
		query = query.Where("text ILIKE ?", "%"+filter.Query+"%")
	}
	// Вопрос должен содержать каждый из запрошенных тегов
	for _, tag := range filter.Tags {
		tagJSON, err := json.Marshal([]string{tag})
		if err != nil {
			continue
		}
		query = query.Where("tags @> ?", string(tagJSON))
	}
	return query
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(question *entity.Question) error {
	result := r.db.Save(question)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
