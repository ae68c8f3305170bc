package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// ExamRepo реализует repository.ExamRepository с использованием GORM
type ExamRepo struct {
	db *gorm.DB
}

// NewExamRepo создает новый репозиторий экзаменов
func NewExamRepo(db *gorm.DB) *ExamRepo {
	return &ExamRepo{db: db}
}

// Create создает экзамен вместе со связками вопросов в одной транзакции
func (r *ExamRepo) Create(exam *entity.Exam, questions []entity.ExamQuestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(exam).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ExamID = exam.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID возвращает экзамен по ID
func (r *ExamRepo) GetByID(id uint) (*entity.Exam, error) {
	var exam entity.Exam
	err := r.db.First(&exam, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// GetQuestions возвращает вопросы экзамена в заданном порядке
func (r *ExamRepo) GetQuestions(examID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.
		Joins("JOIN exam_questions eq ON eq.question_id = questions.id").
		Where("eq.exam_id = ?", examID).
		Order("eq.position ASC").
		Find(&questions).Error
	return questions, err
}

// ListByUser возвращает экзамены пользователя с пагинацией и общим количеством
func (r *ExamRepo) ListByUser(userID uint, limit, offset int) ([]entity.Exam, int64, error) {
	var total int64
	if err := r.db.Model(&entity.Exam{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exams []entity.Exam
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&exams).Error
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// Delete удаляет экзамен вместе со связками вопросов
func (r *ExamRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", id).Delete(&entity.ExamQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Exam{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
