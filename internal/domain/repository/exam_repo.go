package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// ExamRepository определяет методы для работы с экзаменами
type ExamRepository interface {
	Create(exam *entity.Exam, questions []entity.ExamQuestion) error
	GetByID(id uint) (*entity.Exam, error)
	// GetQuestions возвращает вопросы экзамена в заданном порядке
	GetQuestions(examID uint) ([]entity.Question, error)
	ListByUser(userID uint, limit, offset int) ([]entity.Exam, int64, error)
	Delete(id uint) error
}
