package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с ответами пользователей
type AnswerRepository interface {
	Create(answer *entity.Answer) error
	CreateBatch(answers []entity.Answer) error
	ListByUser(userID uint, limit, offset int) ([]entity.Answer, error)
	ListByResult(resultID uint) ([]entity.Answer, error)
	// GetQuestionStats агрегирует статистику ответов по вопросу
	GetQuestionStats(questionID uint) (*QuestionStats, error)
}
