package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// QuestionFilter описывает параметры поиска вопросов
type QuestionFilter struct {
	Subject    string
	Topic      string
	Difficulty string
	Type       string
	Tags       []string
	CreatedBy  uint
	Query      string
}

// QuestionStats агрегирует статистику ответов по вопросу
type QuestionStats struct {
	QuestionID     uint    `json:"question_id"`
	TotalAttempts  int64   `json:"total_attempts"`
	CorrectCount   int64   `json:"correct_count"`
	Accuracy       float64 `json:"accuracy"`
	AverageScore   float64 `json:"average_score"`
	AverageTimeSec float64 `json:"average_time_seconds"`
}

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(question *entity.Question) error
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	GetByIDs(ids []uint) ([]entity.Question, error)
	// Search возвращает страницу вопросов по фильтру и общее количество
	Search(filter QuestionFilter, limit, offset int) ([]entity.Question, int64, error)
	Update(question *entity.Question) error
	Delete(id uint) error
}
