package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
)

// AnswerRepo реализует repository.AnswerRepository с использованием GORM
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Create сохраняет ответ пользователя
func (r *AnswerRepo) Create(answer *entity.Answer) error {
	return r.db.Create(answer).Error
}

// CreateBatch сохраняет пакет ответов в одной транзакции
func (r *AnswerRepo) CreateBatch(answers []entity.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range answers {
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByUser возвращает последние ответы пользователя
func (r *AnswerRepo) ListByUser(userID uint, limit, offset int) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&answers).Error
	return answers, err
}

// ListByResult возвращает ответы, относящиеся к результату сдачи
func (r *AnswerRepo) ListByResult(resultID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("result_id = ?", resultID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

// GetQuestionStats агрегирует статистику ответов по вопросу
func (r *AnswerRepo) GetQuestionStats(questionID uint) (*repository.QuestionStats, error) {
	var row struct {
		TotalAttempts  int64
		CorrectCount   int64
		AverageScore   float64
		AverageTimeSec float64
	}

	err := r.db.Model(&entity.Answer{}).
		Select("COUNT(*) AS total_attempts, "+
			"COUNT(*) FILTER (WHERE is_correct) AS correct_count, "+
			"COALESCE(AVG(score), 0) AS average_score, "+
			"COALESCE(AVG(time_taken_seconds), 0) AS average_time_sec").
		Where("question_id = ?", questionID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &repository.QuestionStats{
		QuestionID:     questionID,
		TotalAttempts:  row.TotalAttempts,
		CorrectCount:   row.CorrectCount,
		AverageScore:   row.AverageScore,
		AverageTimeSec: row.AverageTimeSec,
	}
	if row.TotalAttempts > 0 {
		stats.Accuracy = float64(row.CorrectCount) / float64(row.TotalAttempts) * 100
	}
	return stats, nil
}
