package entity

import "time"

// Answer представляет ответ пользователя на вопрос вместе с оценкой
type Answer struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	QuestionID       uint      `gorm:"not null;index" json:"question_id"`
	ResultID         *uint     `gorm:"index" json:"result_id,omitempty"`
	AnswerText       string    `gorm:"type:text;not null" json:"answer_text"`
	IsCorrect        bool      `gorm:"not null;default:false" json:"is_correct"`
	Score            float64   `gorm:"not null;default:0" json:"score"`
	Feedback         string    `gorm:"type:text" json:"feedback,omitempty"`
	TimeTakenSeconds int       `gorm:"not null;default:0" json:"time_taken_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName возвращает имя таблицы в базе данных
func (Answer) TableName() string {
	return "answers"
}
