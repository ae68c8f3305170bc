package entity

import "time"

// Result представляет итог сдачи экзамена или набора вопросов
type Result struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UserID           uint        `gorm:"not null;index" json:"user_id"`
	ExamID           *uint       `gorm:"index" json:"exam_id,omitempty"`
	Subject          string      `gorm:"size:100;not null;index" json:"subject"`
	Difficulty       string      `gorm:"size:20" json:"difficulty,omitempty"`
	TotalQuestions   int         `gorm:"not null;default:0" json:"total_questions"`
	CorrectAnswers   int         `gorm:"not null;default:0" json:"correct_answers"`
	TotalScore       float64     `gorm:"not null;default:0" json:"total_score"`
	MaxScore         float64     `gorm:"not null;default:0" json:"max_score"`
	Percentage       float64     `gorm:"not null;default:0" json:"percentage"`
	TimeTakenMinutes int         `gorm:"not null;default:0" json:"time_taken_minutes"`
	TopicsCovered    StringArray `gorm:"type:jsonb" json:"topics_covered,omitempty"`
	Strengths        StringArray `gorm:"type:jsonb" json:"strengths,omitempty"`
	Weaknesses       StringArray `gorm:"type:jsonb" json:"weaknesses,omitempty"`
	Feedback         string      `gorm:"type:text" json:"feedback,omitempty"`
	CompletedAt      time.Time   `gorm:"not null;index" json:"completed_at"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Passed проверяет, пройден ли порог в 70 процентов
func (r *Result) Passed() bool {
	return r.Percentage >= 70
}

// TableName возвращает имя таблицы в базе данных
func (Result) TableName() string {
	return "results"
}
