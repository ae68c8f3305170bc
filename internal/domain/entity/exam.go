package entity

import "time"

// Exam представляет набор вопросов, собранный пользователем или преподавателем
type Exam struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Title            string    `gorm:"size:200;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	Subject          string    `gorm:"size:100;not null;index" json:"subject"`
	Difficulty       string    `gorm:"size:20;not null;default:medium" json:"difficulty"`
	TotalQuestions   int       `gorm:"not null;default:0" json:"total_questions"`
	TotalPoints      int       `gorm:"not null;default:0" json:"total_points"`
	TimeLimitMinutes int       `gorm:"not null;default:0" json:"time_limit_minutes"`
	IsPublished      bool      `gorm:"not null;default:false" json:"is_published"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName возвращает имя таблицы в базе данных
func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion связывает экзамен с вопросом и задает порядок
type ExamQuestion struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ExamID     uint `gorm:"not null;index;uniqueIndex:idx_exam_question" json:"exam_id"`
	QuestionID uint `gorm:"not null;index;uniqueIndex:idx_exam_question" json:"question_id"`
	Position   int  `gorm:"not null;default:0" json:"position"`
	Points     int  `gorm:"not null;default:1" json:"points"`
}

// TableName возвращает имя таблицы в базе данных
func (ExamQuestion) TableName() string {
	return "exam_questions"
}
