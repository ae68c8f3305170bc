package entity

import "time"

// Progress агрегирует успеваемость пользователя по теме внутри предмета.
// Уникальность тройки (user_id, subject, topic) обеспечивается индексом.
type Progress struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	UserID             uint        `gorm:"not null;uniqueIndex:idx_user_subject_topic" json:"user_id"`
	Subject            string      `gorm:"size:100;not null;uniqueIndex:idx_user_subject_topic" json:"subject"`
	Topic              string      `gorm:"size:100;not null;uniqueIndex:idx_user_subject_topic" json:"topic"`
	QuestionsAttempted int         `gorm:"not null;default:0" json:"questions_attempted"`
	QuestionsCorrect   int         `gorm:"not null;default:0" json:"questions_correct"`
	TotalScore         float64     `gorm:"not null;default:0" json:"total_score"`
	AverageAccuracy    float64     `gorm:"not null;default:0" json:"average_accuracy"`
	StreakCount        int         `gorm:"not null;default:0" json:"streak_count"`
	BestStreak         int         `gorm:"not null;default:0" json:"best_streak"`
	TotalPoints        int64       `gorm:"not null;default:0" json:"total_points"`
	Level              int         `gorm:"not null;default:1" json:"level"`
	Badges             StringArray `gorm:"type:jsonb" json:"badges,omitempty"`
	StudyTimeMinutes   int         `gorm:"not null;default:0" json:"study_time_minutes"`
	LastActivity       time.Time   `json:"last_activity"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Accuracy возвращает текущую точность в процентах
func (p *Progress) Accuracy() float64 {
	if p.QuestionsAttempted == 0 {
		return 0
	}
	return float64(p.QuestionsCorrect) / float64(p.QuestionsAttempted) * 100
}

// RecordExam обновляет прогресс по итогам сдачи.
// Серия растет при результате от 70 процентов, иначе сбрасывается.
func (p *Progress) RecordExam(questions, correct int, score float64, percentage float64) {
	p.QuestionsAttempted += questions
	p.QuestionsCorrect += correct
	p.TotalScore += score
	p.AverageAccuracy = p.Accuracy()

	if percentage >= 70 {
		p.StreakCount++
		if p.StreakCount > p.BestStreak {
			p.BestStreak = p.StreakCount
		}
	} else {
		p.StreakCount = 0
	}

	p.TotalPoints += int64(score * 10)
	p.Level = int(p.TotalPoints/1000) + 1
	p.LastActivity = time.Now()
}

// TableName возвращает имя таблицы в базе данных
func (Progress) TableName() string {
	return "progress"
}
