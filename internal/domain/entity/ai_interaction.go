package entity

import "time"

// Виды обращений к AI-сервису
const (
	InteractionKindGeneration = "generation"
	InteractionKindEvaluation = "evaluation"
	InteractionKindAssistant  = "assistant"
)

// AIInteraction сохраняет обращение к AI-сервису для истории и обратной связи
type AIInteraction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Kind      string    `gorm:"size:20;not null;index" json:"kind"`
	Subject   string    `gorm:"size:100" json:"subject,omitempty"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text" json:"response"`
	Model     string    `gorm:"size:100" json:"model,omitempty"`
	LatencyMs int64     `gorm:"not null;default:0" json:"latency_ms"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName возвращает имя таблицы в базе данных
func (AIInteraction) TableName() string {
	return "ai_interactions"
}
