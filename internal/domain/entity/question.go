package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Типы вопросов
const (
	QuestionTypeMCQ   = "mcq"
	QuestionTypeShort = "short_answer"
	QuestionTypeLong  = "long_answer"
)

// Уровни сложности
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// StringArray представляет массив строк, хранящийся в JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// MCQOption представляет вариант ответа в вопросе с выбором
type MCQOption struct {
	OptionID  string `json:"option_id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// MCQOptionList представляет список вариантов, хранящийся в JSONB
type MCQOptionList []MCQOption

// Scan реализует интерфейс sql.Scanner
func (o *MCQOptionList) Scan(value interface{}) error {
	if value == nil {
		*o = MCQOptionList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer
func (o MCQOptionList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Question представляет учебный вопрос
type Question struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Text          string        `gorm:"size:2000;not null" json:"text"`
	Type          string        `gorm:"size:20;not null;index" json:"type"`
	Subject       string        `gorm:"size:100;not null;index" json:"subject"`
	Topic         string        `gorm:"size:100;index" json:"topic"`
	Difficulty    string        `gorm:"size:20;not null;default:medium" json:"difficulty"`
	Options       MCQOptionList `gorm:"type:jsonb" json:"options,omitempty"`
	CorrectAnswer string        `gorm:"size:2000" json:"correct_answer,omitempty"`
	Explanation   string        `gorm:"type:text" json:"explanation,omitempty"`
	Points        int           `gorm:"not null;default:1" json:"points"`
	Tags          StringArray   `gorm:"type:jsonb" json:"tags,omitempty"`
	CreatedBy     uint          `gorm:"index" json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsMCQ проверяет, является ли вопрос вопросом с выбором ответа
func (q *Question) IsMCQ() bool {
	return q.Type == QuestionTypeMCQ
}

// CorrectOption возвращает правильный вариант для MCQ-вопроса
func (q *Question) CorrectOption() (MCQOption, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return MCQOption{}, false
}

// CorrectOptionID возвращает идентификатор правильного варианта (буква A-D)
// с приоритетом списка вариантов над полем correct_answer
func (q *Question) CorrectOptionID() string {
	if opt, ok := q.CorrectOption(); ok {
		return strings.ToUpper(opt.OptionID)
	}
	return strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
}

// IsCorrectAnswer проверяет MCQ-ответ локально, без обращения к AI.
// Сравнение букв регистронезависимое.
func (q *Question) IsCorrectAnswer(answer string) bool {
	if !q.IsMCQ() {
		return false
	}
	given := strings.ToUpper(strings.TrimSpace(answer))
	return given != "" && given == q.CorrectOptionID()
}

// IsValidType проверяет корректность типа вопроса
func IsValidQuestionType(t string) bool {
	return t == QuestionTypeMCQ || t == QuestionTypeShort || t == QuestionTypeLong
}

// IsValidDifficulty проверяет корректность уровня сложности
func IsValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// TableName возвращает имя таблицы в базе данных
func (Question) TableName() string {
	return "questions"
}
