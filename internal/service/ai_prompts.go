package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// GenerationParams описывает запрос на генерацию вопросов
type GenerationParams struct {
	Subject      string
	Topic        string
	Difficulty   string
	QuestionType string
	Count        int
	Context      string
}

// AnswerEvaluation представляет разобранный ответ модели на запрос оценки
type AnswerEvaluation struct {
	Score               float64  `json:"score"`
	IsCorrect           bool     `json:"is_correct"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths,omitempty"`
	Improvements        []string `json:"improvements,omitempty"`
	PartialCreditReason string   `json:"partial_credit_reason,omitempty"`
}

// BuildGenerationPrompt собирает промпт генерации вопросов для заданного типа
func BuildGenerationPrompt(p GenerationParams) string {
	var sb strings.Builder

	switch p.QuestionType {
	case entity.QuestionTypeMCQ:
		fmt.Fprintf(&sb, "Generate %d multiple choice questions about %s", p.Count, p.Subject)
		if p.Topic != "" {
			fmt.Fprintf(&sb, " (topic: %s)", p.Topic)
		}
		fmt.Fprintf(&sb, " at %s difficulty level.\n", p.Difficulty)
		sb.WriteString("Each question must have exactly 4 options with option_id letters A, B, C, D and exactly one correct option.\n")
	case entity.QuestionTypeShort:
		fmt.Fprintf(&sb, "Generate %d short answer questions about %s", p.Count, p.Subject)
		if p.Topic != "" {
			fmt.Fprintf(&sb, " (topic: %s)", p.Topic)
		}
		fmt.Fprintf(&sb, " at %s difficulty level.\n", p.Difficulty)
		sb.WriteString("Each question should be answerable in one or two sentences. Set options to an empty array.\n")
	default:
		fmt.Fprintf(&sb, "Generate %d long answer (essay) questions about %s", p.Count, p.Subject)
		if p.Topic != "" {
			fmt.Fprintf(&sb, " (topic: %s)", p.Topic)
		}
		fmt.Fprintf(&sb, " at %s difficulty level.\n", p.Difficulty)
		sb.WriteString("Each question should require a detailed multi-paragraph answer. Set options to an empty array and describe the key points of a model answer in correct_answer.\n")
	}

	if p.Context != "" {
		fmt.Fprintf(&sb, "Use the following material as context:\n%s\n", p.Context)
	}

	sb.WriteString(`
Return ONLY a valid JSON array without any markdown formatting or extra text. Each element:
{
  "question_text": "...",
  "options": [{"option_id": "A", "text": "...", "is_correct": true}],
  "correct_answer": "...",
  "explanation": "...",
  "points": 1
}`)
	return sb.String()
}

// ParseGeneratedQuestions разбирает JSON-ответ модели в сущности вопросов.
// Элементы, которые не удалось разобрать или которые не проходят
// минимальную проверку, пропускаются.
func ParseGeneratedQuestions(raw string, p GenerationParams, createdBy uint) ([]entity.Question, error) {
	cleaned := CleanJSONContent(raw)

	var items []struct {
		QuestionText  string             `json:"question_text"`
		Options       []entity.MCQOption `json:"options"`
		CorrectAnswer string             `json:"correct_answer"`
		Explanation   string             `json:"explanation"`
		Points        int                `json:"points"`
	}
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("%w: unparseable generation response", apperrors.ErrAIUnavailable)
	}

	questions := make([]entity.Question, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.QuestionText)
		if text == "" {
			continue
		}
		if p.QuestionType == entity.QuestionTypeMCQ && len(item.Options) < 2 {
			continue
		}

		points := item.Points
		if points <= 0 {
			points = 1
		}

		q := entity.Question{
			Text:          text,
			Type:          p.QuestionType,
			Subject:       p.Subject,
			Topic:         p.Topic,
			Difficulty:    p.Difficulty,
			Options:       item.Options,
			CorrectAnswer: strings.TrimSpace(item.CorrectAnswer),
			Explanation:   strings.TrimSpace(item.Explanation),
			Points:        points,
			CreatedBy:     createdBy,
		}
		if q.Type != entity.QuestionTypeMCQ {
			q.Options = nil
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions in response", apperrors.ErrAIUnavailable)
	}
	return questions, nil
}

// BuildEvaluationPrompt собирает промпт оценки свободного ответа
func BuildEvaluationPrompt(q *entity.Question, answer string) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced teacher grading a student's answer.\n\n")
	fmt.Fprintf(&sb, "Question (%s, %s difficulty): %s\n", q.Subject, q.Difficulty, q.Text)
	if q.CorrectAnswer != "" {
		fmt.Fprintf(&sb, "Reference answer: %s\n", q.CorrectAnswer)
	}
	fmt.Fprintf(&sb, "Student's answer: %s\n", answer)

	sb.WriteString(`
Grade the answer on a scale from 0.0 to 1.0, allowing partial credit.
Return ONLY a valid JSON object without markdown formatting:
{
  "score": 0.0,
  "is_correct": false,
  "feedback": "...",
  "strengths": ["..."],
  "improvements": ["..."],
  "partial_credit_reason": "..."
}`)
	return sb.String()
}

// ParseEvaluation разбирает JSON-оценку модели
func ParseEvaluation(raw string) (*AnswerEvaluation, error) {
	cleaned := CleanJSONContent(raw)

	var eval AnswerEvaluation
	if err := json.Unmarshal([]byte(cleaned), &eval); err != nil {
		return nil, fmt.Errorf("unparseable evaluation response: %w", err)
	}

	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > 1 {
		eval.Score = 1
	}
	if eval.Feedback == "" {
		eval.Feedback = "Answer evaluated."
	}
	return &eval, nil
}

// FallbackEvaluation строит эвристическую оценку по длине ответа.
// Применяется, когда модель недоступна или вернула неразбираемый ответ,
// чтобы сдача не завершалась ошибкой.
func FallbackEvaluation(answer string) *AnswerEvaluation {
	words := len(strings.Fields(answer))

	var score float64
	switch {
	case words >= 50:
		score = 0.7
	case words >= 20:
		score = 0.5
	case words >= 5:
		score = 0.3
	default:
		score = 0.1
	}

	return &AnswerEvaluation{
		Score:     score,
		IsCorrect: score >= 0.5,
		Feedback:  "Your answer was recorded. Automatic detailed feedback is temporarily unavailable.",
	}
}

// EvaluateMCQ оценивает вопрос с выбором ответа локально, без обращения к AI
func EvaluateMCQ(q *entity.Question, answer string) *AnswerEvaluation {
	if q.IsCorrectAnswer(answer) {
		return &AnswerEvaluation{
			Score:     1.0,
			IsCorrect: true,
			Feedback:  "Correct!",
		}
	}
	return &AnswerEvaluation{
		Score:     0.0,
		IsCorrect: false,
		Feedback:  fmt.Sprintf("Incorrect. The correct answer is %s.", q.CorrectOptionID()),
	}
}

// BuildExplanationPrompt собирает промпт объяснения вопроса
func BuildExplanationPrompt(q *entity.Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Explain the following %s question to a student step by step.\n", q.Subject)
	fmt.Fprintf(&sb, "Question: %s\n", q.Text)
	if opt, ok := q.CorrectOption(); ok {
		fmt.Fprintf(&sb, "Correct answer: %s) %s\n", opt.OptionID, opt.Text)
	} else if q.CorrectAnswer != "" {
		fmt.Fprintf(&sb, "Correct answer: %s\n", q.CorrectAnswer)
	}
	sb.WriteString("Explain why this answer is correct and what concept the question tests. Answer in plain text.")
	return sb.String()
}
