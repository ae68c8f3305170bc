package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// Пороговые значения по точности темы
const (
	strengthAccuracyThreshold = 80.0
	weaknessAccuracyThreshold = 50.0
)

// AnswerSubmission представляет один присланный ответ
type AnswerSubmission struct {
	QuestionID       uint   `json:"question_id"`
	AnswerText       string `json:"answer_text"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
}

// EvaluatedAnswer представляет оцененный ответ
type EvaluatedAnswer struct {
	QuestionID          uint     `json:"question_id"`
	AnswerText          string   `json:"answer_text"`
	Score               float64  `json:"score"`
	EarnedPoints        float64  `json:"earned_points"`
	MaxPoints           int      `json:"max_points"`
	IsCorrect           bool     `json:"is_correct"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths,omitempty"`
	Improvements        []string `json:"improvements,omitempty"`
	PartialCreditReason string   `json:"partial_credit_reason,omitempty"`
}

// ExamSubmission представляет присланную сдачу экзамена
type ExamSubmission struct {
	ExamID           *uint              `json:"exam_id,omitempty"`
	Subject          string             `json:"subject"`
	Difficulty       string             `json:"difficulty,omitempty"`
	Answers          []AnswerSubmission `json:"answers"`
	TimeTakenMinutes int                `json:"time_taken_minutes"`
}

// ExamEvaluation представляет итог оценки сдачи
type ExamEvaluation struct {
	Result  *entity.Result    `json:"result"`
	Answers []EvaluatedAnswer `json:"answers"`
}

// BatchEvaluationItem представляет результат одного элемента пакетной оценки
type BatchEvaluationItem struct {
	QuestionID uint             `json:"question_id"`
	Evaluation *EvaluatedAnswer `json:"evaluation,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// EvaluationService оценивает ответы: MCQ локально, свободный текст через AI
type EvaluationService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	resultRepo   repository.ResultRepository
	progressRepo repository.ProgressRepository
	aiLogRepo    repository.AIInteractionRepository
	ai           AIProvider
	maxBatchSize int
}

// NewEvaluationService создает новый сервис оценки
func NewEvaluationService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	resultRepo repository.ResultRepository,
	progressRepo repository.ProgressRepository,
	aiLogRepo repository.AIInteractionRepository,
	ai AIProvider,
	maxBatchSize int,
) (*EvaluationService, error) {
	if questionRepo == nil {
		return nil, fmt.Errorf("questionRepo cannot be nil")
	}
	if answerRepo == nil {
		return nil, fmt.Errorf("answerRepo cannot be nil")
	}
	if resultRepo == nil {
		return nil, fmt.Errorf("resultRepo cannot be nil")
	}
	if progressRepo == nil {
		return nil, fmt.Errorf("progressRepo cannot be nil")
	}
	if ai == nil {
		return nil, fmt.Errorf("ai provider cannot be nil")
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 50
	}
	return &EvaluationService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		resultRepo:   resultRepo,
		progressRepo: progressRepo,
		aiLogRepo:    aiLogRepo,
		ai:           ai,
		maxBatchSize: maxBatchSize,
	}, nil
}

// EvaluateAnswer оценивает одиночный ответ и сохраняет его
func (s *EvaluationService) EvaluateAnswer(ctx context.Context, userID uint, sub AnswerSubmission) (*EvaluatedAnswer, error) {
	if sub.AnswerText == "" {
		return nil, fmt.Errorf("%w: answer_text is required", apperrors.ErrValidation)
	}

	question, err := s.questionRepo.GetByID(sub.QuestionID)
	if err != nil {
		return nil, err
	}

	evaluated := s.evaluateOne(ctx, userID, question, sub)

	answer := entity.Answer{
		UserID:           userID,
		QuestionID:       question.ID,
		AnswerText:       sub.AnswerText,
		IsCorrect:        evaluated.IsCorrect,
		Score:            evaluated.Score,
		Feedback:         evaluated.Feedback,
		TimeTakenSeconds: sub.TimeTakenSeconds,
	}
	if err := s.answerRepo.Create(&answer); err != nil {
		return nil, fmt.Errorf("failed to persist answer: %w", err)
	}

	return evaluated, nil
}

// EvaluateExam оценивает сдачу, сохраняет результат с ответами
// и обновляет прогресс по затронутым темам
func (s *EvaluationService) EvaluateExam(ctx context.Context, userID uint, sub ExamSubmission) (*ExamEvaluation, error) {
	if sub.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", apperrors.ErrValidation)
	}
	if len(sub.Answers) == 0 {
		return nil, fmt.Errorf("%w: answers are required", apperrors.ErrValidation)
	}
	if len(sub.Answers) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: at most %d answers per submission", apperrors.ErrValidation, s.maxBatchSize)
	}

	ids := make([]uint, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.questionRepo.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	type topicStat struct {
		questions int
		correct   int
		earned    float64
		max       float64
	}
	topics := map[string]*topicStat{}

	evaluatedAnswers := make([]EvaluatedAnswer, 0, len(sub.Answers))
	answerRows := make([]entity.Answer, 0, len(sub.Answers))

	var totalScore, maxScore float64
	correctCount := 0

	for _, a := range sub.Answers {
		question, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d", apperrors.ErrNotFound, a.QuestionID)
		}

		evaluated := s.evaluateOne(ctx, userID, question, a)
		evaluatedAnswers = append(evaluatedAnswers, *evaluated)

		totalScore += evaluated.EarnedPoints
		maxScore += float64(question.Points)
		if evaluated.IsCorrect {
			correctCount++
		}

		topic := question.Topic
		if topic == "" {
			topic = "general"
		}
		stat, ok := topics[topic]
		if !ok {
			stat = &topicStat{}
			topics[topic] = stat
		}
		stat.questions++
		stat.earned += evaluated.EarnedPoints
		stat.max += float64(question.Points)
		if evaluated.IsCorrect {
			stat.correct++
		}

		answerRows = append(answerRows, entity.Answer{
			UserID:           userID,
			QuestionID:       question.ID,
			AnswerText:       a.AnswerText,
			IsCorrect:        evaluated.IsCorrect,
			Score:            evaluated.Score,
			Feedback:         evaluated.Feedback,
			TimeTakenSeconds: a.TimeTakenSeconds,
		})
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	// Сильные и слабые темы по точности внутри сдачи
	var covered, strengths, weaknesses entity.StringArray
	for topic, stat := range topics {
		covered = append(covered, topic)
		accuracy := 0.0
		if stat.max > 0 {
			accuracy = stat.earned / stat.max * 100
		}
		if accuracy >= strengthAccuracyThreshold {
			strengths = append(strengths, topic)
		} else if accuracy < weaknessAccuracyThreshold {
			weaknesses = append(weaknesses, topic)
		}
	}

	result := &entity.Result{
		UserID:           userID,
		ExamID:           sub.ExamID,
		Subject:          sub.Subject,
		Difficulty:       sub.Difficulty,
		TotalQuestions:   len(sub.Answers),
		CorrectAnswers:   correctCount,
		TotalScore:       totalScore,
		MaxScore:         maxScore,
		Percentage:       percentage,
		TimeTakenMinutes: sub.TimeTakenMinutes,
		TopicsCovered:    covered,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		Feedback:         OverallFeedback(percentage),
		CompletedAt:      time.Now(),
	}

	if err := s.resultRepo.CreateWithAnswers(result, answerRows); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	// Обновление прогресса по каждой затронутой теме
	minutesPerTopic := 0
	if len(topics) > 0 {
		minutesPerTopic = sub.TimeTakenMinutes / len(topics)
	}
	for topic, stat := range topics {
		progress, err := s.progressRepo.GetOrCreate(userID, sub.Subject, topic)
		if err != nil {
			log.Printf("[EvaluationService] Не удалось загрузить прогресс user=%d topic=%s: %v", userID, topic, err)
			continue
		}
		progress.RecordExam(stat.questions, stat.correct, stat.earned, percentage)
		progress.StudyTimeMinutes += minutesPerTopic
		if err := s.progressRepo.Update(progress); err != nil {
			log.Printf("[EvaluationService] Не удалось сохранить прогресс user=%d topic=%s: %v", userID, topic, err)
		}
	}

	return &ExamEvaluation{Result: result, Answers: evaluatedAnswers}, nil
}

// EvaluateBatch оценивает независимые ответы; ошибка одного элемента
// не прерывает пакет
func (s *EvaluationService) EvaluateBatch(ctx context.Context, userID uint, subs []AnswerSubmission) ([]BatchEvaluationItem, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: answers are required", apperrors.ErrValidation)
	}
	if len(subs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: at most %d answers per batch", apperrors.ErrValidation, s.maxBatchSize)
	}

	items := make([]BatchEvaluationItem, 0, len(subs))
	for _, sub := range subs {
		evaluated, err := s.EvaluateAnswer(ctx, userID, sub)
		item := BatchEvaluationItem{QuestionID: sub.QuestionID}
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Evaluation = evaluated
		}
		items = append(items, item)
	}
	return items, nil
}

// evaluateOne оценивает один ответ: MCQ локально, свободный текст через AI
// с эвристическим фолбэком
func (s *EvaluationService) evaluateOne(ctx context.Context, userID uint, question *entity.Question, sub AnswerSubmission) *EvaluatedAnswer {
	var eval *AnswerEvaluation

	if question.IsMCQ() {
		eval = EvaluateMCQ(question, sub.AnswerText)
	} else {
		eval = s.evaluateFreeText(ctx, userID, question, sub.AnswerText)
	}

	return &EvaluatedAnswer{
		QuestionID:          question.ID,
		AnswerText:          sub.AnswerText,
		Score:               eval.Score,
		EarnedPoints:        eval.Score * float64(question.Points),
		MaxPoints:           question.Points,
		IsCorrect:           eval.IsCorrect,
		Feedback:            eval.Feedback,
		Strengths:           eval.Strengths,
		Improvements:        eval.Improvements,
		PartialCreditReason: eval.PartialCreditReason,
	}
}

func (s *EvaluationService) evaluateFreeText(ctx context.Context, userID uint, question *entity.Question, answerText string) *AnswerEvaluation {
	if !s.ai.IsAvailable() {
		return FallbackEvaluation(answerText)
	}

	prompt := BuildEvaluationPrompt(question, answerText)
	started := time.Now()
	raw, err := s.ai.Complete(ctx, prompt)
	s.logInteraction(userID, question.Subject, prompt, raw, time.Since(started))
	if err != nil {
		log.Printf("[EvaluationService] AI недоступен для question=%d, применяется фолбэк: %v", question.ID, err)
		return FallbackEvaluation(answerText)
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		log.Printf("[EvaluationService] Не удалось разобрать оценку question=%d, применяется фолбэк: %v", question.ID, err)
		return FallbackEvaluation(answerText)
	}
	return eval
}

func (s *EvaluationService) logInteraction(userID uint, subject, prompt, response string, latency time.Duration) {
	if s.aiLogRepo == nil {
		return
	}
	interaction := &entity.AIInteraction{
		UserID:    userID,
		Kind:      entity.InteractionKindEvaluation,
		Subject:   subject,
		Prompt:    prompt,
		Response:  response,
		Model:     s.ai.Model(),
		LatencyMs: latency.Milliseconds(),
	}
	if err := s.aiLogRepo.Create(interaction); err != nil {
		log.Printf("[EvaluationService] Не удалось записать AI-обращение: %v", err)
	}
}

// OverallFeedback возвращает итоговый отзыв по проценту набранных баллов
func OverallFeedback(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Outstanding work! You have excellent command of this material."
	case percentage >= 80:
		return "Great job! You have a strong understanding with minor gaps."
	case percentage >= 70:
		return "Good effort! Review the topics you missed to solidify your knowledge."
	case percentage >= 60:
		return "You are getting there. Focus on the weak topics and try again."
	default:
		return "Keep practicing! Revisit the fundamentals before your next attempt."
	}
}
