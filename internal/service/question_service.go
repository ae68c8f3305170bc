package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

const explanationCacheTTL = 24 * time.Hour

// QuestionService управляет банком вопросов и AI-генерацией
type QuestionService struct {
	questionRepo  repository.QuestionRepository
	answerRepo    repository.AnswerRepository
	aiLogRepo     repository.AIInteractionRepository
	cacheRepo     repository.CacheRepository
	ai            AIProvider
	maxPerRequest int
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	aiLogRepo repository.AIInteractionRepository,
	cacheRepo repository.CacheRepository,
	ai AIProvider,
	maxPerRequest int,
) (*QuestionService, error) {
	if questionRepo == nil {
		return nil, fmt.Errorf("questionRepo cannot be nil")
	}
	if answerRepo == nil {
		return nil, fmt.Errorf("answerRepo cannot be nil")
	}
	if ai == nil {
		return nil, fmt.Errorf("ai provider cannot be nil")
	}
	if maxPerRequest <= 0 {
		maxPerRequest = 50
	}
	return &QuestionService{
		questionRepo:  questionRepo,
		answerRepo:    answerRepo,
		aiLogRepo:     aiLogRepo,
		cacheRepo:     cacheRepo,
		ai:            ai,
		maxPerRequest: maxPerRequest,
	}, nil
}

// Generate генерирует вопросы через AI и сохраняет их в банке
func (s *QuestionService) Generate(ctx context.Context, userID uint, params GenerationParams) ([]entity.Question, error) {
	params.Subject = strings.TrimSpace(params.Subject)
	if params.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", apperrors.ErrValidation)
	}
	if !entity.IsValidQuestionType(params.QuestionType) {
		return nil, fmt.Errorf("%w: invalid question type %q", apperrors.ErrValidation, params.QuestionType)
	}
	if params.Difficulty == "" {
		params.Difficulty = entity.DifficultyMedium
	}
	if !entity.IsValidDifficulty(params.Difficulty) {
		return nil, fmt.Errorf("%w: invalid difficulty %q", apperrors.ErrValidation, params.Difficulty)
	}
	if params.Count <= 0 {
		params.Count = 1
	}
	if params.Count > s.maxPerRequest {
		return nil, fmt.Errorf("%w: at most %d questions per request", apperrors.ErrValidation, s.maxPerRequest)
	}

	prompt := BuildGenerationPrompt(params)

	started := time.Now()
	raw, err := s.ai.Complete(ctx, prompt)
	s.logInteraction(userID, entity.InteractionKindGeneration, params.Subject, prompt, raw, time.Since(started))
	if err != nil {
		return nil, err
	}

	questions, err := ParseGeneratedQuestions(raw, params, userID)
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, fmt.Errorf("failed to persist generated questions: %w", err)
	}

	log.Printf("[QuestionService] Сгенерировано %d вопросов (subject=%s, type=%s) для user=%d",
		len(questions), params.Subject, params.QuestionType, userID)
	return questions, nil
}

// CreateBulk сохраняет пакет вопросов, составленных пользователем
func (s *QuestionService) CreateBulk(userID uint, questions []entity.Question) ([]entity.Question, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: questions are required", apperrors.ErrValidation)
	}
	if len(questions) > s.maxPerRequest {
		return nil, fmt.Errorf("%w: at most %d questions per request", apperrors.ErrValidation, s.maxPerRequest)
	}

	for i := range questions {
		q := &questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fmt.Errorf("%w: question %d has empty text", apperrors.ErrValidation, i+1)
		}
		if !entity.IsValidQuestionType(q.Type) {
			return nil, fmt.Errorf("%w: question %d has invalid type %q", apperrors.ErrValidation, i+1, q.Type)
		}
		if q.Difficulty == "" {
			q.Difficulty = entity.DifficultyMedium
		}
		if !entity.IsValidDifficulty(q.Difficulty) {
			return nil, fmt.Errorf("%w: question %d has invalid difficulty %q", apperrors.ErrValidation, i+1, q.Difficulty)
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		q.CreatedBy = userID
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, fmt.Errorf("failed to persist questions: %w", err)
	}
	return questions, nil
}

// Search возвращает страницу вопросов по фильтру
func (s *QuestionService) Search(filter repository.QuestionFilter, limit, offset int) ([]entity.Question, int64, error) {
	return s.questionRepo.Search(filter, limit, offset)
}

// GetByID возвращает вопрос по идентификатору
func (s *QuestionService) GetByID(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// Update обновляет вопрос с проверкой прав владельца
func (s *QuestionService) Update(userID uint, role string, id uint, apply func(*entity.Question)) (*entity.Question, error) {
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if question.CreatedBy != userID && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only the author can modify this question", apperrors.ErrForbidden)
	}

	apply(question)

	if question.Text == "" {
		return nil, fmt.Errorf("%w: question text cannot be empty", apperrors.ErrValidation)
	}
	if !entity.IsValidQuestionType(question.Type) {
		return nil, fmt.Errorf("%w: invalid question type %q", apperrors.ErrValidation, question.Type)
	}

	if err := s.questionRepo.Update(question); err != nil {
		return nil, err
	}

	// Сохраненное объяснение могло измениться
	if s.cacheRepo != nil {
		_ = s.cacheRepo.Delete(explanationCacheKey(id))
	}
	return question, nil
}

// Delete удаляет вопрос с проверкой прав владельца
func (s *QuestionService) Delete(userID uint, role string, id uint) error {
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if question.CreatedBy != userID && role != entity.RoleAdmin {
		return fmt.Errorf("%w: only the author can delete this question", apperrors.ErrForbidden)
	}
	return s.questionRepo.Delete(id)
}

// GetStats возвращает агрегированную статистику ответов по вопросу
func (s *QuestionService) GetStats(id uint) (*repository.QuestionStats, error) {
	if _, err := s.questionRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.answerRepo.GetQuestionStats(id)
}

// Explain возвращает объяснение вопроса: сохраненное, кешированное
// или сгенерированное AI
func (s *QuestionService) Explain(ctx context.Context, userID, id uint) (string, error) {
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	if question.Explanation != "" {
		return question.Explanation, nil
	}

	cacheKey := explanationCacheKey(id)
	if s.cacheRepo != nil {
		if cached, err := s.cacheRepo.Get(cacheKey); err == nil && cached != "" {
			return cached, nil
		}
	}

	prompt := BuildExplanationPrompt(question)
	started := time.Now()
	explanation, err := s.ai.Complete(ctx, prompt)
	s.logInteraction(userID, entity.InteractionKindGeneration, question.Subject, prompt, explanation, time.Since(started))
	if err != nil {
		return "", err
	}
	explanation = strings.TrimSpace(explanation)

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Set(cacheKey, explanation, explanationCacheTTL); err != nil &&
			!errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionService] Не удалось кешировать объяснение question=%d: %v", id, err)
		}
	}
	return explanation, nil
}

func (s *QuestionService) logInteraction(userID uint, kind, subject, prompt, response string, latency time.Duration) {
	if s.aiLogRepo == nil {
		return
	}
	interaction := &entity.AIInteraction{
		UserID:    userID,
		Kind:      kind,
		Subject:   subject,
		Prompt:    prompt,
		Response:  response,
		Model:     s.ai.Model(),
		LatencyMs: latency.Milliseconds(),
	}
	if err := s.aiLogRepo.Create(interaction); err != nil {
		log.Printf("[QuestionService] Не удалось записать AI-обращение: %v", err)
	}
}

func explanationCacheKey(id uint) string {
	return fmt.Sprintf("explanation:question:%d", id)
}
