package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

type questionMocks struct {
	questionRepo *MockQuestionRepository
	answerRepo   *MockAnswerRepository
	aiLogRepo    *MockAIInteractionRepository
	cacheRepo    *MockCacheRepository
	ai           *MockAIProvider
}

func newTestQuestionService(t *testing.T) (*QuestionService, *questionMocks) {
	t.Helper()
	m := &questionMocks{
		questionRepo: new(MockQuestionRepository),
		answerRepo:   new(MockAnswerRepository),
		aiLogRepo:    new(MockAIInteractionRepository),
		cacheRepo:    new(MockCacheRepository),
		ai:           new(MockAIProvider),
	}
	svc, err := NewQuestionService(m.questionRepo, m.answerRepo, m.aiLogRepo, m.cacheRepo, m.ai, 50)
	require.NoError(t, err)
	return svc, m
}

func TestQuestionService_Generate_Success(t *testing.T) {
	// Arrange
	svc, m := newTestQuestionService(t)

	raw := `[{"question_text": "What is 2+2?", "options": [
		{"option_id": "A", "text": "3", "is_correct": false},
		{"option_id": "B", "text": "4", "is_correct": true}
	], "correct_answer": "B", "explanation": "Arithmetic.", "points": 1}]`

	m.ai.On("Complete", mock.Anything, mock.AnythingOfType("string")).Return(raw, nil)
	m.ai.On("Model").Return("test-model")
	m.aiLogRepo.On("Create", mock.AnythingOfType("*entity.AIInteraction")).Return(nil)
	m.questionRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Question")).Return(nil)

	// Act
	questions, err := svc.Generate(context.Background(), 42, GenerationParams{
		Subject:      "Mathematics",
		QuestionType: entity.QuestionTypeMCQ,
		Count:        1,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, uint(42), questions[0].CreatedBy)
	assert.Equal(t, entity.DifficultyMedium, questions[0].Difficulty, "Сложность по умолчанию medium")
	m.aiLogRepo.AssertExpectations(t)
	m.questionRepo.AssertExpectations(t)
}

func TestQuestionService_Generate_Validation(t *testing.T) {
	svc, _ := newTestQuestionService(t)

	// Без предмета
	_, err := svc.Generate(context.Background(), 1, GenerationParams{QuestionType: entity.QuestionTypeMCQ})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	// Неизвестный тип
	_, err = svc.Generate(context.Background(), 1, GenerationParams{Subject: "Math", QuestionType: "essay"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	// Сверх лимита
	_, err = svc.Generate(context.Background(), 1, GenerationParams{
		Subject: "Math", QuestionType: entity.QuestionTypeMCQ, Count: 51,
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestQuestionService_Generate_AIFailure(t *testing.T) {
	svc, m := newTestQuestionService(t)

	m.ai.On("Complete", mock.Anything, mock.AnythingOfType("string")).Return("", apperrors.ErrAIUnavailable)
	m.ai.On("Model").Return("test-model")
	m.aiLogRepo.On("Create", mock.AnythingOfType("*entity.AIInteraction")).Return(nil)

	_, err := svc.Generate(context.Background(), 1, GenerationParams{
		Subject:      "Math",
		QuestionType: entity.QuestionTypeMCQ,
	})

	assert.True(t, errors.Is(err, apperrors.ErrAIUnavailable))
	m.questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestQuestionService_CreateBulk_SetsDefaultsAndOwner(t *testing.T) {
	svc, m := newTestQuestionService(t)

	m.questionRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Question")).Return(nil)

	created, err := svc.CreateBulk(42, []entity.Question{
		{Text: " What is the capital of France? ", Type: entity.QuestionTypeShort},
	})

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "What is the capital of France?", created[0].Text)
	assert.Equal(t, entity.DifficultyMedium, created[0].Difficulty)
	assert.Equal(t, 1, created[0].Points)
	assert.Equal(t, uint(42), created[0].CreatedBy)
}

func TestQuestionService_CreateBulk_RejectsEmptyText(t *testing.T) {
	svc, _ := newTestQuestionService(t)

	_, err := svc.CreateBulk(42, []entity.Question{
		{Text: "   ", Type: entity.QuestionTypeShort},
	})

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestQuestionService_Update_OwnerOnly(t *testing.T) {
	// Arrange: вопрос принадлежит пользователю 42
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Text: "old", Type: entity.QuestionTypeShort, CreatedBy: 42}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)
	m.questionRepo.On("Update", question).Return(nil)
	m.cacheRepo.On("Delete", "explanation:question:1").Return(nil)

	// Act: владелец обновляет текст
	updated, err := svc.Update(42, entity.RoleStudent, 1, func(q *entity.Question) {
		q.Text = "new text"
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Text)
	m.cacheRepo.AssertExpectations(t)
}

func TestQuestionService_Update_ForbiddenForStranger(t *testing.T) {
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Text: "old", Type: entity.QuestionTypeShort, CreatedBy: 42}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)

	_, err := svc.Update(7, entity.RoleStudent, 1, func(q *entity.Question) {
		q.Text = "hacked"
	})

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	m.questionRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestQuestionService_Update_AdminBypassesOwnership(t *testing.T) {
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Text: "old", Type: entity.QuestionTypeShort, CreatedBy: 42}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)
	m.questionRepo.On("Update", question).Return(nil)
	m.cacheRepo.On("Delete", "explanation:question:1").Return(nil)

	_, err := svc.Update(1, entity.RoleAdmin, 1, func(q *entity.Question) {
		q.Text = "moderated"
	})

	assert.NoError(t, err)
}

func TestQuestionService_Delete_ForbiddenForStranger(t *testing.T) {
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, CreatedBy: 42}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)

	err := svc.Delete(7, entity.RoleStudent, 1)

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	m.questionRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestQuestionService_Explain_PrefersStoredExplanation(t *testing.T) {
	// Сохраненное объяснение возвращается без обращений к кешу и AI
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Explanation: "Stored explanation."}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)

	explanation, err := svc.Explain(context.Background(), 42, 1)

	require.NoError(t, err)
	assert.Equal(t, "Stored explanation.", explanation)
	m.ai.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestQuestionService_Explain_UsesCache(t *testing.T) {
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Text: "q", Subject: "Math"}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)
	m.cacheRepo.On("Get", "explanation:question:1").Return("Cached explanation.", nil)

	explanation, err := svc.Explain(context.Background(), 42, 1)

	require.NoError(t, err)
	assert.Equal(t, "Cached explanation.", explanation)
	m.ai.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestQuestionService_Explain_GeneratesAndCaches(t *testing.T) {
	svc, m := newTestQuestionService(t)

	question := &entity.Question{ID: 1, Text: "q", Subject: "Math"}
	m.questionRepo.On("GetByID", uint(1)).Return(question, nil)
	m.cacheRepo.On("Get", "explanation:question:1").Return("", apperrors.ErrNotFound)
	m.ai.On("Complete", mock.Anything, mock.AnythingOfType("string")).Return("  Generated explanation.  ", nil)
	m.ai.On("Model").Return("test-model")
	m.aiLogRepo.On("Create", mock.AnythingOfType("*entity.AIInteraction")).Return(nil)
	m.cacheRepo.On("Set", "explanation:question:1", "Generated explanation.", mock.AnythingOfType("time.Duration")).Return(nil)

	explanation, err := svc.Explain(context.Background(), 42, 1)

	require.NoError(t, err)
	assert.Equal(t, "Generated explanation.", explanation)
	m.cacheRepo.AssertExpectations(t)
}
