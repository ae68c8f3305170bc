package service

import (
	"fmt"
	"strings"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// CreateExamInput содержит данные для сборки экзамена
type CreateExamInput struct {
	Title            string
	Description      string
	Subject          string
	Difficulty       string
	TimeLimitMinutes int
	IsPublished      bool
	QuestionIDs      []uint
}

// ExamService управляет сборкой экзаменов из банка вопросов
type ExamService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
}

// NewExamService создает новый сервис экзаменов
func NewExamService(examRepo repository.ExamRepository, questionRepo repository.QuestionRepository) (*ExamService, error) {
	if examRepo == nil {
		return nil, fmt.Errorf("examRepo cannot be nil")
	}
	if questionRepo == nil {
		return nil, fmt.Errorf("questionRepo cannot be nil")
	}
	return &ExamService{examRepo: examRepo, questionRepo: questionRepo}, nil
}

// Create собирает экзамен из существующих вопросов
func (s *ExamService) Create(userID uint, input CreateExamInput) (*entity.Exam, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Subject = strings.TrimSpace(input.Subject)
	if input.Title == "" || input.Subject == "" {
		return nil, fmt.Errorf("%w: title and subject are required", apperrors.ErrValidation)
	}
	if len(input.QuestionIDs) == 0 {
		return nil, fmt.Errorf("%w: question_ids are required", apperrors.ErrValidation)
	}
	if input.Difficulty == "" {
		input.Difficulty = entity.DifficultyMedium
	}
	if !entity.IsValidDifficulty(input.Difficulty) {
		return nil, fmt.Errorf("%w: invalid difficulty %q", apperrors.ErrValidation, input.Difficulty)
	}

	// Повтор вопроса нарушил бы уникальность (exam_id, question_id)
	seen := make(map[uint]struct{}, len(input.QuestionIDs))
	for _, id := range input.QuestionIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate question %d", apperrors.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	questions, err := s.questionRepo.GetByIDs(input.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	totalPoints := 0
	links := make([]entity.ExamQuestion, 0, len(input.QuestionIDs))
	for i, id := range input.QuestionIDs {
		question, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: question %d", apperrors.ErrNotFound, id)
		}
		totalPoints += question.Points
		links = append(links, entity.ExamQuestion{
			QuestionID: id,
			Position:   i + 1,
			Points:     question.Points,
		})
	}

	exam := &entity.Exam{
		UserID:           userID,
		Title:            input.Title,
		Description:      strings.TrimSpace(input.Description),
		Subject:          input.Subject,
		Difficulty:       input.Difficulty,
		TotalQuestions:   len(input.QuestionIDs),
		TotalPoints:      totalPoints,
		TimeLimitMinutes: input.TimeLimitMinutes,
		IsPublished:      input.IsPublished,
	}

	if err := s.examRepo.Create(exam, links); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}
	return exam, nil
}

// GetByID возвращает экзамен, доступный пользователю
func (s *ExamService) GetByID(userID uint, role string, id uint) (*entity.Exam, error) {
	exam, err := s.examRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !exam.IsPublished && exam.UserID != userID && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: exam is not published", apperrors.ErrForbidden)
	}
	return exam, nil
}

// GetWithQuestions возвращает экзамен вместе с вопросами в заданном порядке
func (s *ExamService) GetWithQuestions(userID uint, role string, id uint) (*entity.Exam, []entity.Question, error) {
	exam, err := s.GetByID(userID, role, id)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.examRepo.GetQuestions(id)
	if err != nil {
		return nil, nil, err
	}
	return exam, questions, nil
}

// ListMine возвращает экзамены пользователя
func (s *ExamService) ListMine(userID uint, limit, offset int) ([]entity.Exam, int64, error) {
	return s.examRepo.ListByUser(userID, limit, offset)
}

// Delete удаляет экзамен владельца
func (s *ExamService) Delete(userID uint, role string, id uint) error {
	exam, err := s.examRepo.GetByID(id)
	if err != nil {
		return err
	}
	if exam.UserID != userID && role != entity.RoleAdmin {
		return fmt.Errorf("%w: only the author can delete this exam", apperrors.ErrForbidden)
	}
	return s.examRepo.Delete(id)
}
