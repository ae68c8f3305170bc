package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eduai-api/internal/service"
)

// EvaluationHandler обрабатывает запросы оценки ответов
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
}

// NewEvaluationHandler создает новый обработчик оценки
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// EvaluateAnswerRequest представляет запрос оценки одного ответа
type EvaluateAnswerRequest struct {
	QuestionID       uint   `json:"question_id" binding:"required"`
	AnswerText       string `json:"answer_text" binding:"required,max=10000"`
	TimeTakenSeconds int    `json:"time_taken_seconds" binding:"omitempty,min=0"`
}

// EvaluateExamRequest представляет запрос оценки сдачи экзамена
type EvaluateExamRequest struct {
	ExamID           *uint                   `json:"exam_id"`
	Subject          string                  `json:"subject" binding:"required,max=100"`
	Difficulty       string                  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Answers          []EvaluateAnswerRequest `json:"answers" binding:"required,min=1,max=50,dive"`
	TimeTakenMinutes int                     `json:"time_taken_minutes" binding:"omitempty,min=0"`
}

// EvaluateBatchRequest представляет запрос пакетной оценки независимых ответов
type EvaluateBatchRequest struct {
	Answers []EvaluateAnswerRequest `json:"answers" binding:"required,min=1,max=50,dive"`
}

// Answer оценивает одиночный ответ
func (h *EvaluationHandler) Answer(c *gin.Context) {
	var req EvaluateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evaluated, err := h.evaluationService.EvaluateAnswer(c.Request.Context(), currentUserID(c), service.AnswerSubmission{
		QuestionID:       req.QuestionID,
		AnswerText:       req.AnswerText,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": evaluated})
}

// Exam оценивает сдачу экзамена и обновляет прогресс
func (h *EvaluationHandler) Exam(c *gin.Context) {
	var req EvaluateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submissions := make([]service.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		submissions = append(submissions, service.AnswerSubmission{
			QuestionID:       a.QuestionID,
			AnswerText:       a.AnswerText,
			TimeTakenSeconds: a.TimeTakenSeconds,
		})
	}

	evaluation, err := h.evaluationService.EvaluateExam(c.Request.Context(), currentUserID(c), service.ExamSubmission{
		ExamID:           req.ExamID,
		Subject:          req.Subject,
		Difficulty:       req.Difficulty,
		Answers:          submissions,
		TimeTakenMinutes: req.TimeTakenMinutes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluation)
}

// Batch оценивает независимые ответы; ошибки отдельных элементов
// возвращаются внутри списка
func (h *EvaluationHandler) Batch(c *gin.Context) {
	var req EvaluateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submissions := make([]service.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		submissions = append(submissions, service.AnswerSubmission{
			QuestionID:       a.QuestionID,
			AnswerText:       a.AnswerText,
			TimeTakenSeconds: a.TimeTakenSeconds,
		})
	}

	items, err := h.evaluationService.EvaluateBatch(c.Request.Context(), currentUserID(c), submissions)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "count": len(items)})
}
