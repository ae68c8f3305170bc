package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eduai-api/internal/service"
)

// ExamHandler обрабатывает запросы сборки экзаменов
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// CreateExamRequest представляет запрос на сборку экзамена
type CreateExamRequest struct {
	Title            string `json:"title" binding:"required,max=200"`
	Description      string `json:"description" binding:"omitempty,max=2000"`
	Subject          string `json:"subject" binding:"required,max=100"`
	Difficulty       string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimitMinutes int    `json:"time_limit_minutes" binding:"omitempty,min=0,max=600"`
	IsPublished      bool   `json:"is_published"`
	QuestionIDs      []uint `json:"question_ids" binding:"required,min=1,max=100"`
}

// Create собирает экзамен из существующих вопросов
func (h *ExamHandler) Create(c *gin.Context) {
	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam, err := h.examService.Create(currentUserID(c), service.CreateExamInput{
		Title:            req.Title,
		Description:      req.Description,
		Subject:          req.Subject,
		Difficulty:       req.Difficulty,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsPublished:      req.IsPublished,
		QuestionIDs:      req.QuestionIDs,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"exam": exam})
}

// List возвращает экзамены текущего пользователя
func (h *ExamHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	exams, total, err := h.examService.ListMine(currentUserID(c), pageSize, (page-1)*pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exams":     exams,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get возвращает экзамен по идентификатору
func (h *ExamHandler) Get(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	exam, err := h.examService.GetByID(currentUserID(c), currentRole(c), examID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exam": exam})
}

// GetWithQuestions возвращает экзамен вместе с вопросами
func (h *ExamHandler) GetWithQuestions(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	exam, questions, err := h.examService.GetWithQuestions(currentUserID(c), currentRole(c), examID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exam":      exam,
		"questions": questions,
	})
}

// Delete удаляет экзамен владельца
func (h *ExamHandler) Delete(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	if err := h.examService.Delete(currentUserID(c), currentRole(c), examID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam deleted"})
}
