package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	"github.com/yourusername/eduai-api/internal/service"
)

// QuestionHandler обрабатывает запросы банка вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// GenerateRequest представляет запрос AI-генерации вопросов
type GenerateRequest struct {
	Subject      string `json:"subject" binding:"required,max=100"`
	Topic        string `json:"topic" binding:"omitempty,max=100"`
	Difficulty   string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	QuestionType string `json:"question_type" binding:"required,oneof=mcq short_answer long_answer"`
	Count        int    `json:"count" binding:"omitempty,min=1,max=50"`
	Context      string `json:"context" binding:"omitempty,max=4000"`
}

// BulkCreateRequest представляет запрос пакетного создания вопросов
type BulkCreateRequest struct {
	Questions []QuestionInput `json:"questions" binding:"required,min=1,max=50,dive"`
}

// QuestionInput представляет один вопрос в пакетном создании
type QuestionInput struct {
	Text          string             `json:"text" binding:"required,max=2000"`
	Type          string             `json:"type" binding:"required,oneof=mcq short_answer long_answer"`
	Subject       string             `json:"subject" binding:"required,max=100"`
	Topic         string             `json:"topic" binding:"omitempty,max=100"`
	Difficulty    string             `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Options       []entity.MCQOption `json:"options" binding:"omitempty,max=8"`
	CorrectAnswer string             `json:"correct_answer" binding:"omitempty,max=2000"`
	Explanation   string             `json:"explanation"`
	Points        int                `json:"points" binding:"omitempty,min=1"`
	Tags          []string           `json:"tags" binding:"omitempty,max=10"`
}

// SearchRequest представляет запрос поиска вопросов
type SearchRequest struct {
	Subject    string   `json:"subject" binding:"omitempty,max=100"`
	Topic      string   `json:"topic" binding:"omitempty,max=100"`
	Difficulty string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Type       string   `json:"type" binding:"omitempty,oneof=mcq short_answer long_answer"`
	Tags       []string `json:"tags" binding:"omitempty,max=10"`
	Query      string   `json:"query" binding:"omitempty,max=200"`
	Page       int      `json:"page" binding:"omitempty,min=1"`
	PageSize   int      `json:"page_size" binding:"omitempty,min=1,max=100"`
}

// UpdateQuestionRequest представляет запрос обновления вопроса
type UpdateQuestionRequest struct {
	Text          *string             `json:"text" binding:"omitempty,max=2000"`
	Topic         *string             `json:"topic" binding:"omitempty,max=100"`
	Difficulty    *string             `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Options       *[]entity.MCQOption `json:"options" binding:"omitempty,max=8"`
	CorrectAnswer *string             `json:"correct_answer" binding:"omitempty,max=2000"`
	Explanation   *string             `json:"explanation"`
	Points        *int                `json:"points" binding:"omitempty,min=1"`
	Tags          *[]string           `json:"tags" binding:"omitempty,max=10"`
}

// Generate генерирует вопросы через AI
func (h *QuestionHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	started := time.Now()
	questions, err := h.questionService.Generate(c.Request.Context(), currentUserID(c), service.GenerationParams{
		Subject:      req.Subject,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		QuestionType: req.QuestionType,
		Count:        req.Count,
		Context:      req.Context,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"questions":          questions,
		"count":              len(questions),
		"generation_time_ms": time.Since(started).Milliseconds(),
	})
}

// BulkCreate сохраняет пакет вопросов, составленных пользователем
func (h *QuestionHandler) BulkCreate(c *gin.Context) {
	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions := make([]entity.Question, 0, len(req.Questions))
	for _, input := range req.Questions {
		questions = append(questions, entity.Question{
			Text:          input.Text,
			Type:          input.Type,
			Subject:       input.Subject,
			Topic:         input.Topic,
			Difficulty:    input.Difficulty,
			Options:       input.Options,
			CorrectAnswer: input.CorrectAnswer,
			Explanation:   input.Explanation,
			Points:        input.Points,
			Tags:          input.Tags,
		})
	}

	created, err := h.questionService.CreateBulk(currentUserID(c), questions)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"questions": created, "count": len(created)})
}

// Search ищет вопросы по фильтру с пагинацией
func (h *QuestionHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	questions, total, err := h.questionService.Search(repository.QuestionFilter{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Type:       req.Type,
		Tags:       req.Tags,
		Query:      req.Query,
	}, pageSize, (page-1)*pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// List возвращает страницу вопросов с фильтрами из query-параметров
func (h *QuestionHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	questions, total, err := h.questionService.Search(repository.QuestionFilter{
		Subject:    c.Query("subject"),
		Topic:      c.Query("topic"),
		Difficulty: c.Query("difficulty"),
		Type:       c.Query("type"),
	}, pageSize, (page-1)*pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get возвращает вопрос по идентификатору
func (h *QuestionHandler) Get(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	question, err := h.questionService.GetByID(questionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": question})
}

// Update обновляет вопрос с проверкой владельца
func (h *QuestionHandler) Update(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.questionService.Update(currentUserID(c), currentRole(c), questionID, func(q *entity.Question) {
		if req.Text != nil {
			q.Text = *req.Text
		}
		if req.Topic != nil {
			q.Topic = *req.Topic
		}
		if req.Difficulty != nil {
			q.Difficulty = *req.Difficulty
		}
		if req.Options != nil {
			q.Options = *req.Options
		}
		if req.CorrectAnswer != nil {
			q.CorrectAnswer = *req.CorrectAnswer
		}
		if req.Explanation != nil {
			q.Explanation = *req.Explanation
		}
		if req.Points != nil {
			q.Points = *req.Points
		}
		if req.Tags != nil {
			q.Tags = *req.Tags
		}
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": question})
}

// Delete удаляет вопрос с проверкой владельца
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.questionService.Delete(currentUserID(c), currentRole(c), questionID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// Stats возвращает статистику ответов по вопросу
func (h *QuestionHandler) Stats(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	stats, err := h.questionService.GetStats(questionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Explanation возвращает объяснение вопроса (сохраненное или от AI)
func (h *QuestionHandler) Explanation(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	explanation, err := h.questionService.Explain(c.Request.Context(), currentUserID(c), questionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question_id": questionID,
		"explanation": explanation,
	})
}
