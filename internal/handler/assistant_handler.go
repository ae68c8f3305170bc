package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eduai-api/internal/service"
)

// AssistantHandler обрабатывает запросы учебного ассистента
type AssistantHandler struct {
	assistantService *service.AssistantService
}

// NewAssistantHandler создает новый обработчик ассистента
func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// AskRequest представляет вопрос ассистенту
type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
	Subject  string `json:"subject" binding:"omitempty,max=100"`
	Context  string `json:"context" binding:"omitempty,max=4000"`
}

// ExplainRequest представляет запрос объяснения понятия
type ExplainRequest struct {
	Concept string `json:"concept" binding:"required,max=200"`
	Subject string `json:"subject" binding:"omitempty,max=100"`
	Level   string `json:"level" binding:"omitempty,max=50"`
}

// SolveRequest представляет запрос решения задачи
type SolveRequest struct {
	Problem   string `json:"problem" binding:"required,max=4000"`
	Subject   string `json:"subject" binding:"omitempty,max=100"`
	ShowSteps bool   `json:"show_steps"`
}

// StudySuggestionsRequest представляет запрос плана обучения
type StudySuggestionsRequest struct {
	Subject    string   `json:"subject" binding:"required,max=100"`
	Goals      string   `json:"goals" binding:"omitempty,max=1000"`
	WeakTopics []string `json:"weak_topics" binding:"omitempty,max=20"`
}

// FeedbackRequest представляет оценку ответа ассистента
type FeedbackRequest struct {
	InteractionID uint `json:"interaction_id" binding:"required"`
	Rating        int  `json:"rating" binding:"required,min=1,max=5"`
}

// Ask отвечает на вопрос студента
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.assistantService.Ask(c.Request.Context(), currentUserID(c), req.Question, req.Subject, req.Context)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// Explain объясняет понятие
func (h *AssistantHandler) Explain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	explanation, interactionID, err := h.assistantService.Explain(c.Request.Context(), currentUserID(c), req.Concept, req.Subject, req.Level)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"explanation":    explanation,
		"interaction_id": interactionID,
	})
}

// Solve решает задачу
func (h *AssistantHandler) Solve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	solution, interactionID, err := h.assistantService.Solve(c.Request.Context(), currentUserID(c), req.Problem, req.Subject, req.ShowSteps)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"solution":       solution,
		"interaction_id": interactionID,
	})
}

// StudySuggestions составляет план обучения
func (h *AssistantHandler) StudySuggestions(c *gin.Context) {
	var req StudySuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, interactionID, err := h.assistantService.StudySuggestions(c.Request.Context(), currentUserID(c), req.Subject, req.Goals, req.WeakTopics)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions":    plan,
		"interaction_id": interactionID,
	})
}

// Subjects возвращает список предлагаемых предметов
func (h *AssistantHandler) Subjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subjects": h.assistantService.Subjects()})
}

// History возвращает последние обращения к ассистенту
func (h *AssistantHandler) History(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	history, err := h.assistantService.History(currentUserID(c), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Feedback сохраняет оценку ответа ассистента
func (h *AssistantHandler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.assistantService.RateInteraction(currentUserID(c), req.InteractionID, req.Rating); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback recorded"})
}
