package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// AIProvider абстрагирует внешний генеративный AI-сервис.
// Используется сервисами вопросов, оценки и ассистента.
type AIProvider interface {
	IsAvailable() bool
	Model() string
	// Complete выполняет один запрос "промпт -> текст"
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiService реализует AIProvider поверх REST API generateContent
type GeminiService struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

// NewGeminiService создает клиент генеративного AI.
// При пустом ключе сервис считается недоступным, а не ошибкой:
// остальное приложение продолжает работать без AI-возможностей.
func NewGeminiService(apiKey, apiURL, model string, timeout time.Duration) *GeminiService {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiService{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		model:      model,
	}
}

// IsAvailable проверяет, настроен ли внешний AI-сервис
func (s *GeminiService) IsAvailable() bool {
	return s.apiKey != "" && s.apiURL != ""
}

// Model возвращает имя используемой модели
func (s *GeminiService) Model() string {
	return s.model
}

// Структуры запроса и ответа generateContent
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete выполняет один запрос к модели и возвращает текст ответа
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	if !s.IsAvailable() {
		return "", fmt.Errorf("%w: API key is not configured", apperrors.ErrAIUnavailable)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.9,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal AI request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.apiURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read AI response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[GeminiService] API вернул статус %d: %s", resp.StatusCode, truncate(string(body), 500))
		return "", fmt.Errorf("%w: status %d", apperrors.ErrAIUnavailable, resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode AI response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrAIUnavailable, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrAIUnavailable)
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// CleanJSONContent удаляет markdown-ограждения вокруг JSON в ответе модели.
// Модели регулярно заворачивают ответ в ```json ... ``` вопреки инструкции.
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
