package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

const (
	wikiContextLimit   = 1000
	wikiTitleLimit     = 80
	wikiRequestTimeout = 5 * time.Second
	historyDefaultSize = 20
)

// Предметы, предлагаемые ассистентом
var assistantSubjects = []string{
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"Computer Science",
	"History",
	"Geography",
	"Literature",
	"English",
	"Economics",
}

// AssistantAnswer представляет ответ учебного ассистента
type AssistantAnswer struct {
	Answer            string   `json:"answer"`
	RelatedTopics     []string `json:"related_topics,omitempty"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	InteractionID     uint     `json:"interaction_id,omitempty"`
}

// AssistantService отвечает на вопросы, объясняет понятия и составляет
// планы обучения, обогащая промпты контекстом из Wikipedia
type AssistantService struct {
	aiLogRepo  repository.AIInteractionRepository
	ai         AIProvider
	wikiURL    string
	httpClient *http.Client
}

// NewAssistantService создает новый сервис ассистента
func NewAssistantService(
	aiLogRepo repository.AIInteractionRepository,
	ai AIProvider,
	wikiURL string,
) (*AssistantService, error) {
	if ai == nil {
		return nil, fmt.Errorf("ai provider cannot be nil")
	}
	return &AssistantService{
		aiLogRepo:  aiLogRepo,
		ai:         ai,
		wikiURL:    strings.TrimRight(wikiURL, "/"),
		httpClient: &http.Client{Timeout: wikiRequestTimeout},
	}, nil
}

// Ask отвечает на вопрос студента
func (s *AssistantService) Ask(ctx context.Context, userID uint, question, subject, extraContext string) (*AssistantAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrValidation)
	}

	var sb strings.Builder
	sb.WriteString("You are a patient and knowledgeable tutor helping a student.\n")
	if subject != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", subject)
	}
	if wiki := s.fetchWikiContext(ctx, question); wiki != "" {
		fmt.Fprintf(&sb, "Background reference:\n%s\n", wiki)
	}
	if extraContext != "" {
		fmt.Fprintf(&sb, "Additional context from the student:\n%s\n", extraContext)
	}
	fmt.Fprintf(&sb, "Student's question: %s\n", question)
	sb.WriteString(`
Return ONLY a valid JSON object without markdown formatting:
{
  "answer": "...",
  "related_topics": ["..."],
  "follow_up_questions": ["..."]
}`)

	prompt := sb.String()
	raw, interactionID, err := s.complete(ctx, userID, subject, prompt)
	if err != nil {
		return nil, err
	}

	answer := parseAssistantAnswer(raw)
	answer.InteractionID = interactionID
	return answer, nil
}

// Explain объясняет понятие на нужном уровне сложности
func (s *AssistantService) Explain(ctx context.Context, userID uint, concept, subject, level string) (string, uint, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return "", 0, fmt.Errorf("%w: concept is required", apperrors.ErrValidation)
	}
	if level == "" {
		level = "high school"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Explain the concept %q", concept)
	if subject != "" {
		fmt.Fprintf(&sb, " from %s", subject)
	}
	fmt.Fprintf(&sb, " to a %s student.\n", level)
	if wiki := s.fetchWikiContext(ctx, concept); wiki != "" {
		fmt.Fprintf(&sb, "Background reference:\n%s\n", wiki)
	}
	sb.WriteString("Structure the explanation as: definition, intuition, a worked example, and a common misconception. Answer in plain text.")

	raw, interactionID, err := s.complete(ctx, userID, subject, sb.String())
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(raw), interactionID, nil
}

// Solve решает задачу, по запросу с подробными шагами
func (s *AssistantService) Solve(ctx context.Context, userID uint, problem, subject string, showSteps bool) (string, uint, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return "", 0, fmt.Errorf("%w: problem is required", apperrors.ErrValidation)
	}

	var sb strings.Builder
	sb.WriteString("Solve the following problem")
	if subject != "" {
		fmt.Fprintf(&sb, " in %s", subject)
	}
	sb.WriteString(".\n")
	fmt.Fprintf(&sb, "Problem: %s\n", problem)
	if showSteps {
		sb.WriteString("Show every step of the solution and explain the reasoning behind each step.")
	} else {
		sb.WriteString("Give the final answer with a brief justification.")
	}

	raw, interactionID, err := s.complete(ctx, userID, subject, sb.String())
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(raw), interactionID, nil
}

// StudySuggestions составляет план обучения по предмету
func (s *AssistantService) StudySuggestions(ctx context.Context, userID uint, subject, goals string, weakTopics []string) (string, uint, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", 0, fmt.Errorf("%w: subject is required", apperrors.ErrValidation)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a practical one-week study plan for %s.\n", subject)
	if goals != "" {
		fmt.Fprintf(&sb, "The student's goals: %s\n", goals)
	}
	if len(weakTopics) > 0 {
		fmt.Fprintf(&sb, "Pay extra attention to these weak topics: %s\n", strings.Join(weakTopics, ", "))
	}
	sb.WriteString("For each day list topics, a concrete activity and an expected time budget. Answer in plain text.")

	raw, interactionID, err := s.complete(ctx, userID, subject, sb.String())
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(raw), interactionID, nil
}

// Subjects возвращает список предлагаемых предметов
func (s *AssistantService) Subjects() []string {
	return assistantSubjects
}

// History возвращает последние обращения пользователя к ассистенту
func (s *AssistantService) History(userID uint, limit int) ([]entity.AIInteraction, error) {
	if s.aiLogRepo == nil {
		return []entity.AIInteraction{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = historyDefaultSize
	}
	return s.aiLogRepo.ListByUser(userID, entity.InteractionKindAssistant, limit)
}

// RateInteraction сохраняет оценку пользователя для своего обращения
func (s *AssistantService) RateInteraction(userID, interactionID uint, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrValidation)
	}
	if s.aiLogRepo == nil {
		return apperrors.ErrNotFound
	}

	interaction, err := s.aiLogRepo.GetByID(interactionID)
	if err != nil {
		return err
	}
	if interaction.UserID != userID {
		return fmt.Errorf("%w: interaction belongs to another user", apperrors.ErrForbidden)
	}
	return s.aiLogRepo.UpdateRating(interactionID, rating)
}

// complete вызывает модель и записывает обращение в журнал
func (s *AssistantService) complete(ctx context.Context, userID uint, subject, prompt string) (string, uint, error) {
	started := time.Now()
	raw, err := s.ai.Complete(ctx, prompt)
	latency := time.Since(started)

	var interactionID uint
	if s.aiLogRepo != nil {
		interaction := &entity.AIInteraction{
			UserID:    userID,
			Kind:      entity.InteractionKindAssistant,
			Subject:   subject,
			Prompt:    prompt,
			Response:  raw,
			Model:     s.ai.Model(),
			LatencyMs: latency.Milliseconds(),
		}
		if logErr := s.aiLogRepo.Create(interaction); logErr != nil {
			log.Printf("[AssistantService] Не удалось записать обращение: %v", logErr)
		} else {
			interactionID = interaction.ID
		}
	}

	if err != nil {
		return "", 0, err
	}
	return raw, interactionID, nil
}

// fetchWikiContext запрашивает краткую справку из Wikipedia.
// Любая ошибка приводит к пустому контексту, а не к отказу запроса.
func (s *AssistantService) fetchWikiContext(ctx context.Context, query string) string {
	if s.wikiURL == "" {
		return ""
	}

	title := truncateRunes(strings.TrimSpace(query), wikiTitleLimit)

	reqURL := fmt.Sprintf("%s/page/summary/%s", s.wikiURL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}

	var summary struct {
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return ""
	}

	return truncateRunes(strings.TrimSpace(summary.Extract), wikiContextLimit)
}

// truncateRunes обрезает строку до max рун, не разрывая
// многобайтовые символы посередине
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// parseAssistantAnswer разбирает JSON-ответ ассистента.
// Неразбираемый ответ возвращается как обычный текст.
func parseAssistantAnswer(raw string) *AssistantAnswer {
	cleaned := CleanJSONContent(raw)

	var answer AssistantAnswer
	if err := json.Unmarshal([]byte(cleaned), &answer); err == nil && answer.Answer != "" {
		return &answer
	}
	return &AssistantAnswer{Answer: strings.TrimSpace(raw)}
}
