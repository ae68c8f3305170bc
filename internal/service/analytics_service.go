package service

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

const (
	leaderboardCacheTTL = 60 * time.Second
	exportResultsLimit  = 1000
)

// Периоды отчета производительности
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// SubjectSummary агрегирует прогресс по одному предмету
type SubjectSummary struct {
	Subject            string  `json:"subject"`
	QuestionsAttempted int     `json:"questions_attempted"`
	QuestionsCorrect   int     `json:"questions_correct"`
	Accuracy           float64 `json:"accuracy"`
	TotalPoints        int64   `json:"total_points"`
}

// OverallProgress агрегирует прогресс по всем предметам
type OverallProgress struct {
	QuestionsAttempted int              `json:"questions_attempted"`
	QuestionsCorrect   int              `json:"questions_correct"`
	OverallAccuracy    float64          `json:"overall_accuracy"`
	TotalPoints        int64            `json:"total_points"`
	Level              int              `json:"level"`
	BestStreak         int              `json:"best_streak"`
	StudyTimeMinutes   int              `json:"study_time_minutes"`
	Subjects           []SubjectSummary `json:"subjects"`
}

// PerformanceReport описывает производительность за период
type PerformanceReport struct {
	Period            string  `json:"period"`
	ExamsTaken        int     `json:"exams_taken"`
	AveragePercentage float64 `json:"average_percentage"`
	BestPercentage    float64 `json:"best_percentage"`
	TotalScore        float64 `json:"total_score"`
	// ImprovementRate: средний процент второй половины окна минус первой
	ImprovementRate float64 `json:"improvement_rate"`
}

// Dashboard объединяет ключевые показатели для главного экрана
type Dashboard struct {
	User          *entity.User    `json:"user"`
	Overall       OverallProgress `json:"overall"`
	RecentResults []entity.Result `json:"recent_results"`
	TopWeaknesses []string        `json:"top_weaknesses"`
}

// LeaderboardPage представляет страницу рейтинга
type LeaderboardPage struct {
	Entries  []repository.LeaderboardEntry `json:"entries"`
	Total    int64                         `json:"total"`
	Page     int                           `json:"page"`
	PageSize int                           `json:"page_size"`
}

// TopicAccuracy описывает точность по теме
type TopicAccuracy struct {
	Subject   string  `json:"subject"`
	Topic     string  `json:"topic"`
	Accuracy  float64 `json:"accuracy"`
	Attempted int     `json:"attempted"`
}

// StrengthsWeaknesses разделяет темы на сильные и слабые
type StrengthsWeaknesses struct {
	Strengths  []TopicAccuracy `json:"strengths"`
	Weaknesses []TopicAccuracy `json:"weaknesses"`
}

// Recommendation представляет совет по обучению
type Recommendation struct {
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message"`
}

// TrendPoint представляет точку графика успеваемости
type TrendPoint struct {
	Date              string  `json:"date"`
	AveragePercentage float64 `json:"average_percentage"`
	ExamCount         int     `json:"exam_count"`
}

// AnalyticsService строит отчеты по успеваемости и рейтинг пользователей
type AnalyticsService struct {
	progressRepo repository.ProgressRepository
	resultRepo   repository.ResultRepository
	userRepo     repository.UserRepository
	cacheRepo    repository.CacheRepository
}

// NewAnalyticsService создает новый сервис аналитики
func NewAnalyticsService(
	progressRepo repository.ProgressRepository,
	resultRepo repository.ResultRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
) (*AnalyticsService, error) {
	if progressRepo == nil {
		return nil, fmt.Errorf("progressRepo cannot be nil")
	}
	if resultRepo == nil {
		return nil, fmt.Errorf("resultRepo cannot be nil")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("userRepo cannot be nil")
	}
	return &AnalyticsService{
		progressRepo: progressRepo,
		resultRepo:   resultRepo,
		userRepo:     userRepo,
		cacheRepo:    cacheRepo,
	}, nil
}

// GetProgress возвращает записи прогресса пользователя
func (s *AnalyticsService) GetProgress(userID uint, subject string) ([]entity.Progress, error) {
	return s.progressRepo.ListByUser(userID, subject)
}

// GetOverall агрегирует прогресс по всем предметам пользователя
func (s *AnalyticsService) GetOverall(userID uint) (*OverallProgress, error) {
	items, err := s.progressRepo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}
	return aggregateOverall(items), nil
}

// GetPerformance строит отчет производительности за период
func (s *AnalyticsService) GetPerformance(userID uint, period string) (*PerformanceReport, error) {
	var window time.Duration
	switch period {
	case PeriodDaily:
		window = 24 * time.Hour
	case PeriodWeekly:
		window = 7 * 24 * time.Hour
	case PeriodMonthly:
		window = 30 * 24 * time.Hour
	default:
		return nil, fmt.Errorf("%w: invalid period %q", apperrors.ErrValidation, period)
	}

	results, err := s.resultRepo.ListByUserSince(userID, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{Period: period, ExamsTaken: len(results)}
	if len(results) == 0 {
		return report, nil
	}

	var sum float64
	for _, r := range results {
		sum += r.Percentage
		report.TotalScore += r.TotalScore
		if r.Percentage > report.BestPercentage {
			report.BestPercentage = r.Percentage
		}
	}
	report.AveragePercentage = sum / float64(len(results))
	report.ImprovementRate = ImprovementRate(results)

	return report, nil
}

// GetDashboard объединяет профиль, общий прогресс и последние результаты
func (s *AnalyticsService) GetDashboard(userID uint) (*Dashboard, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	items, err := s.progressRepo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}

	recent, _, err := s.resultRepo.ListByUser(userID, 5, 0)
	if err != nil {
		return nil, err
	}

	// Худшие темы среди тех, где есть заметная практика
	weaknesses := make([]TopicAccuracy, 0)
	for _, p := range items {
		if p.QuestionsAttempted >= 3 && p.AverageAccuracy < weaknessAccuracyThreshold {
			weaknesses = append(weaknesses, TopicAccuracy{
				Subject:   p.Subject,
				Topic:     p.Topic,
				Accuracy:  p.AverageAccuracy,
				Attempted: p.QuestionsAttempted,
			})
		}
	}
	sort.Slice(weaknesses, func(i, j int) bool { return weaknesses[i].Accuracy < weaknesses[j].Accuracy })

	top := make([]string, 0, 3)
	for i, w := range weaknesses {
		if i == 3 {
			break
		}
		top = append(top, fmt.Sprintf("%s: %s", w.Subject, w.Topic))
	}

	return &Dashboard{
		User:          user,
		Overall:       *aggregateOverall(items),
		RecentResults: recent,
		TopWeaknesses: top,
	}, nil
}

// GetLeaderboard возвращает страницу рейтинга с коротким кешированием
func (s *AnalyticsService) GetLeaderboard(page, pageSize int) (*LeaderboardPage, error) {
	cacheKey := fmt.Sprintf("analytics:leaderboard:%d:%d", page, pageSize)
	if s.cacheRepo != nil {
		var cached LeaderboardPage
		if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	offset := (page - 1) * pageSize
	entries, total, err := s.progressRepo.GetLeaderboard(pageSize, offset)
	if err != nil {
		return nil, err
	}

	result := &LeaderboardPage{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(cacheKey, result, leaderboardCacheTTL); err != nil {
			log.Printf("[AnalyticsService] Не удалось кешировать рейтинг: %v", err)
		}
	}
	return result, nil
}

// GetRecommendations строит советы по обучению из прогресса пользователя
func (s *AnalyticsService) GetRecommendations(userID uint) ([]Recommendation, error) {
	items, err := s.progressRepo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return []Recommendation{{
			Type:    "start",
			Message: "Take your first quiz to start tracking your progress.",
		}}, nil
	}

	recs := make([]Recommendation, 0, 4)
	var lastActivity time.Time

	for _, p := range items {
		if p.LastActivity.After(lastActivity) {
			lastActivity = p.LastActivity
		}
		if p.QuestionsAttempted >= 5 && p.AverageAccuracy < weaknessAccuracyThreshold {
			recs = append(recs, Recommendation{
				Type:    "practice",
				Subject: p.Subject,
				Topic:   p.Topic,
				Message: fmt.Sprintf("Your accuracy in %s (%s) is %.0f%%. Extra practice will help.", p.Topic, p.Subject, p.AverageAccuracy),
			})
		}
		if p.QuestionsAttempted >= 10 && p.AverageAccuracy >= strengthAccuracyThreshold {
			recs = append(recs, Recommendation{
				Type:    "advance",
				Subject: p.Subject,
				Topic:   p.Topic,
				Message: fmt.Sprintf("You are strong in %s (%s). Try harder questions to keep growing.", p.Topic, p.Subject),
			})
		}
	}

	if !lastActivity.IsZero() && time.Since(lastActivity) > 7*24*time.Hour {
		recs = append(recs, Recommendation{
			Type:    "comeback",
			Message: "It has been over a week since your last session. A short daily practice keeps knowledge fresh.",
		})
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Type:    "keep_going",
			Message: "You are on track. Keep a steady practice schedule.",
		})
	}
	return recs, nil
}

// GetStrengthsWeaknesses разделяет темы пользователя на сильные и слабые
func (s *AnalyticsService) GetStrengthsWeaknesses(userID uint) (*StrengthsWeaknesses, error) {
	items, err := s.progressRepo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}

	out := &StrengthsWeaknesses{
		Strengths:  []TopicAccuracy{},
		Weaknesses: []TopicAccuracy{},
	}
	for _, p := range items {
		if p.QuestionsAttempted < 3 {
			continue
		}
		entry := TopicAccuracy{
			Subject:   p.Subject,
			Topic:     p.Topic,
			Accuracy:  p.AverageAccuracy,
			Attempted: p.QuestionsAttempted,
		}
		if p.AverageAccuracy >= strengthAccuracyThreshold {
			out.Strengths = append(out.Strengths, entry)
		} else if p.AverageAccuracy < weaknessAccuracyThreshold {
			out.Weaknesses = append(out.Weaknesses, entry)
		}
	}

	sort.Slice(out.Strengths, func(i, j int) bool { return out.Strengths[i].Accuracy > out.Strengths[j].Accuracy })
	sort.Slice(out.Weaknesses, func(i, j int) bool { return out.Weaknesses[i].Accuracy < out.Weaknesses[j].Accuracy })
	return out, nil
}

// GetTrends строит дневные средние по результатам за последние days дней
func (s *AnalyticsService) GetTrends(userID uint, days int) ([]TrendPoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	results, err := s.resultRepo.ListByUserSince(userID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum   float64
		count int
	}
	byDay := map[string]*bucket{}
	for _, r := range results {
		day := r.CompletedAt.Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
		}
		b.sum += r.Percentage
		b.count++
	}

	points := make([]TrendPoint, 0, len(byDay))
	for day, b := range byDay {
		points = append(points, TrendPoint{
			Date:              day,
			AveragePercentage: b.sum / float64(b.count),
			ExamCount:         b.count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// GetResultsForExport возвращает результаты пользователя для выгрузки
func (s *AnalyticsService) GetResultsForExport(userID uint) ([]entity.Result, error) {
	results, _, err := s.resultRepo.ListByUser(userID, exportResultsLimit, 0)
	return results, err
}

// ImprovementRate считает разницу средних процентов второй и первой
// половины упорядоченного по времени списка результатов
func ImprovementRate(results []entity.Result) float64 {
	if len(results) < 2 {
		return 0
	}

	half := len(results) / 2
	first := results[:half]
	second := results[half:]

	var firstSum, secondSum float64
	for _, r := range first {
		firstSum += r.Percentage
	}
	for _, r := range second {
		secondSum += r.Percentage
	}

	return secondSum/float64(len(second)) - firstSum/float64(len(first))
}

func aggregateOverall(items []entity.Progress) *OverallProgress {
	overall := &OverallProgress{Level: 1, Subjects: []SubjectSummary{}}

	bySubject := map[string]*SubjectSummary{}
	for _, p := range items {
		overall.QuestionsAttempted += p.QuestionsAttempted
		overall.QuestionsCorrect += p.QuestionsCorrect
		overall.TotalPoints += p.TotalPoints
		overall.StudyTimeMinutes += p.StudyTimeMinutes
		if p.Level > overall.Level {
			overall.Level = p.Level
		}
		if p.BestStreak > overall.BestStreak {
			overall.BestStreak = p.BestStreak
		}

		summary, ok := bySubject[p.Subject]
		if !ok {
			summary = &SubjectSummary{Subject: p.Subject}
			bySubject[p.Subject] = summary
		}
		summary.QuestionsAttempted += p.QuestionsAttempted
		summary.QuestionsCorrect += p.QuestionsCorrect
		summary.TotalPoints += p.TotalPoints
	}

	if overall.QuestionsAttempted > 0 {
		overall.OverallAccuracy = float64(overall.QuestionsCorrect) / float64(overall.QuestionsAttempted) * 100
	}

	for _, summary := range bySubject {
		if summary.QuestionsAttempted > 0 {
			summary.Accuracy = float64(summary.QuestionsCorrect) / float64(summary.QuestionsAttempted) * 100
		}
		overall.Subjects = append(overall.Subjects, *summary)
	}
	sort.Slice(overall.Subjects, func(i, j int) bool {
		return overall.Subjects[i].Subject < overall.Subjects[j].Subject
	})

	return overall
}
