package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

type analyticsMocks struct {
	progressRepo *MockProgressRepository
	resultRepo   *MockResultRepository
	userRepo     *MockUserRepository
	cacheRepo    *MockCacheRepository
}

func newTestAnalyticsService(t *testing.T) (*AnalyticsService, *analyticsMocks) {
	t.Helper()
	m := &analyticsMocks{
		progressRepo: new(MockProgressRepository),
		resultRepo:   new(MockResultRepository),
		userRepo:     new(MockUserRepository),
		cacheRepo:    new(MockCacheRepository),
	}
	svc, err := NewAnalyticsService(m.progressRepo, m.resultRepo, m.userRepo, m.cacheRepo)
	require.NoError(t, err)
	return svc, m
}

func TestImprovementRate(t *testing.T) {
	tests := []struct {
		name        string
		percentages []float64
		want        float64
	}{
		{"рост", []float64{50, 60, 70, 80}, 20},
		{"падение", []float64{80, 70, 60, 50}, -20},
		{"стабильно", []float64{70, 70, 70, 70}, 0},
		{"нечетное число сдач", []float64{40, 60, 80}, 30}, // первая половина [40], вторая [60, 80]
		{"одна сдача", []float64{90}, 0},
		{"нет сдач", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]entity.Result, 0, len(tt.percentages))
			for _, p := range tt.percentages {
				results = append(results, entity.Result{Percentage: p})
			}
			assert.InDelta(t, tt.want, ImprovementRate(results), 0.001)
		})
	}
}

func TestAggregateOverall(t *testing.T) {
	// Arrange: две темы математики и одна физики
	items := []entity.Progress{
		{Subject: "Mathematics", Topic: "Algebra", QuestionsAttempted: 10, QuestionsCorrect: 8, TotalPoints: 300, Level: 2, BestStreak: 4, StudyTimeMinutes: 30},
		{Subject: "Mathematics", Topic: "Geometry", QuestionsAttempted: 10, QuestionsCorrect: 4, TotalPoints: 150, Level: 1, BestStreak: 2, StudyTimeMinutes: 20},
		{Subject: "Physics", Topic: "Mechanics", QuestionsAttempted: 5, QuestionsCorrect: 5, TotalPoints: 100, Level: 1, BestStreak: 5, StudyTimeMinutes: 10},
	}

	// Act
	overall := aggregateOverall(items)

	// Assert: суммы и максимумы
	assert.Equal(t, 25, overall.QuestionsAttempted)
	assert.Equal(t, 17, overall.QuestionsCorrect)
	assert.Equal(t, int64(550), overall.TotalPoints)
	assert.Equal(t, 60, overall.StudyTimeMinutes)
	assert.Equal(t, 2, overall.Level, "Общий уровень — максимум по темам")
	assert.Equal(t, 5, overall.BestStreak)
	assert.InDelta(t, 68.0, overall.OverallAccuracy, 0.001)

	// Предметы агрегированы и отсортированы по имени
	require.Len(t, overall.Subjects, 2)
	assert.Equal(t, "Mathematics", overall.Subjects[0].Subject)
	assert.Equal(t, 20, overall.Subjects[0].QuestionsAttempted)
	assert.InDelta(t, 60.0, overall.Subjects[0].Accuracy, 0.001)
	assert.Equal(t, "Physics", overall.Subjects[1].Subject)
	assert.InDelta(t, 100.0, overall.Subjects[1].Accuracy, 0.001)
}

func TestAggregateOverall_Empty(t *testing.T) {
	overall := aggregateOverall(nil)

	assert.Equal(t, 1, overall.Level, "Уровень по умолчанию равен 1")
	assert.Equal(t, 0.0, overall.OverallAccuracy)
	assert.Empty(t, overall.Subjects)
}

func TestAnalyticsService_GetPerformance(t *testing.T) {
	// Arrange
	svc, m := newTestAnalyticsService(t)

	results := []entity.Result{
		{Percentage: 50, TotalScore: 5},
		{Percentage: 70, TotalScore: 7},
		{Percentage: 90, TotalScore: 9},
	}
	m.resultRepo.On("ListByUserSince", uint(42), mock.AnythingOfType("time.Time")).Return(results, nil)

	// Act
	report, err := svc.GetPerformance(42, PeriodWeekly)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, report.Period)
	assert.Equal(t, 3, report.ExamsTaken)
	assert.InDelta(t, 70.0, report.AveragePercentage, 0.001)
	assert.InDelta(t, 90.0, report.BestPercentage, 0.001)
	assert.InDelta(t, 21.0, report.TotalScore, 0.001)
	// Первая половина [50], вторая [70, 90] => +30
	assert.InDelta(t, 30.0, report.ImprovementRate, 0.001)
}

func TestAnalyticsService_GetPerformance_InvalidPeriod(t *testing.T) {
	svc, _ := newTestAnalyticsService(t)

	_, err := svc.GetPerformance(42, "yearly")

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAnalyticsService_GetPerformance_NoResults(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	m.resultRepo.On("ListByUserSince", uint(42), mock.AnythingOfType("time.Time")).Return([]entity.Result{}, nil)

	report, err := svc.GetPerformance(42, PeriodDaily)

	require.NoError(t, err)
	assert.Equal(t, 0, report.ExamsTaken)
	assert.Equal(t, 0.0, report.AveragePercentage)
}

func TestAnalyticsService_GetLeaderboard_CacheMiss(t *testing.T) {
	// Arrange: кеш пуст, данные берутся из репозитория и кешируются
	svc, m := newTestAnalyticsService(t)

	entries := []repository.LeaderboardEntry{
		{UserID: 1, Username: "top", TotalPoints: 1000, Rank: 1},
		{UserID: 2, Username: "second", TotalPoints: 800, Rank: 2},
	}
	m.cacheRepo.On("GetJSON", "analytics:leaderboard:1:20", mock.Anything).Return(apperrors.ErrNotFound)
	m.progressRepo.On("GetLeaderboard", 20, 0).Return(entries, int64(2), nil)
	m.cacheRepo.On("SetJSON", "analytics:leaderboard:1:20", mock.Anything, mock.AnythingOfType("time.Duration")).Return(nil)

	// Act
	page, err := svc.GetLeaderboard(1, 20)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "top", page.Entries[0].Username)
	m.cacheRepo.AssertExpectations(t)
}

func TestAnalyticsService_GetLeaderboard_CacheHit(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	m.cacheRepo.On("GetJSON", "analytics:leaderboard:1:20", mock.Anything).Return(nil)

	_, err := svc.GetLeaderboard(1, 20)

	require.NoError(t, err)
	m.progressRepo.AssertNotCalled(t, "GetLeaderboard", mock.Anything, mock.Anything)
}

func TestAnalyticsService_GetRecommendations_NoHistory(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	m.progressRepo.On("ListByUser", uint(42), "").Return([]entity.Progress{}, nil)

	recs, err := svc.GetRecommendations(42)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "start", recs[0].Type)
}

func TestAnalyticsService_GetRecommendations_WeakAndStrongTopics(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	items := []entity.Progress{
		{Subject: "Math", Topic: "Algebra", QuestionsAttempted: 12, AverageAccuracy: 40, LastActivity: time.Now()},
		{Subject: "Math", Topic: "Geometry", QuestionsAttempted: 15, AverageAccuracy: 90, LastActivity: time.Now()},
	}
	m.progressRepo.On("ListByUser", uint(42), "").Return(items, nil)

	recs, err := svc.GetRecommendations(42)

	require.NoError(t, err)
	types := make([]string, 0, len(recs))
	for _, r := range recs {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, "practice", "Слабая тема должна давать совет practice")
	assert.Contains(t, types, "advance", "Сильная тема должна давать совет advance")
	assert.NotContains(t, types, "comeback", "Недавняя активность не должна давать comeback")
}

func TestAnalyticsService_GetStrengthsWeaknesses(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	items := []entity.Progress{
		{Subject: "Math", Topic: "Algebra", QuestionsAttempted: 10, AverageAccuracy: 95},
		{Subject: "Math", Topic: "Geometry", QuestionsAttempted: 10, AverageAccuracy: 30},
		{Subject: "Math", Topic: "Calculus", QuestionsAttempted: 2, AverageAccuracy: 10}, // мало попыток
		{Subject: "Math", Topic: "Statistics", QuestionsAttempted: 10, AverageAccuracy: 65},
	}
	m.progressRepo.On("ListByUser", uint(42), "").Return(items, nil)

	sw, err := svc.GetStrengthsWeaknesses(42)

	require.NoError(t, err)
	require.Len(t, sw.Strengths, 1)
	assert.Equal(t, "Algebra", sw.Strengths[0].Topic)
	require.Len(t, sw.Weaknesses, 1, "Темы с <3 попытками и средней точностью не попадают в списки")
	assert.Equal(t, "Geometry", sw.Weaknesses[0].Topic)
}

func TestAnalyticsService_GetTrends_GroupsByDay(t *testing.T) {
	// Arrange: две сдачи в один день, одна на следующий
	svc, m := newTestAnalyticsService(t)

	day1 := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)
	results := []entity.Result{
		{Percentage: 60, CompletedAt: day1},
		{Percentage: 80, CompletedAt: day1.Add(2 * time.Hour)},
		{Percentage: 90, CompletedAt: day2},
	}
	m.resultRepo.On("ListByUserSince", uint(42), mock.AnythingOfType("time.Time")).Return(results, nil)

	// Act
	points, err := svc.GetTrends(42, 30)

	// Assert: точки отсортированы по дате, средние по дням
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-08-20", points[0].Date)
	assert.InDelta(t, 70.0, points[0].AveragePercentage, 0.001)
	assert.Equal(t, 2, points[0].ExamCount)
	assert.Equal(t, "2026-08-21", points[1].Date)
	assert.InDelta(t, 90.0, points[1].AveragePercentage, 0.001)
}

func TestAnalyticsService_GetDashboard(t *testing.T) {
	svc, m := newTestAnalyticsService(t)

	user := &entity.User{ID: 42, Username: "student1"}
	items := []entity.Progress{
		{Subject: "Math", Topic: "Algebra", QuestionsAttempted: 10, QuestionsCorrect: 3, AverageAccuracy: 30},
	}
	recent := []entity.Result{{ID: 1, Percentage: 75}}

	m.userRepo.On("GetByID", uint(42)).Return(user, nil)
	m.progressRepo.On("ListByUser", uint(42), "").Return(items, nil)
	m.resultRepo.On("ListByUser", uint(42), 5, 0).Return(recent, int64(1), nil)

	dashboard, err := svc.GetDashboard(42)

	require.NoError(t, err)
	assert.Equal(t, user, dashboard.User)
	assert.Len(t, dashboard.RecentResults, 1)
	require.Len(t, dashboard.TopWeaknesses, 1)
	assert.Equal(t, "Math: Algebra", dashboard.TopWeaknesses[0])
}
