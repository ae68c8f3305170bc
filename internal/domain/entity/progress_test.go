package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Accuracy(t *testing.T) {
	p := &Progress{QuestionsAttempted: 10, QuestionsCorrect: 7}
	assert.InDelta(t, 70.0, p.Accuracy(), 0.001)

	// Без попыток точность равна нулю, деления на ноль нет
	empty := &Progress{}
	assert.Equal(t, 0.0, empty.Accuracy())
}

func TestProgress_RecordExam_SuccessfulAttempt(t *testing.T) {
	// Arrange: чистый прогресс
	p := &Progress{Level: 1}

	// Act: сдача на 80% с 8 правильными из 10, суммарный балл 8.0
	p.RecordExam(10, 8, 8.0, 80.0)

	// Assert
	assert.Equal(t, 10, p.QuestionsAttempted)
	assert.Equal(t, 8, p.QuestionsCorrect)
	assert.InDelta(t, 8.0, p.TotalScore, 0.001)
	assert.InDelta(t, 80.0, p.AverageAccuracy, 0.001)
	assert.Equal(t, 1, p.StreakCount, "Серия должна вырасти при результате от 70%")
	assert.Equal(t, 1, p.BestStreak)
	assert.Equal(t, int64(80), p.TotalPoints, "Очки начисляются как score*10")
	assert.Equal(t, 1, p.Level)
	assert.False(t, p.LastActivity.IsZero())
}

func TestProgress_RecordExam_FailedAttemptResetsStreak(t *testing.T) {
	// Arrange: пользователь с текущей серией
	p := &Progress{StreakCount: 3, BestStreak: 5, Level: 1}

	// Act: сдача ниже порога
	p.RecordExam(5, 2, 2.0, 40.0)

	// Assert: серия сброшена, лучший результат сохранен
	assert.Equal(t, 0, p.StreakCount)
	assert.Equal(t, 5, p.BestStreak)
}

func TestProgress_RecordExam_LevelUp(t *testing.T) {
	// Arrange: на пороге следующего уровня
	p := &Progress{TotalPoints: 950, Level: 1}

	// Act: +10 очков за score 1.0... нужно больше, берем score 10.0 => +100
	p.RecordExam(10, 10, 10.0, 100.0)

	// Assert: 1050 очков => уровень 2
	assert.Equal(t, int64(1050), p.TotalPoints)
	assert.Equal(t, 2, p.Level)
}

func TestProgress_RecordExam_BestStreakTracksCurrent(t *testing.T) {
	p := &Progress{StreakCount: 4, BestStreak: 4, Level: 1}

	p.RecordExam(5, 5, 5.0, 100.0)

	assert.Equal(t, 5, p.StreakCount)
	assert.Equal(t, 5, p.BestStreak, "BestStreak должен расти вместе с текущей серией")
}

func TestResult_Passed(t *testing.T) {
	assert.True(t, (&Result{Percentage: 70}).Passed())
	assert.True(t, (&Result{Percentage: 95.5}).Passed())
	assert.False(t, (&Result{Percentage: 69.9}).Passed())
}
