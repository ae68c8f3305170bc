package repository

import (
	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// LeaderboardEntry представляет строку рейтинга пользователей
type LeaderboardEntry struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	TotalPoints int64  `json:"total_points"`
	Level       int    `json:"level"`
	BestStreak  int    `json:"best_streak"`
	Rank        int    `json:"rank"`
}

// ProgressRepository определяет методы для работы с прогрессом обучения
type ProgressRepository interface {
	// GetOrCreate возвращает запись прогресса по тройке (user, subject, topic),
	// создавая пустую при отсутствии
	GetOrCreate(userID uint, subject, topic string) (*entity.Progress, error)
	Update(progress *entity.Progress) error
	// ListByUser возвращает записи прогресса; subject может быть пустым
	ListByUser(userID uint, subject string) ([]entity.Progress, error)
	// GetLeaderboard агрегирует очки по пользователям с пагинацией
	GetLeaderboard(limit, offset int) ([]LeaderboardEntry, int64, error)
}
