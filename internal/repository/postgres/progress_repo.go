package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
)

// ProgressRepo реализует repository.ProgressRepository с использованием GORM
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// GetOrCreate возвращает запись прогресса по тройке (user, subject, topic),
// создавая пустую при отсутствии
func (r *ProgressRepo) GetOrCreate(userID uint, subject, topic string) (*entity.Progress, error) {
	var progress entity.Progress
	err := r.db.Where("user_id = ? AND subject = ? AND topic = ?", userID, subject, topic).
		First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = entity.Progress{
		UserID:       userID,
		Subject:      subject,
		Topic:        topic,
		Level:        1,
		LastActivity: time.Now(),
	}
	if err := r.db.Create(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// Update сохраняет запись прогресса
func (r *ProgressRepo) Update(progress *entity.Progress) error {
	return r.db.Save(progress).Error
}

// ListByUser возвращает записи прогресса пользователя; subject может быть пустым
func (r *ProgressRepo) ListByUser(userID uint, subject string) ([]entity.Progress, error) {
	query := r.db.Where("user_id = ?", userID)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var items []entity.Progress
	err := query.Order("subject ASC, topic ASC").Find(&items).Error
	return items, err
}

// GetLeaderboard агрегирует очки по пользователям с пагинацией.
// Выполняется в транзакции, чтобы количество и страница были согласованы.
func (r *ProgressRepo) GetLeaderboard(limit, offset int) ([]repository.LeaderboardEntry, int64, error) {
	var entries []repository.LeaderboardEntry
	var total int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Progress{}).
			Distinct("user_id").
			Count(&total).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Progress{}).
			Select("progress.user_id, users.username, users.full_name, users.avatar_url, " +
				"SUM(progress.total_points) AS total_points, " +
				"MAX(progress.level) AS level, " +
				"MAX(progress.best_streak) AS best_streak").
			Joins("JOIN users ON users.id = progress.user_id").
			Group("progress.user_id, users.username, users.full_name, users.avatar_url").
			Order("total_points DESC").
			Limit(limit).Offset(offset).
			Scan(&entries).Error
	})
	if err != nil {
		return nil, 0, err
	}

	// Ранг вычисляется от смещения страницы
	for i := range entries {
		entries[i].Rank = offset + i + 1
	}
	return entries, total, nil
}
