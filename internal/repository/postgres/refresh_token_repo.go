package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// RefreshTokenRepo реализует repository.RefreshTokenRepository с использованием GORM
type RefreshTokenRepo struct {
	db *gorm.DB
}

// NewRefreshTokenRepo создает новый репозиторий refresh-сессий
func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Create сохраняет новую refresh-сессию
func (r *RefreshTokenRepo) Create(token *entity.RefreshToken) error {
	return r.db.Create(token).Error
}

// GetByHash возвращает сессию по хешу токена
func (r *RefreshTokenRepo) GetByHash(tokenHash string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken
	err := r.db.Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Update сохраняет изменения сессии (в частности отзыв)
func (r *RefreshTokenRepo) Update(token *entity.RefreshToken) error {
	return r.db.Save(token).Error
}

// RevokeAllByUser отзывает все живые сессии пользователя
func (r *RefreshTokenRepo) RevokeAllByUser(userID uint, reason string) (int64, error) {
	now := time.Now()
	result := r.db.Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Updates(map[string]interface{}{
			"revoked_at": now,
			"reason":     reason,
		})
	return result.RowsAffected, result.Error
}

// ListActiveByUser возвращает живые сессии пользователя
func (r *RefreshTokenRepo) ListActiveByUser(userID uint) ([]entity.RefreshToken, error) {
	var tokens []entity.RefreshToken
	err := r.db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

// DeleteExpired удаляет сессии, истекшие более суток назад
func (r *RefreshTokenRepo) DeleteExpired() (int64, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := r.db.Where("expires_at < ?", cutoff).Delete(&entity.RefreshToken{})
	return result.RowsAffected, result.Error
}
