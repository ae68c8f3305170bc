package repository

import (
	"time"

	"github.com/yourusername/eduai-api/internal/domain/entity"
)

// ResultRepository определяет методы для работы с результатами сдач
type ResultRepository interface {
	// CreateWithAnswers сохраняет результат и его ответы в одной транзакции
	CreateWithAnswers(result *entity.Result, answers []entity.Answer) error
	GetByID(id uint) (*entity.Result, error)
	ListByUser(userID uint, limit, offset int) ([]entity.Result, int64, error)
	// ListByUserSince возвращает результаты пользователя начиная с указанной даты,
	// отсортированные по времени завершения по возрастанию
	ListByUserSince(userID uint, since time.Time) ([]entity.Result, error)
}
