package errors

import "errors"

// Стандартные ошибки приложения.
// Репозитории и сервисы оборачивают их через fmt.Errorf("%w: ...", err),
// а хендлеры отображают в HTTP-коды.
var (
	// ErrNotFound возвращается, когда запрашиваемый ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrConflict возвращается при конфликте уникальности (email, username и т.п.)
	ErrConflict = errors.New("resource conflict")

	// ErrValidation возвращается при ошибке валидации входных данных
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized возвращается при ошибке аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden возвращается, когда у пользователя нет прав на операцию
	ErrForbidden = errors.New("forbidden")

	// ErrExpiredToken возвращается при истекшем токене
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidToken возвращается при некорректном или подделанном токене
	ErrInvalidToken = errors.New("invalid token")

	// ErrAIUnavailable возвращается, когда внешний AI-сервис не настроен
	// или не вернул пригодный ответ
	ErrAIUnavailable = errors.New("ai service unavailable")

	// ErrInternal возвращается при внутренней ошибке сервера
	ErrInternal = errors.New("internal server error")
)
