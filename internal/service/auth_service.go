package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	"github.com/yourusername/eduai-api/internal/domain/repository"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
	"github.com/yourusername/eduai-api/pkg/auth"
)

const (
	minPasswordLength  = 8
	resetCodeTTL       = 15 * time.Minute
	resetCodeKeyPrefix = "pwreset:"
)

// TokenPair представляет выпущенную пару токенов
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// SessionMeta описывает клиента, которому выпускается refresh-сессия
type SessionMeta struct {
	DeviceID  string
	IPAddress string
	UserAgent string
}

// AuthService управляет регистрацией, входом и жизненным циклом токенов
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	cacheRepo        repository.CacheRepository
	jwtService       *auth.JWTService
	emailService     EmailService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	cacheRepo repository.CacheRepository,
	jwtService *auth.JWTService,
	emailService EmailService,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("userRepo cannot be nil")
	}
	if refreshTokenRepo == nil {
		return nil, fmt.Errorf("refreshTokenRepo cannot be nil")
	}
	if cacheRepo == nil {
		return nil, fmt.Errorf("cacheRepo cannot be nil")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwtService cannot be nil")
	}
	if emailService == nil {
		emailService = &NoopEmailService{}
	}
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cacheRepo:        cacheRepo,
		jwtService:       jwtService,
		emailService:     emailService,
	}, nil
}

// RegisterInput содержит данные регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register регистрирует нового пользователя
func (s *AuthService) Register(input RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", apperrors.ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	// Проверяем занятость email
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	// Проверяем занятость имени пользователя
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("%w: username is already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: input.Password, // хешируется в BeforeSave
		FullName: strings.TrimSpace(input.FullName),
		Role:     entity.RoleStudent,
		IsActive: true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь id=%d username=%s", user.ID, user.Username)
	return user, nil
}

// Login аутентифицирует пользователя по email или имени пользователя
func (s *AuthService) Login(identifier, password string, meta SessionMeta) (*TokenPair, *entity.User, error) {
	identifier = strings.TrimSpace(identifier)

	var user *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is deactivated", apperrors.ErrForbidden)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		// Не критично для входа
		log.Printf("[AuthService] Не удалось обновить время входа user=%d: %v", user.ID, err)
	}

	pair, err := s.issueTokens(user, meta)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh обменивает refresh-токен на новую пару токенов с ротацией сессии
func (s *AuthService) Refresh(refreshToken string, meta SessionMeta) (*TokenPair, error) {
	claims, err := s.jwtService.ParseToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, apperrors.ErrExpiredToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: invalid refresh token", apperrors.ErrUnauthorized)
	}

	session, err := s.refreshTokenRepo.GetByHash(auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh session", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load refresh session: %w", err)
	}
	if !session.IsValid() {
		return nil, fmt.Errorf("%w: refresh session is revoked or expired", apperrors.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperrors.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", apperrors.ErrForbidden)
	}

	// Ротация: старая сессия отзывается, выпускается новая
	session.Revoke("rotated")
	if err := s.refreshTokenRepo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh session: %w", err)
	}

	return s.issueTokens(user, meta)
}

// Logout отзывает refresh-сессию предъявленного токена
func (s *AuthService) Logout(refreshToken string) error {
	session, err := s.refreshTokenRepo.GetByHash(auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Сессии уже нет, считаем выход успешным
			return nil
		}
		return fmt.Errorf("failed to load refresh session: %w", err)
	}
	if session.RevokedAt != nil {
		return nil
	}

	session.Revoke("logout")
	return s.refreshTokenRepo.Update(session)
}

// LogoutAll отзывает все живые сессии пользователя
func (s *AuthService) LogoutAll(userID uint) (int64, error) {
	count, err := s.refreshTokenRepo.RevokeAllByUser(userID, "logout_all")
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	log.Printf("[AuthService] Отозвано %d сессий пользователя %d", count, userID)
	return count, nil
}

// GetActiveSessions возвращает живые refresh-сессии пользователя
func (s *AuthService) GetActiveSessions(userID uint) ([]entity.RefreshToken, error) {
	return s.refreshTokenRepo.ListActiveByUser(userID)
}

// GetProfile возвращает профиль пользователя
func (s *AuthService) GetProfile(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile обновляет изменяемые поля профиля
func (s *AuthService) UpdateProfile(userID uint, fullName, avatarURL *string) (*entity.User, error) {
	updates := map[string]interface{}{}
	if fullName != nil {
		updates["full_name"] = strings.TrimSpace(*fullName)
	}
	if avatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*avatarURL)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperrors.ErrValidation)
	}

	if err := s.userRepo.UpdateProfile(userID, updates); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// ChangePassword меняет пароль после проверки текущего
// и отзывает все refresh-сессии пользователя
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if !user.CheckPassword(currentPassword) {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrUnauthorized)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(userID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := s.refreshTokenRepo.RevokeAllByUser(userID, "password_changed"); err != nil {
		log.Printf("[AuthService] Не удалось отозвать сессии после смены пароля user=%d: %v", userID, err)
	}
	return nil
}

// ForgotPassword отправляет код сброса пароля, если email существует.
// Ответ одинаковый для существующих и несуществующих адресов.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли адрес
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	if err := s.cacheRepo.Set(resetCodeKeyPrefix+email, code, resetCodeTTL); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.emailService.SendPasswordResetCode(ctx, email, code, uuid.NewString()); err != nil {
		return fmt.Errorf("failed to send reset code: %w", err)
	}

	log.Printf("[AuthService] Код сброса пароля отправлен user=%d", user.ID)
	return nil
}

// ResetPassword устанавливает новый пароль по коду из письма.
// Код одноразовый: после успешного сброса удаляется из кеша.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	stored, err := s.cacheRepo.Get(resetCodeKeyPrefix + email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: reset code is invalid or expired", apperrors.ErrUnauthorized)
		}
		return fmt.Errorf("failed to load reset code: %w", err)
	}
	if stored != strings.TrimSpace(code) {
		return fmt.Errorf("%w: reset code is invalid or expired", apperrors.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return fmt.Errorf("%w: reset code is invalid or expired", apperrors.ErrUnauthorized)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.cacheRepo.Delete(resetCodeKeyPrefix + email); err != nil {
		log.Printf("[AuthService] Не удалось удалить код сброса для %s: %v", email, err)
	}
	if _, err := s.refreshTokenRepo.RevokeAllByUser(user.ID, "password_reset"); err != nil {
		log.Printf("[AuthService] Не удалось отозвать сессии после сброса пароля user=%d: %v", user.ID, err)
	}
	return nil
}

func (s *AuthService) issueTokens(user *entity.User, meta SessionMeta) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	deviceID := meta.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	session := entity.NewRefreshToken(
		user.ID,
		auth.HashToken(refreshToken),
		deviceID,
		meta.IPAddress,
		meta.UserAgent,
		time.Now().Add(s.jwtService.RefreshExpiry()),
	)
	if err := s.refreshTokenRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to persist refresh session: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwtService.AccessExpiry().Seconds()),
	}, nil
}

// generateResetCode возвращает криптослучайный 6-значный код
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
