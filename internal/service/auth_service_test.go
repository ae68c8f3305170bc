package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/eduai-api/internal/domain/entity"
	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
	"github.com/yourusername/eduai-api/pkg/auth"
)

func newTestAuthService(t *testing.T, userRepo *MockUserRepository, tokenRepo *MockRefreshTokenRepository, cacheRepo *MockCacheRepository) *AuthService {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 30*time.Minute, 7*24*time.Hour, "eduai-test")
	require.NoError(t, err)

	svc, err := NewAuthService(userRepo, tokenRepo, cacheRepo, jwtService, &NoopEmailService{})
	require.NoError(t, err)
	return svc
}

func activeUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &entity.User{
		ID:       42,
		Username: "student1",
		Email:    "student@example.com",
		Password: string(hash),
		Role:     entity.RoleStudent,
		IsActive: true,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByUsername", "newuser").Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)

	// Act
	user, err := svc.Register(RegisterInput{
		Username: "newuser",
		Email:    "New@Example.com",
		Password: "password123",
		FullName: "New User",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)
	assert.Equal(t, "new@example.com", user.Email, "Email должен нормализоваться в нижний регистр")
	assert.Equal(t, entity.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	userRepo.On("GetByEmail", "taken@example.com").Return(&entity.User{ID: 1}, nil)

	_, err := svc.Register(RegisterInput{
		Username: "newuser",
		Email:    "taken@example.com",
		Password: "password123",
	})

	assert.True(t, errors.Is(err, apperrors.ErrConflict), "Занятый email должен давать ErrConflict")
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	_, err := svc.Register(RegisterInput{
		Username: "newuser",
		Email:    "new@example.com",
		Password: "short",
	})

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAuthService_Login_ByEmail(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	userRepo.On("GetByEmail", "student@example.com").Return(user, nil)
	userRepo.On("UpdateLastLogin", user.ID).Return(nil)
	tokenRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	// Act: идентификатор с "@" трактуется как email
	pair, loggedIn, err := svc.Login("Student@Example.com", "password123", SessionMeta{DeviceID: "dev-1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int((30 * time.Minute).Seconds()), pair.ExpiresIn)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Login_ByUsername(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	userRepo.On("GetByUsername", "student1").Return(user, nil)
	userRepo.On("UpdateLastLogin", user.ID).Return(nil)
	tokenRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	// Идентификатор без "@" трактуется как имя пользователя
	_, _, err := svc.Login("student1", "password123", SessionMeta{})

	require.NoError(t, err)
	userRepo.AssertNotCalled(t, "GetByEmail", mock.Anything)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	userRepo.On("GetByUsername", "student1").Return(user, nil)

	_, _, err := svc.Login("student1", "wrongpassword", SessionMeta{})

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	tokenRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	userRepo.On("GetByUsername", "ghost").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login("ghost", "password123", SessionMeta{})

	// Ошибка не раскрывает, существует ли пользователь
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	user.IsActive = false
	userRepo.On("GetByUsername", "student1").Return(user, nil)

	_, _, err := svc.Login("student1", "password123", SessionMeta{})

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	// Arrange: пользователь входит, затем обновляет пару токенов
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	userRepo.On("GetByEmail", user.Email).Return(user, nil)
	userRepo.On("GetByID", user.ID).Return(user, nil)
	userRepo.On("UpdateLastLogin", user.ID).Return(nil)
	tokenRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	pair, _, err := svc.Login(user.Email, "password123", SessionMeta{})
	require.NoError(t, err)

	session := entity.NewRefreshToken(user.ID, auth.HashToken(pair.RefreshToken), "dev", "", "", time.Now().Add(time.Hour))
	tokenRepo.On("GetByHash", auth.HashToken(pair.RefreshToken)).Return(session, nil)
	tokenRepo.On("Update", session).Return(nil)

	// Act
	newPair, err := svc.Refresh(pair.RefreshToken, SessionMeta{})

	// Assert: старая сессия отозвана, выпущена новая пара
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)
	assert.NotNil(t, session.RevokedAt, "Старая сессия должна быть отозвана при ротации")
	assert.Equal(t, "rotated", session.Reason)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	jwtService, err := auth.NewJWTService("test-secret", time.Minute, time.Hour, "eduai-test")
	require.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(1, "a@example.com", "student")
	require.NoError(t, err)

	_, err = svc.Refresh(accessToken, SessionMeta{})

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "Access-токен не должен приниматься для обновления")
	tokenRepo.AssertNotCalled(t, "GetByHash", mock.Anything)
}

func TestAuthService_Refresh_RevokedSession(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	jwtService, err := auth.NewJWTService("test-secret", time.Minute, time.Hour, "eduai-test")
	require.NoError(t, err)
	refreshToken, err := jwtService.GenerateRefreshToken(42, "student@example.com", "student")
	require.NoError(t, err)

	session := entity.NewRefreshToken(42, auth.HashToken(refreshToken), "dev", "", "", time.Now().Add(time.Hour))
	session.Revoke("logout")
	tokenRepo.On("GetByHash", auth.HashToken(refreshToken)).Return(session, nil)

	_, err = svc.Refresh(refreshToken, SessionMeta{})

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "Отозванная сессия не должна обновляться")
}

func TestAuthService_Logout_IsIdempotent(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	// Неизвестная сессия: выход все равно успешен
	tokenRepo.On("GetByHash", mock.Anything).Return(nil, apperrors.ErrNotFound)

	err := svc.Logout("some-unknown-token")
	assert.NoError(t, err)
}

func TestAuthService_ChangePassword(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "oldpassword1")
	userRepo.On("GetByID", user.ID).Return(user, nil)
	userRepo.On("UpdatePassword", user.ID, mock.AnythingOfType("string")).Return(nil)
	tokenRepo.On("RevokeAllByUser", user.ID, "password_changed").Return(int64(2), nil)

	// Act
	err := svc.ChangePassword(user.ID, "oldpassword1", "newpassword1")

	// Assert: пароль обновлен, все сессии отозваны
	require.NoError(t, err)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "oldpassword1")
	userRepo.On("GetByID", user.ID).Return(user, nil)

	err := svc.ChangePassword(user.ID, "not-the-password", "newpassword1")

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	// Неизвестный адрес не приводит к ошибке и не пишет код в кеш
	err := svc.ForgotPassword(context.Background(), "ghost@example.com")

	assert.NoError(t, err)
	cacheRepo.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_StoresCode(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	userRepo.On("GetByEmail", user.Email).Return(user, nil)
	cacheRepo.On("Set", resetCodeKeyPrefix+user.Email, mock.AnythingOfType("string"), resetCodeTTL).Return(nil)

	err := svc.ForgotPassword(context.Background(), user.Email)

	require.NoError(t, err)
	cacheRepo.AssertExpectations(t)
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	user := activeUser(t, "password123")
	cacheRepo.On("Get", resetCodeKeyPrefix+user.Email).Return("123456", nil)
	cacheRepo.On("Delete", resetCodeKeyPrefix+user.Email).Return(nil)
	userRepo.On("GetByEmail", user.Email).Return(user, nil)
	userRepo.On("UpdatePassword", user.ID, mock.AnythingOfType("string")).Return(nil)
	tokenRepo.On("RevokeAllByUser", user.ID, "password_reset").Return(int64(1), nil)

	// Act
	err := svc.ResetPassword(context.Background(), user.Email, "123456", "brandnewpass1")

	// Assert: код одноразовый, сессии отозваны
	require.NoError(t, err)
	cacheRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_ResetPassword_WrongCode(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockRefreshTokenRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestAuthService(t, userRepo, tokenRepo, cacheRepo)

	cacheRepo.On("Get", resetCodeKeyPrefix+"student@example.com").Return("123456", nil)

	err := svc.ResetPassword(context.Background(), "student@example.com", "000000", "brandnewpass1")

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}
