package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "github.com/yourusername/eduai-api/internal/pkg/errors"
)

// Типы токенов, различаемые по claim "token_type"
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims представляет пользовательские JWT claims
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет пары access/refresh токенов.
// Подпись HS256 общим секретом; refresh отличается от access claim'ом
// token_type, поэтому access-токен нельзя предъявить для обновления.
type JWTService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
}

// NewJWTService создает сервис выпуска токенов
func NewJWTService(secret string, accessExpiry, refreshExpiry time.Duration, issuer string) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	if accessExpiry <= 0 {
		accessExpiry = 30 * time.Minute
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	return &JWTService{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		issuer:        issuer,
	}, nil
}

// AccessExpiry возвращает время жизни access-токена
func (s *JWTService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

// RefreshExpiry возвращает время жизни refresh-токена
func (s *JWTService) RefreshExpiry() time.Duration {
	return s.refreshExpiry
}

// GenerateAccessToken выпускает access-токен для пользователя
func (s *JWTService) GenerateAccessToken(userID uint, email, role string) (string, error) {
	return s.generate(userID, email, role, TokenTypeAccess, s.accessExpiry)
}

// GenerateRefreshToken выпускает refresh-токен для пользователя
func (s *JWTService) GenerateRefreshToken(userID uint, email, role string) (string, error) {
	return s.generate(userID, email, role, TokenTypeRefresh, s.refreshExpiry)
}

func (s *JWTService) generate(userID uint, email, role, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и сверяет его тип.
// Истекший токен отображается в apperrors.ErrExpiredToken, все остальные
// проблемы - в apperrors.ErrInvalidToken.
func (s *JWTService) ParseToken(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: expected %s token", apperrors.ErrInvalidToken, expectedType)
	}
	return claims, nil
}

// HashToken возвращает SHA-256 hex-хеш токена для хранения refresh-сессий
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
