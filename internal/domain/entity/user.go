package entity

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User представляет пользователя платформы
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"size:100;not null" json:"-"`
	FullName    string     `gorm:"size:100" json:"full_name"`
	AvatarURL   string     `gorm:"size:255" json:"avatar_url,omitempty"`
	Role        string     `gorm:"size:20;not null;default:student" json:"role"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	IsVerified  bool       `gorm:"not null;default:false" json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeSave хеширует пароль перед сохранением в базу данных
func (u *User) BeforeSave(tx *gorm.DB) error {
	// Не хешируем повторно, если пароль уже в формате bcrypt
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет соответствие пароля хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageQuestion проверяет права на изменение вопроса
func (u *User) CanManageQuestion(q *Question) bool {
	return u.IsAdmin() || q.CreatedBy == u.ID
}

func isBcryptHash(s string) bool {
	if len(s) < 4 {
		return false
	}
	prefix := s[:4]
	return prefix == "$2a$" || prefix == "$2b$" || prefix == "$2y$"
}

// TableName возвращает имя таблицы в базе данных
func (User) TableName() string {
	return "users"
}
