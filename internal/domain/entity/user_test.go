package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// mockTx передается в BeforeSave; хук не использует tx напрямую
var mockTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	// Arrange: пользователь с открытым паролем
	plainPassword := "mySecretPassword123"
	user := &User{
		Username: "student1",
		Email:    "student@example.com",
		Password: plainPassword,
	}

	// Act
	err := user.BeforeSave(mockTx)

	// Assert: пароль должен быть хеширован
	require.NoError(t, err, "BeforeSave не должен возвращать ошибку")
	assert.NotEqual(t, plainPassword, user.Password, "Пароль должен быть изменён после хеширования")

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plainPassword))
	assert.NoError(t, err, "Хеш должен соответствовать исходному паролю")
}

func TestUser_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	// Arrange: пароль уже в формате bcrypt
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{
		Username: "student1",
		Email:    "student@example.com",
		Password: string(hashedPassword),
	}
	originalHash := user.Password

	// Act
	err = user.BeforeSave(mockTx)

	// Assert: нет двойного хеширования
	require.NoError(t, err)
	assert.Equal(t, originalHash, user.Password, "Уже хешированный пароль не должен изменяться")
}

func TestUser_CheckPassword(t *testing.T) {
	// Arrange
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("correctPassword123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{Password: string(hashedPassword)}

	// Act & Assert
	assert.True(t, user.CheckPassword("correctPassword123"), "Правильный пароль должен проходить проверку")
	assert.False(t, user.CheckPassword("wrongPassword456"), "Неправильный пароль не должен проходить проверку")
	assert.False(t, user.CheckPassword(""), "Пустой пароль не должен проходить проверку")
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleStudent}).IsAdmin())
	assert.False(t, (&User{Role: RoleTeacher}).IsAdmin())
}

func TestUser_CanManageQuestion(t *testing.T) {
	question := &Question{ID: 10, CreatedBy: 42}

	// Владелец может управлять своим вопросом
	owner := &User{ID: 42, Role: RoleTeacher}
	assert.True(t, owner.CanManageQuestion(question))

	// Администратор может управлять любым вопросом
	admin := &User{ID: 1, Role: RoleAdmin}
	assert.True(t, admin.CanManageQuestion(question))

	// Посторонний пользователь не может
	other := &User{ID: 7, Role: RoleStudent}
	assert.False(t, other.CanManageQuestion(question))
}

func TestUser_TableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
}
