package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения числового параметра URL
// (идентификатор вопроса или экзамена) с валидацией.
// paramName - имя параметра в маршруте (например, "id").
// contextKey - ключ, под которым обработчики читают значение из контекста Gin
// ("questionID", "examID").
// Нечисловые и нулевые идентификаторы отклоняются с 400: автоинкремент
// начинается с 1, нулевого ресурса не существует.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		// Сохраняем как uint для единообразия
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
