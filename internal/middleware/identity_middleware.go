package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Seth647/rally-watchdog/internal/utils"

	"github.com/gin-gonic/gin"
)

// Минимальная длина клиентского fingerprint. Клиенты генерируют UUID,
// но любой достаточно длинный непредсказуемый токен подходит.
const minFingerprintLength = 16

// SubmitterIdentity определяет отправителя жалобы для рейт-лимита.
// Авторизованный пользователь идентифицируется по токену; анонимный
// клиент обязан прислать свой постоянный fingerprint в заголовке
// X-Client-Fingerprint. Это не контроль доступа, а ключ анти-спама.
func SubmitterIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := utils.ValidateToken(parts[1]); err == nil && claims.UserID > 0 {
					c.Set("submitter_user_id", fmt.Sprintf("%d", claims.UserID))
					c.Next()
					return
				}
			}
		}

		fingerprint := strings.TrimSpace(c.GetHeader("X-Client-Fingerprint"))
		if len(fingerprint) < minFingerprintLength || len(fingerprint) > 64 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "A client fingerprint is required. Request one at GET /api/fingerprint and resend it with every submission.",
			})
			c.Abort()
			return
		}

		c.Set("client_fingerprint", fingerprint)
		c.Next()
	}
}
