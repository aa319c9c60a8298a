package i18n

import (
	"adaptive_tutor/internal/util"

	"github.com/gin-gonic/gin"
)

// Middleware picks the language from ?lang=, then Accept-Language, then the bundle default.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := NewLocalizer(c.Query("lang"), c.GetHeader(util.HeaderLanguage))
		c.Request = c.Request.WithContext(WithLocalizer(c.Request.Context(), loc))
		c.Next()
	}
}
