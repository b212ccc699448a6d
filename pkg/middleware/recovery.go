package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// serviceはログの接頭辞になり、offersとnotificationのどちらで起きたパニックかを示す。
// 認証済みのリクエストであればユーザーIDと役割もログに含める。
func Recovery(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Print(panicLine(service, c.Request.Method, c.Request.URL.Path, GetUserID(c), GetRole(c), r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "内部サーバーエラーが発生しました",
				})
			}
		}()
		c.Next()
	}
}

// panicLine はパニックのログ行を組み立てる。
func panicLine(service, method, path, userID string, role Role, r any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s][PANIC] %s %s", service, method, path)
	if userID != "" {
		fmt.Fprintf(&b, " user_id=%s", userID)
	}
	if role != "" {
		fmt.Fprintf(&b, " role=%s", role)
	}
	fmt.Fprintf(&b, ": %v", r)
	return b.String()
}
