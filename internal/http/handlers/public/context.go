package public

import (
	"go.uber.org/zap"

	handlershared "github.com/cheezy-bite/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// optionalUserID 上游身份中间件写入的可选用户标识，游客为 0。
func optionalUserID(c *gin.Context) uint {
	value, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}
