package admin

import (
	"github.com/cheezy-bite/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return shared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

// getAdminID 从上下文提取已认证的管理员 ID
func getAdminID(c *gin.Context) (uint, bool) {
	return shared.GetContextUintWithKeys(c, "admin_id", "invalid admin id", "invalid admin id type")
}
