package public

import (
	"github.com/cheezy-bite/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListMenu 在售菜单，走缓存。
func (h *Handler) ListMenu(c *gin.Context) {
	items, err := h.MenuService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "menu list failed", err)
		return
	}
	response.Success(c, items)
}
