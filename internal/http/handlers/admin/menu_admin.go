package admin

import (
	"strconv"
	"strings"

	"github.com/cheezy-bite/internal/http/handlers/shared"
	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMenuItems 菜单列表（含下架项）
func (h *Handler) ListMenuItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	items, total, err := h.MenuService.List(repository.MenuListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "menu list failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetMenuItem 菜单详情
func (h *Handler) GetMenuItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid menu item id", nil)
		return
	}
	item, err := h.MenuService.Get(uint(id))
	if err != nil {
		respondWithMappedError(c, err, menuErrorRules, "query menu item failed")
		return
	}
	response.Success(c, item)
}

// CreateMenuItem 新建菜品
func (h *Handler) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	item.ID = 0
	if err := h.MenuService.Create(c.Request.Context(), &item); err != nil {
		respondWithMappedError(c, err, menuErrorRules, "create menu item failed")
		return
	}
	requestLog(c).Infow("menu_item_created", "slug", item.Slug)
	response.Success(c, item)
}

// UpdateMenuItem 更新菜品
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid menu item id", nil)
		return
	}
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	item.ID = uint(id)
	if err := h.MenuService.Update(c.Request.Context(), &item); err != nil {
		respondWithMappedError(c, err, menuErrorRules, "update menu item failed")
		return
	}
	response.Success(c, item)
}

// DeleteMenuItem 下架并删除菜品
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid menu item id", nil)
		return
	}
	if err := h.MenuService.Delete(c.Request.Context(), uint(id)); err != nil {
		respondWithMappedError(c, err, menuErrorRules, "delete menu item failed")
		return
	}
	response.SuccessWithMsg(c, "menu item deleted", nil)
}
