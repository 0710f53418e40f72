package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/cheezy-bite/internal/http/handlers/shared"
	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 订单列表，支持阶段、单号、联系方式与时间范围筛选。
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		OrderNo:    strings.TrimSpace(c.Query("order_no")),
		Email:      strings.TrimSpace(c.Query("email")),
		Phone:      strings.TrimSpace(c.Query("phone")),
		ActiveOnly: c.Query("active") == "true",
	}
	if raw := c.Query("stage"); raw != "" {
		stage, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid stage filter", nil)
			return
		}
		filter.Stage = &stage
	}
	if raw := c.Query("created_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &t
		}
	}

	orders, total, err := h.OrderService.ListAdminOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ListActiveOrders 进行中的订单，后台看板用。
func (h *Handler) ListActiveOrders(c *gin.Context) {
	orders, err := h.OrderService.ListActiveOrders()
	if err != nil {
		respondError(c, response.CodeInternal, "active order list failed", err)
		return
	}
	response.Success(c, orders)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	order, err := h.OrderService.GetOrder(orderNo, 0)
	if err != nil {
		respondWithMappedError(c, err, orderStageErrorRules, "query order failed")
		return
	}
	response.Success(c, order)
}

type updateStageRequest struct {
	Stage int `json:"stage" binding:"min=-1,max=4"`
}

// UpdateOrderStage 推进订单阶段，后台允许跨阶段跳转到未完成阶段。
func (h *Handler) UpdateOrderStage(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStage(orderNo, req.Stage, true)
	if err != nil {
		respondWithMappedError(c, err, orderStageErrorRules, "update order stage failed")
		return
	}
	requestLog(c).Infow("order_stage_updated", "order_no", order.OrderNo, "stage", order.CurrentStage)
	response.Success(c, order)
}
