package public

import (
	"strconv"
	"strings"

	"github.com/cheezy-bite/internal/http/response"
	handlershared "github.com/cheezy-bite/internal/http/handlers/shared"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/repository"
	"github.com/cheezy-bite/internal/service"

	"github.com/gin-gonic/gin"
)

type createOrderItemRequest struct {
	MenuItemID uint           `json:"menu_item_id" binding:"required"`
	Size       string         `json:"size" binding:"required"`
	Crust      string         `json:"crust"`
	AddOns     []models.AddOn `json:"add_ons"`
	Quantity   int            `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	CustomerName   string                   `json:"customer_name" binding:"required"`
	CustomerEmail  string                   `json:"customer_email"`
	CustomerPhone  string                   `json:"customer_phone" binding:"required"`
	Address        models.JSON              `json:"address" binding:"required"`
	PaymentMethod  string                   `json:"payment_method" binding:"required"`
	DeliveryTiming string                   `json:"delivery_timing"`
	Instructions   string                   `json:"instructions"`
	OfferCode      string                   `json:"offer_code"`
	Items          []createOrderItemRequest `json:"items" binding:"required,min=1"`
}

// CreateOrder 顾客下单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			MenuItemID: item.MenuItemID,
			Size:       item.Size,
			Crust:      item.Crust,
			AddOns:     item.AddOns,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:         optionalUserID(c),
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		DeliveryTiming: req.DeliveryTiming,
		Instructions:   req.Instructions,
		OfferCode:      req.OfferCode,
		Items:          items,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	requestLog(c).Infow("order_created", "order_no", order.OrderNo, "total", order.TotalAmount.String())
	response.Success(c, order)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID := optionalUserID(c)
	if userID == 0 {
		respondError(c, response.CodeUnauthorized, "login required", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		ActiveOnly: c.Query("active") == "true",
	}
	orders, total, err := h.OrderService.ListUserOrders(filter)
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

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	order, err := h.OrderService.GetOrder(orderNo, optionalUserID(c))
	if err != nil {
		respondOrderStageError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单，只允许下单未处理阶段。
func (h *Handler) CancelOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	order, err := h.OrderService.CancelOrder(orderNo, optionalUserID(c))
	if err != nil {
		respondOrderStageError(c, err)
		return
	}
	requestLog(c).Infow("order_cancelled", "order_no", order.OrderNo)
	response.Success(c, order)
}

type feedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SubmitFeedback 提交订单评价
func (h *Handler) SubmitFeedback(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.OrderService.SubmitFeedback(orderNo, optionalUserID(c), req.Rating, req.Comment)
	if err != nil {
		respondFeedbackError(c, err)
		return
	}
	response.Success(c, order)
}

type mirrorStageRequest struct {
	Stage int `json:"stage" binding:"min=-1,max=4"`
}

// MirrorStage 本地副本回传阶段对齐
func (h *Handler) MirrorStage(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	var req mirrorStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.OrderService.MirrorStage(orderNo, req.Stage)
	if err != nil {
		respondOrderStageError(c, err)
		return
	}
	response.Success(c, order)
}
