package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/pricing"
	"github.com/cheezy-bite/internal/queue"
	"github.com/cheezy-bite/internal/realtime"
	"github.com/cheezy-bite/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	menuRepo       repository.MenuItemRepository
	offerRepo      repository.OfferRepository
	redemptionRepo repository.OfferRedemptionRepository
	queueClient    *queue.Client
	publisher      realtime.Publisher
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, menuRepo repository.MenuItemRepository, offerRepo repository.OfferRepository, redemptionRepo repository.OfferRedemptionRepository, queueClient *queue.Client, publisher realtime.Publisher) *OrderService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &OrderService{
		orderRepo:      orderRepo,
		menuRepo:       menuRepo,
		offerRepo:      offerRepo,
		redemptionRepo: redemptionRepo,
		queueClient:    queueClient,
		publisher:      publisher,
	}
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	MenuItemID uint
	Size       string
	Crust      string
	AddOns     []models.AddOn
	Quantity   int
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint // 0 表示游客
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	Address        models.JSON
	PaymentMethod  string
	DeliveryTiming string
	Instructions   string
	OfferCode      string
	Items          []CreateOrderItem
}

// CreateOrder 创建订单。定价、优惠校验与落库在一个事务内完成，
// 名额占用失败会使整个订单回滚。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderNoItems
	}

	now := time.Now()
	items, subtotal, err := s.buildOrderItems(input.Items)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var offer *models.Offer
	if strings.TrimSpace(input.OfferCode) != "" {
		offer, discount, err = s.applyOffer(input.OfferCode, subtotal, input.UserID, now)
		if err != nil {
			return nil, err
		}
	}

	total := subtotal.Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerEmail:  strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:  strings.TrimSpace(input.CustomerPhone),
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		DiscountAmount: models.NewMoneyFromDecimal(discount),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		AddressJSON:    input.Address,
		PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
		DeliveryTiming: strings.TrimSpace(input.DeliveryTiming),
		Instructions:   strings.TrimSpace(input.Instructions),
		CurrentStage:   constants.StagePlaced,
		StatusLabel:    constants.StageLabel(constants.StagePlaced),
		StatusHistory:  appendStageHistory(nil, constants.StagePlaced, now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if offer != nil {
		order.OfferID = &offer.ID
		order.OfferCode = offer.Code
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		if offer != nil {
			offerRepo := s.offerRepo.WithTx(tx)
			ok, err := offerRepo.ConsumeSlot(offer.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrOfferUsageLimit
			}
			redemptionRepo := s.redemptionRepo.WithTx(tx)
			if err := redemptionRepo.Create(&models.OfferRedemption{
				OfferID:        offer.ID,
				UserID:         input.UserID,
				OrderID:        order.ID,
				DiscountAmount: models.NewMoneyFromDecimal(discount),
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOfferUsageLimit) {
			return nil, ErrOfferUsageLimit
		}
		logger.Errorw("order_create_tx_failed", "order_no", order.OrderNo, "error", err)
		return nil, ErrOrderCreateFailed
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err != nil || full == nil {
		full = order
		full.Items = items
	}

	s.publishOrderEvent(constants.EventOrderCreated, full,
		constants.RoomAdminOrders, constants.RoomAdminDashboard)
	s.enqueueConfirmationEmail(full)

	return full, nil
}

// buildOrderItems 校验菜品并逐行定价
func (s *OrderService) buildOrderItems(inputs []CreateOrderItem) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(inputs))
	for _, item := range inputs {
		if item.MenuItemID == 0 || item.Quantity <= 0 || !pricing.ValidSize(item.Size) {
			return nil, decimal.Zero, ErrOrderItemInvalid
		}
		ids = append(ids, item.MenuItemID)
	}
	menuItems, err := s.menuRepo.ListByIDs(ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := decimal.Zero
	for _, input := range inputs {
		menuItem, ok := byID[input.MenuItemID]
		if !ok {
			return nil, decimal.Zero, ErrMenuItemNotFound
		}
		if !menuItem.IsActive {
			return nil, decimal.Zero, ErrMenuItemUnavailable
		}
		addOns := make([]pricing.AddOn, 0, len(input.AddOns))
		for _, a := range input.AddOns {
			if a.Price.Decimal.IsNegative() {
				return nil, decimal.Zero, ErrOrderItemInvalid
			}
			addOns = append(addOns, pricing.AddOn{Name: a.Name, Price: a.Price.Decimal})
		}
		surcharge := pricing.CrustSurcharge(input.Crust)
		unit := pricing.ComputeLinePrice(menuItem.BasePrice.Decimal, input.Size, surcharge, addOns)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2)
		items = append(items, models.OrderItem{
			MenuItemID:     menuItem.ID,
			Name:           menuItem.Name,
			Size:           strings.ToLower(strings.TrimSpace(input.Size)),
			Crust:          strings.ToLower(strings.TrimSpace(input.Crust)),
			CrustSurcharge: models.NewMoneyFromDecimal(surcharge),
			AddOns:         input.AddOns,
			UnitPrice:      models.NewMoneyFromDecimal(unit),
			Quantity:       input.Quantity,
			TotalPrice:     models.NewMoneyFromDecimal(lineTotal),
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal.Round(2), nil
}

// applyOffer 解析优惠码并做资格评估
func (s *OrderService) applyOffer(code string, subtotal decimal.Decimal, userID uint, now time.Time) (*models.Offer, decimal.Decimal, error) {
	offer, err := s.offerRepo.GetByCode(code)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if offer == nil {
		return nil, decimal.Zero, ErrOfferNotFound
	}

	var userUsage int64
	if userID != 0 && offer.PerUserLimit > 0 {
		userUsage, err = s.redemptionRepo.CountByOfferAndUser(offer.ID, userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
	}
	hasPriorOrders := false
	if userID != 0 && offer.FirstOrderOnly {
		count, err := s.orderRepo.CountByUser(userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		hasPriorOrders = count > 0
	}

	discount, reason := pricing.EvaluateOffer(subtotal, pricing.OfferTerms{
		Type:           offer.Type,
		Value:          offer.Value.Decimal,
		MinAmount:      offer.MinAmount.Decimal,
		MaxDiscount:    offer.MaxDiscount.Decimal,
		UsageLimit:     offer.UsageLimit,
		UsedCount:      offer.UsedCount,
		PerUserLimit:   offer.PerUserLimit,
		FirstOrderOnly: offer.FirstOrderOnly,
		StartsAt:       offer.StartsAt,
		EndsAt:         offer.EndsAt,
		IsActive:       offer.IsActive,
	}, userUsage, hasPriorOrders, now)
	if reason != pricing.ReasonOK {
		return nil, decimal.Zero, offerReasonError(reason)
	}
	return offer, discount, nil
}

// offerReasonError 资格评估结论映射为业务错误
func offerReasonError(reason pricing.Reason) error {
	switch reason {
	case pricing.ReasonInactive:
		return ErrOfferInactive
	case pricing.ReasonNotStarted:
		return ErrOfferNotStarted
	case pricing.ReasonExpired:
		return ErrOfferExpired
	case pricing.ReasonMinAmount:
		return ErrOfferMinAmount
	case pricing.ReasonUsageLimit:
		return ErrOfferUsageLimit
	case pricing.ReasonPerUserLimit:
		return ErrOfferPerUserLimit
	case pricing.ReasonFirstOrderOnly:
		return ErrOfferFirstOrderOnly
	default:
		return ErrOfferInvalid
	}
}

// UpdateOrderStage 变更订单阶段。staffOverride 放开越级跳转（不含送达）。
// 同阶段重复提交按幂等处理，直接返回当前订单。
func (s *OrderService) UpdateOrderStage(orderNo string, target int, staffOverride bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if target == order.CurrentStage {
		return order, nil
	}
	if !CanTransition(order.CurrentStage, target, staffOverride) {
		return nil, ErrOrderStageInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status_label":   constants.StageLabel(target),
		"status_history": appendStageHistory(order.StatusHistory, target, now),
		"updated_at":     now,
	}
	ok, err := s.orderRepo.UpdateStage(order.ID, order.CurrentStage, target, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 守卫未命中说明阶段已被并发修改
		return nil, ErrOrderStageConflict
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		return nil, ErrOrderNotFound
	}

	s.publishOrderEvent(constants.EventOrderStatusUpdated, updated,
		constants.RoomAdminOrders, constants.RoomAdminDashboard, constants.RoomCustomers)
	s.enqueueStatusEmail(updated)

	return updated, nil
}

// CancelOrder 顾客取消订单，只允许在 Placed 阶段。
func (s *OrderService) CancelOrder(orderNo string, userID uint) (*models.Order, error) {
	order, err := s.getOrderScoped(orderNo, userID)
	if err != nil {
		return nil, err
	}
	if order.CurrentStage == constants.StageCancelled {
		return order, nil
	}
	if order.CurrentStage != constants.StagePlaced {
		return nil, ErrOrderCancelNotAllowed
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status_label":   constants.StageLabel(constants.StageCancelled),
		"status_history": appendStageHistory(order.StatusHistory, constants.StageCancelled, now),
		"updated_at":     now,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		ok, err := orderRepo.UpdateStage(order.ID, order.CurrentStage, constants.StageCancelled, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderStageConflict
		}
		if order.OfferID != nil {
			offerRepo := s.offerRepo.WithTx(tx)
			if err := offerRepo.ReleaseSlot(*order.OfferID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderStageConflict) {
			return nil, ErrOrderCancelNotAllowed
		}
		return nil, err
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		return nil, ErrOrderNotFound
	}

	s.publishOrderEvent(constants.EventOrderStatusUpdated, updated,
		constants.RoomAdminOrders, constants.RoomAdminDashboard)
	s.enqueueStatusEmail(updated)

	return updated, nil
}

// SubmitFeedback 提交订单评价，仅限已送达且未评价过的订单。
func (s *OrderService) SubmitFeedback(orderNo string, userID uint, rating int, comment string) (*models.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrFeedbackRatingInvalid
	}
	order, err := s.getOrderScoped(orderNo, userID)
	if err != nil {
		return nil, err
	}
	if order.CurrentStage != constants.StageDelivered {
		return nil, ErrFeedbackNotDeliverable
	}
	if order.FeedbackAt != nil {
		return nil, ErrFeedbackAlreadyExists
	}

	now := time.Now()
	ok, err := s.orderRepo.UpdateFeedback(order.ID, map[string]interface{}{
		"rating":           rating,
		"feedback_comment": strings.TrimSpace(comment),
		"feedback_at":      now,
		"updated_at":       now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// 并发提交时只有第一条命中，其余按重复评价拒绝
		return nil, ErrFeedbackAlreadyExists
	}
	return s.orderRepo.GetByID(order.ID)
}

// MirrorStage 接收副本回传的阶段，单调幂等地对齐到数据库。
// 回传阶段不高于当前阶段时按无事发生处理。
func (s *OrderService) MirrorStage(orderNo string, target int) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if target <= order.CurrentStage || IsTerminalStage(order.CurrentStage) {
		return order, nil
	}
	if target > constants.StageDelivered {
		return nil, ErrOrderStageInvalid
	}

	now := time.Now()
	history := order.StatusHistory
	for stage := order.CurrentStage + 1; stage <= target; stage++ {
		history = appendStageHistory(history, stage, now)
	}
	updates := map[string]interface{}{
		"status_label":   constants.StageLabel(target),
		"status_history": history,
		"updated_at":     now,
	}
	ok, err := s.orderRepo.UpdateStage(order.ID, order.CurrentStage, target, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 并发对齐时另一端已经写过，读回新值即可
		return s.orderRepo.GetByID(order.ID)
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		return nil, ErrOrderNotFound
	}
	s.publishOrderEvent(constants.EventOrderStatusUpdated, updated,
		constants.RoomAdminOrders, constants.RoomAdminDashboard)
	return updated, nil
}

// GetOrder 查询订单详情，userID 非 0 时限定归属。
func (s *OrderService) GetOrder(orderNo string, userID uint) (*models.Order, error) {
	return s.getOrderScoped(orderNo, userID)
}

// ListUserOrders 用户订单列表
func (s *OrderService) ListUserOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// ListActiveOrders 未完结订单快照（实时看板初始化用）
func (s *OrderService) ListActiveOrders() ([]models.Order, error) {
	return s.orderRepo.ListActive()
}

func (s *OrderService) getOrderScoped(orderNo string, userID uint) (*models.Order, error) {
	var order *models.Order
	var err error
	if userID != 0 {
		order, err = s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	} else {
		order, err = s.orderRepo.GetByOrderNo(orderNo)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// publishOrderEvent 推送订单事件到订单房间与给定房间，
// 登录用户额外推到个人房间。
func (s *OrderService) publishOrderEvent(event string, order *models.Order, extraRooms ...string) {
	rooms := append([]string{constants.RoomOrderPrefix + order.OrderNo}, extraRooms...)
	if order.UserID != 0 {
		rooms = append(rooms, fmt.Sprintf("%s%d", constants.RoomUserPrefix, order.UserID))
	}
	s.publisher.Publish(event, rooms, orderEventData(order))
}

func orderEventData(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_no":     order.OrderNo,
		"stage":        order.CurrentStage,
		"status_label": order.StatusLabel,
		"total_amount": order.TotalAmount,
		"updated_at":   order.UpdatedAt,
	}
}

func (s *OrderService) enqueueConfirmationEmail(order *models.Order) {
	if s.queueClient == nil || order.CustomerEmail == "" {
		return
	}
	if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
	}); err != nil {
		logger.Warnw("order_enqueue_confirmation_email_failed",
			"order_no", order.OrderNo,
			"error", err,
		)
	}
}

func (s *OrderService) enqueueStatusEmail(order *models.Order) {
	if s.queueClient == nil || order.CustomerEmail == "" {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Stage:   order.CurrentStage,
	}); err != nil {
		logger.Warnw("order_enqueue_status_email_failed",
			"order_no", order.OrderNo,
			"stage", order.CurrentStage,
			"error", err,
		)
	}
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("CB%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
