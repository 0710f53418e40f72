package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Offer{},
		&models.OfferRedemption{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewMenuItemRepository(db),
		repository.NewOfferRepository(db),
		repository.NewOfferRedemptionRepository(db),
		nil,
		nil,
	)
	return svc, db
}

func createTestMenuItem(t *testing.T, db *gorm.DB, slug string, basePrice int64) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Slug:      slug,
		Name:      slug,
		Category:  "pizza",
		BasePrice: models.NewMoneyFromDecimal(decimal.NewFromInt(basePrice)),
		IsActive:  true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create menu item failed: %v", err)
	}
	return item
}

func fiveAddOns(price int64) []models.AddOn {
	addOns := make([]models.AddOn, 0, 5)
	for i := 0; i < 5; i++ {
		addOns = append(addOns, models.AddOn{
			Name:  fmt.Sprintf("topping-%d", i),
			Price: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		})
	}
	return addOns
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "pepperoni", 1200)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "medium", Crust: "stuffed", AddOns: fiveAddOns(150), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if got := order.TotalAmount.StringFixed(2); got != "2090.00" {
		t.Fatalf("expected total 2090.00, got %s", got)
	}
	if order.CurrentStage != constants.StagePlaced {
		t.Fatalf("expected stage placed, got %d", order.CurrentStage)
	}
	if !strings.HasPrefix(order.OrderNo, "CB") {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Stage != constants.StagePlaced {
		t.Fatalf("expected single placed history entry, got %+v", order.StatusHistory)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	if got := order.Items[0].UnitPrice.StringFixed(2); got != "2090.00" {
		t.Fatalf("expected unit price 2090.00, got %s", got)
	}
}

func TestCreateOrderQuantityMultiplies(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "margherita", 1000)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCashOnDelivery,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if got := order.TotalAmount.StringFixed(2); got != "3000.00" {
		t.Fatalf("expected total 3000.00, got %s", got)
	}
}

func TestCreateOrderRejectsInvalidItems(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "veggie", 1100)

	cases := []struct {
		name  string
		input CreateOrderInput
		want  error
	}{
		{
			name:  "no items",
			input: CreateOrderInput{},
			want:  ErrOrderNoItems,
		},
		{
			name: "bad size",
			input: CreateOrderInput{Items: []CreateOrderItem{
				{MenuItemID: item.ID, Size: "jumbo", Quantity: 1},
			}},
			want: ErrOrderItemInvalid,
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{Items: []CreateOrderItem{
				{MenuItemID: item.ID, Size: "small", Quantity: 0},
			}},
			want: ErrOrderItemInvalid,
		},
		{
			name: "unknown menu item",
			input: CreateOrderInput{Items: []CreateOrderItem{
				{MenuItemID: item.ID + 100, Size: "small", Quantity: 1},
			}},
			want: ErrMenuItemNotFound,
		},
	}
	for _, tc := range cases {
		if _, err := svc.CreateOrder(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateOrderConsumesOfferSlot(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "deluxe", 2000)

	offer := models.Offer{
		Code:       "ONCE",
		Type:       constants.OfferTypeFixed,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		UsageLimit: 1,
		IsActive:   true,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}

	input := CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		OfferCode:     "once",
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	}

	first, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("first CreateOrder error: %v", err)
	}
	if got := first.DiscountAmount.StringFixed(2); got != "200.00" {
		t.Fatalf("expected discount 200.00, got %s", got)
	}
	if got := first.TotalAmount.StringFixed(2); got != "1800.00" {
		t.Fatalf("expected total 1800.00, got %s", got)
	}

	var stored models.Offer
	if err := db.First(&stored, offer.ID).Error; err != nil {
		t.Fatalf("load offer failed: %v", err)
	}
	if stored.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", stored.UsedCount)
	}

	if _, err := svc.CreateOrder(input); !errors.Is(err, ErrOfferUsageLimit) {
		t.Fatalf("expected usage limit error, got %v", err)
	}

	// 超限的下单被整单回滚
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected 1 order after rollback, got %d", orderCount)
	}
}

func TestCancelOrderReleasesOfferSlot(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "supreme", 1500)

	offer := models.Offer{
		Code:       "BACK",
		Type:       constants.OfferTypeFixed,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		UsageLimit: 1,
		IsActive:   true,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		OfferCode:     "BACK",
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	cancelled, err := svc.CancelOrder(order.OrderNo, 0)
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if cancelled.CurrentStage != constants.StageCancelled {
		t.Fatalf("expected cancelled stage, got %d", cancelled.CurrentStage)
	}

	var stored models.Offer
	if err := db.First(&stored, offer.ID).Error; err != nil {
		t.Fatalf("load offer failed: %v", err)
	}
	if stored.UsedCount != 0 {
		t.Fatalf("expected slot released, used count %d", stored.UsedCount)
	}

	// 重复取消幂等
	again, err := svc.CancelOrder(order.OrderNo, 0)
	if err != nil {
		t.Fatalf("second CancelOrder error: %v", err)
	}
	if again.CurrentStage != constants.StageCancelled {
		t.Fatalf("expected cancelled stage, got %d", again.CurrentStage)
	}
}

func TestCancelOrderRejectedAfterAdvance(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "hawaiian", 1300)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err := svc.UpdateOrderStage(order.OrderNo, constants.StagePreparing, false); err != nil {
		t.Fatalf("UpdateOrderStage error: %v", err)
	}
	if _, err := svc.CancelOrder(order.OrderNo, 0); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("expected cancel rejection, got %v", err)
	}
}

func TestUpdateOrderStageFlow(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "bbq", 1400)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// 未越权时禁止跳级
	if _, err := svc.UpdateOrderStage(order.OrderNo, constants.StageOutForDelivery, false); !errors.Is(err, ErrOrderStageInvalid) {
		t.Fatalf("expected stage invalid, got %v", err)
	}

	// 后台越级跳到未完结阶段
	updated, err := svc.UpdateOrderStage(order.OrderNo, constants.StageOutForDelivery, true)
	if err != nil {
		t.Fatalf("override UpdateOrderStage error: %v", err)
	}
	if updated.CurrentStage != constants.StageOutForDelivery {
		t.Fatalf("expected out-for-delivery, got %d", updated.CurrentStage)
	}

	// 同阶段重复提交幂等
	same, err := svc.UpdateOrderStage(order.OrderNo, constants.StageOutForDelivery, true)
	if err != nil {
		t.Fatalf("idempotent UpdateOrderStage error: %v", err)
	}
	if same.CurrentStage != constants.StageOutForDelivery {
		t.Fatalf("expected unchanged stage, got %d", same.CurrentStage)
	}

	delivered, err := svc.UpdateOrderStage(order.OrderNo, constants.StageDelivered, false)
	if err != nil {
		t.Fatalf("deliver UpdateOrderStage error: %v", err)
	}
	if delivered.CurrentStage != constants.StageDelivered {
		t.Fatalf("expected delivered, got %d", delivered.CurrentStage)
	}
	if len(delivered.StatusHistory) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(delivered.StatusHistory))
	}

	// 完结后锁定
	if _, err := svc.UpdateOrderStage(order.OrderNo, constants.StagePreparing, true); !errors.Is(err, ErrOrderStageInvalid) {
		t.Fatalf("expected terminal lock, got %v", err)
	}
}

func TestUpdateStageGuardDetectsConcurrentWrite(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "funghi", 1000)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	repo := repository.NewOrderRepository(db)
	ok, err := repo.UpdateStage(order.ID, constants.StagePlaced, constants.StagePreparing, map[string]interface{}{
		"status_label": constants.StageLabel(constants.StagePreparing),
	})
	if err != nil || !ok {
		t.Fatalf("expected guarded update to hit, ok=%v err=%v", ok, err)
	}

	// 基于过期的 fromStage 再写一次，守卫必须落空
	ok, err = repo.UpdateStage(order.ID, constants.StagePlaced, constants.StageBaking, map[string]interface{}{
		"status_label": constants.StageLabel(constants.StageBaking),
	})
	if err != nil {
		t.Fatalf("guarded update error: %v", err)
	}
	if ok {
		t.Fatalf("expected guard miss on stale fromStage")
	}
}

func TestSubmitFeedbackRules(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "quattro", 1600)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if _, err := svc.SubmitFeedback(order.OrderNo, 0, 0, ""); !errors.Is(err, ErrFeedbackRatingInvalid) {
		t.Fatalf("expected rating invalid, got %v", err)
	}
	if _, err := svc.SubmitFeedback(order.OrderNo, 0, 5, "great"); !errors.Is(err, ErrFeedbackNotDeliverable) {
		t.Fatalf("expected not deliverable, got %v", err)
	}

	for stage := constants.StagePreparing; stage <= constants.StageDelivered; stage++ {
		if _, err := svc.UpdateOrderStage(order.OrderNo, stage, false); err != nil {
			t.Fatalf("advance to %d failed: %v", stage, err)
		}
	}

	rated, err := svc.SubmitFeedback(order.OrderNo, 0, 5, "great pizza")
	if err != nil {
		t.Fatalf("SubmitFeedback error: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != 5 {
		t.Fatalf("expected rating 5, got %+v", rated.Rating)
	}

	if _, err := svc.SubmitFeedback(order.OrderNo, 0, 4, "again"); !errors.Is(err, ErrFeedbackAlreadyExists) {
		t.Fatalf("expected feedback exists, got %v", err)
	}
}

func TestUpdateFeedbackGuardRejectsSecondWrite(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "bianca", 1400)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	for stage := constants.StagePreparing; stage <= constants.StageDelivered; stage++ {
		if _, err := svc.UpdateOrderStage(order.OrderNo, stage, false); err != nil {
			t.Fatalf("advance to %d failed: %v", stage, err)
		}
	}

	repo := repository.NewOrderRepository(db)
	now := time.Now()
	ok, err := repo.UpdateFeedback(order.ID, map[string]interface{}{
		"rating":           5,
		"feedback_comment": "great",
		"feedback_at":      now,
		"updated_at":       now,
	})
	if err != nil || !ok {
		t.Fatalf("first feedback write: ok=%v err=%v", ok, err)
	}

	// 两次提交都在内存里见到未评价的订单，晚到的一条不命中
	ok, err = repo.UpdateFeedback(order.ID, map[string]interface{}{
		"rating":           1,
		"feedback_comment": "late",
		"feedback_at":      time.Now(),
		"updated_at":       time.Now(),
	})
	if err != nil {
		t.Fatalf("second feedback write error: %v", err)
	}
	if ok {
		t.Fatalf("expected second feedback write to miss the guard")
	}

	stored, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Rating == nil || *stored.Rating != 5 {
		t.Fatalf("expected first rating preserved, got %+v", stored.Rating)
	}
}

func TestCreateOrderOfferSlotUnderConcurrency(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	// 单连接串行提交，两个事务依次命中同一条带守卫的 UPDATE
	sqlDB.SetMaxOpenConns(1)

	item := createTestMenuItem(t, db, "diavola", 2000)
	offer := models.Offer{
		Code:       "RACE",
		Type:       constants.OfferTypeFixed,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		UsageLimit: 1,
		IsActive:   true,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}

	input := CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		OfferCode:     "RACE",
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(input)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, limited int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrOfferUsageLimit):
			limited++
		default:
			t.Fatalf("unexpected CreateOrder error: %v", err)
		}
	}
	if succeeded != 1 || limited != 1 {
		t.Fatalf("expected exactly one winner, got succeeded=%d limited=%d", succeeded, limited)
	}

	var stored models.Offer
	if err := db.First(&stored, offer.ID).Error; err != nil {
		t.Fatalf("load offer failed: %v", err)
	}
	if stored.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", stored.UsedCount)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected 1 order, got %d", orderCount)
	}
}

func TestMirrorStageFillsHistory(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	item := createTestMenuItem(t, db, "calzone", 1250)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName:  "Dana",
		CustomerPhone: "555-0101",
		Address:       models.JSON{"line1": "1 Main St"},
		PaymentMethod: constants.PaymentMethodCard,
		Items: []CreateOrderItem{
			{MenuItemID: item.ID, Size: "small", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	mirrored, err := svc.MirrorStage(order.OrderNo, constants.StageBaking)
	if err != nil {
		t.Fatalf("MirrorStage error: %v", err)
	}
	if mirrored.CurrentStage != constants.StageBaking {
		t.Fatalf("expected baking, got %d", mirrored.CurrentStage)
	}
	// 中间阶段补齐：placed + preparing + baking
	if len(mirrored.StatusHistory) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(mirrored.StatusHistory))
	}
	if mirrored.StatusHistory[1].Stage != constants.StagePreparing {
		t.Fatalf("expected preparing entry in between, got %+v", mirrored.StatusHistory)
	}

	// 不高于当前阶段的回传按无事发生处理
	same, err := svc.MirrorStage(order.OrderNo, constants.StagePreparing)
	if err != nil {
		t.Fatalf("MirrorStage no-op error: %v", err)
	}
	if same.CurrentStage != constants.StageBaking || len(same.StatusHistory) != 3 {
		t.Fatalf("expected no-op mirror, got stage %d with %d entries", same.CurrentStage, len(same.StatusHistory))
	}
}
