package constants

// 订单阶段常量（-1 已取消，0~4 为正常流转顺序）
const (
	StageCancelled      = -1
	StagePlaced         = 0
	StagePreparing      = 1
	StageBaking         = 2
	StageOutForDelivery = 3
	StageDelivered      = 4
)

// StageLabels 阶段展示文案
var StageLabels = map[int]string{
	StageCancelled:      "Cancelled",
	StagePlaced:         "Placed",
	StagePreparing:      "Preparing",
	StageBaking:         "Baking",
	StageOutForDelivery: "Out for Delivery",
	StageDelivered:      "Delivered",
}

// StageLabel 返回阶段文案，未知阶段返回 Unknown
func StageLabel(stage int) string {
	if label, ok := StageLabels[stage]; ok {
		return label
	}
	return "Unknown"
}

// 优惠规则类型常量
const (
	OfferTypeFixed   = "fixed"
	OfferTypePercent = "percent"
)

// 披萨尺寸常量
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// 支付方式常量
const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cod"
	PaymentMethodWallet         = "wallet"
)

// 配送时间偏好常量
const (
	DeliveryTimingASAP      = "asap"
	DeliveryTimingScheduled = "scheduled"
)

// 实时广播房间常量
const (
	RoomAdminDashboard = "admin-dashboard"
	RoomAdminOrders    = "admin-orders"
	RoomCustomers      = "customers"
	RoomMenuUpdates    = "menu-updates"
	RoomOrderPrefix    = "order-"
	RoomUserPrefix     = "user-"
)

// 实时事件名称常量
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
	EventMenuUpdated        = "menu_updated"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderStatusEmail       = "order:status_email"
)
