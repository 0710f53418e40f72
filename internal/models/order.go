package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo          string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID           uint           `gorm:"index;not null" json:"user_id,omitempty"`                   // 用户ID（游客订单为 0）
	CustomerName     string         `gorm:"type:varchar(120)" json:"customer_name"`                    // 收件人姓名
	CustomerEmail    string         `gorm:"index" json:"customer_email,omitempty"`                     // 联系邮箱
	CustomerPhone    string         `gorm:"type:varchar(40)" json:"customer_phone,omitempty"`          // 联系电话
	Subtotal         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 折前小计
	DiscountAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	OfferID          *uint          `gorm:"index" json:"offer_id,omitempty"`                           // 优惠码ID
	OfferCode        string         `gorm:"type:varchar(40)" json:"offer_code,omitempty"`              // 优惠码快照
	AddressJSON      JSON           `gorm:"type:json" json:"address"`                                  // 配送地址快照（下单后不可变）
	PaymentMethod    string         `gorm:"type:varchar(20);not null" json:"payment_method"`           // 支付方式
	PaymentConfirmed bool           `gorm:"not null;default:false" json:"payment_confirmed"`           // 支付结果（外部收单系统给出）
	DeliveryTiming   string         `gorm:"type:varchar(20)" json:"delivery_timing,omitempty"`         // 配送时间偏好
	Instructions     string         `gorm:"type:text" json:"instructions,omitempty"`                   // 配送备注
	CurrentStage     int            `gorm:"index;not null;default:0" json:"current_stage"`             // 当前阶段（-1~4）
	StatusLabel      string         `gorm:"type:varchar(40);not null" json:"status_label"`             // 当前阶段文案（冗余）
	StatusHistory    StageHistory   `gorm:"type:json;not null" json:"status_history"`                  // 状态历史（只追加）
	Rating           *int           `json:"rating,omitempty"`                                          // 评分（仅送达后一次）
	FeedbackComment  string         `gorm:"type:text" json:"feedback_comment,omitempty"`               // 评价内容
	FeedbackAt       *time.Time     `json:"feedback_at,omitempty"`                                     // 评价时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
