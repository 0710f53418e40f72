package models

import (
	"time"

	"gorm.io/gorm"
)

// OfferRedemption 优惠码使用记录
type OfferRedemption struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OfferID        uint           `gorm:"index;not null" json:"offer_id"`                               // 优惠码ID
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID（游客为 0）
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                               // 订单ID
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (OfferRedemption) TableName() string {
	return "offer_redemptions"
}
