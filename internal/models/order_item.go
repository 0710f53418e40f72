package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
type OrderItem struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                             // 订单ID
	MenuItemID     uint           `gorm:"index;not null" json:"menu_item_id"`                         // 菜单项ID
	Name           string         `gorm:"type:varchar(120);not null" json:"name"`                     // 菜单项名称快照
	Size           string         `gorm:"type:varchar(20);not null" json:"size"`                      // 尺寸
	Crust          string         `gorm:"type:varchar(40)" json:"crust,omitempty"`                    // 饼底
	CrustSurcharge Money          `gorm:"type:decimal(20,2);not null;default:0" json:"crust_surcharge"` // 饼底加价快照
	AddOns         AddOnList      `gorm:"type:json" json:"add_ons"`                                   // 加料快照（按选择顺序）
	UnitPrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 单价（定价引擎计算结果）
	Quantity       int            `gorm:"not null" json:"quantity"`                                   // 数量
	TotalPrice     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 小计
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
