package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem 菜单项表
type MenuItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                        // 唯一标识
	Name        string         `gorm:"type:varchar(120);not null" json:"name"`                  // 名称
	Description string         `gorm:"type:text" json:"description,omitempty"`                  // 描述
	Category    string         `gorm:"index;type:varchar(40)" json:"category"`                  // 分类（pizza/sides/drinks）
	BasePrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"` // 基础价（小号）
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`            // 图片
	IsActive    bool           `gorm:"not null;default:true;index" json:"is_active"`            // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                       // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (MenuItem) TableName() string {
	return "menu_items"
}
