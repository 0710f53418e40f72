package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Stage       *int
	OrderNo     string
	Email       string
	Phone       string
	ActiveOnly  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OfferListFilter 查询优惠活动列表的过滤条件
type OfferListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// MenuListFilter 查询菜单列表的过滤条件
type MenuListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Search     string
	OnlyActive bool
}
