package repository

import (
	"errors"
	"strings"

	"github.com/cheezy-bite/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 优惠活动数据访问接口
type OfferRepository interface {
	GetByID(id uint) (*models.Offer, error)
	GetByCode(code string) (*models.Offer, error)
	Create(offer *models.Offer) error
	Update(offer *models.Offer) error
	Delete(id uint) error
	List(filter OfferListFilter) ([]models.Offer, int64, error)
	ConsumeSlot(id uint) (bool, error)
	ReleaseSlot(id uint) error
	WithTx(tx *gorm.DB) *GormOfferRepository
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建优惠活动仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) *GormOfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// GetByID 根据 ID 获取优惠活动
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// GetByCode 根据优惠码获取活动，匹配不区分大小写（入库统一大写）。
func (r *GormOfferRepository) GetByCode(code string) (*models.Offer, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Where("code = ?", code).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// Create 创建优惠活动
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	offer.Code = strings.ToUpper(strings.TrimSpace(offer.Code))
	return r.db.Create(offer).Error
}

// Update 更新优惠活动
func (r *GormOfferRepository) Update(offer *models.Offer) error {
	offer.Code = strings.ToUpper(strings.TrimSpace(offer.Code))
	return r.db.Save(offer).Error
}

// Delete 删除优惠活动
func (r *GormOfferRepository) Delete(id uint) error {
	return r.db.Delete(&models.Offer{}, id).Error
}

// List 获取优惠活动列表
func (r *GormOfferRepository) List(filter OfferListFilter) ([]models.Offer, int64, error) {
	var offers []models.Offer
	var total int64

	query := r.db.Model(&models.Offer{})
	if filter.Code != "" {
		query = query.Where("code = ?", strings.ToUpper(strings.TrimSpace(filter.Code)))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query.Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := query.Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// ConsumeSlot 占用一个使用名额。自增与上限校验在同一条 UPDATE 里完成，
// 并发下不会超发；返回 false 表示名额已耗尽。
func (r *GormOfferRepository) ConsumeSlot(id uint) (bool, error) {
	result := r.db.Model(&models.Offer{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseSlot 回滚一个使用名额（订单创建失败时回补）。
func (r *GormOfferRepository) ReleaseSlot(id uint) error {
	return r.db.Model(&models.Offer{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", 1)).Error
}
