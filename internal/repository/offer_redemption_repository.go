package repository

import (
	"github.com/cheezy-bite/internal/models"

	"gorm.io/gorm"
)

// OfferRedemptionRepository 优惠核销记录数据访问接口
type OfferRedemptionRepository interface {
	Create(redemption *models.OfferRedemption) error
	CountByOfferAndUser(offerID, userID uint) (int64, error)
	ListByUser(userID uint, page, pageSize int) ([]models.OfferRedemption, int64, error)
	WithTx(tx *gorm.DB) *GormOfferRedemptionRepository
}

// GormOfferRedemptionRepository GORM 实现
type GormOfferRedemptionRepository struct {
	db *gorm.DB
}

// NewOfferRedemptionRepository 创建核销记录仓库
func NewOfferRedemptionRepository(db *gorm.DB) *GormOfferRedemptionRepository {
	return &GormOfferRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRedemptionRepository) WithTx(tx *gorm.DB) *GormOfferRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRedemptionRepository{db: tx}
}

// Create 创建核销记录
func (r *GormOfferRedemptionRepository) Create(redemption *models.OfferRedemption) error {
	return r.db.Create(redemption).Error
}

// CountByOfferAndUser 统计用户对某活动的核销次数
func (r *GormOfferRedemptionRepository) CountByOfferAndUser(offerID, userID uint) (int64, error) {
	if offerID == 0 || userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.OfferRedemption{}).
		Where("offer_id = ? AND user_id = ?", offerID, userID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListByUser 获取用户核销记录
func (r *GormOfferRedemptionRepository) ListByUser(userID uint, page, pageSize int) ([]models.OfferRedemption, int64, error) {
	var redemptions []models.OfferRedemption
	var total int64

	query := r.db.Model(&models.OfferRedemption{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query.Order("created_at DESC"), page, pageSize)
	if err := query.Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}
