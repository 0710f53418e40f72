package service

import (
	"strings"

	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/repository"
)

// OfferAdminService 优惠活动管理服务
type OfferAdminService struct {
	offerRepo repository.OfferRepository
}

// NewOfferAdminService 创建优惠活动管理服务
func NewOfferAdminService(offerRepo repository.OfferRepository) *OfferAdminService {
	return &OfferAdminService{offerRepo: offerRepo}
}

// List 优惠活动列表
func (s *OfferAdminService) List(filter repository.OfferListFilter) ([]models.Offer, int64, error) {
	return s.offerRepo.List(filter)
}

// Get 优惠活动详情
func (s *OfferAdminService) Get(id uint) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// Create 创建优惠活动
func (s *OfferAdminService) Create(offer *models.Offer) error {
	if err := validateOffer(offer); err != nil {
		return err
	}
	existing, err := s.offerRepo.GetByCode(offer.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrOfferCodeExists
	}
	return s.offerRepo.Create(offer)
}

// Update 更新优惠活动
func (s *OfferAdminService) Update(offer *models.Offer) error {
	if err := validateOffer(offer); err != nil {
		return err
	}
	existing, err := s.offerRepo.GetByCode(offer.Code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != offer.ID {
		return ErrOfferCodeExists
	}
	return s.offerRepo.Update(offer)
}

// Delete 删除优惠活动
func (s *OfferAdminService) Delete(id uint) error {
	return s.offerRepo.Delete(id)
}

func validateOffer(offer *models.Offer) error {
	if offer == nil || strings.TrimSpace(offer.Code) == "" {
		return ErrOfferInvalid
	}
	switch offer.Type {
	case constants.OfferTypeFixed, constants.OfferTypePercent:
	default:
		return ErrOfferInvalid
	}
	if offer.Value.Decimal.IsNegative() || offer.Value.Decimal.IsZero() {
		return ErrOfferInvalid
	}
	if offer.StartsAt != nil && offer.EndsAt != nil && offer.EndsAt.Before(*offer.StartsAt) {
		return ErrOfferInvalid
	}
	return nil
}
