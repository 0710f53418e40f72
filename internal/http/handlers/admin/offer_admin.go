package admin

import (
	"strconv"
	"strings"

	"github.com/cheezy-bite/internal/http/handlers/shared"
	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOffers 优惠码列表
func (h *Handler) ListOffers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.OfferListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	offers, total, err := h.OfferAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "offer list failed", err)
		return
	}
	response.SuccessWithPage(c, offers, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOffer 优惠码详情
func (h *Handler) GetOffer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid offer id", nil)
		return
	}
	offer, err := h.OfferAdminService.Get(uint(id))
	if err != nil {
		respondWithMappedError(c, err, offerErrorRules, "query offer failed")
		return
	}
	response.Success(c, offer)
}

// CreateOffer 新建优惠码
func (h *Handler) CreateOffer(c *gin.Context) {
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	offer.ID = 0
	offer.UsedCount = 0
	if err := h.OfferAdminService.Create(&offer); err != nil {
		respondWithMappedError(c, err, offerErrorRules, "create offer failed")
		return
	}
	requestLog(c).Infow("offer_created", "code", offer.Code)
	response.Success(c, offer)
}

// UpdateOffer 更新优惠码
func (h *Handler) UpdateOffer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid offer id", nil)
		return
	}
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	offer.ID = uint(id)
	if err := h.OfferAdminService.Update(&offer); err != nil {
		respondWithMappedError(c, err, offerErrorRules, "update offer failed")
		return
	}
	response.Success(c, offer)
}

// DeleteOffer 删除优惠码
func (h *Handler) DeleteOffer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid offer id", nil)
		return
	}
	if err := h.OfferAdminService.Delete(uint(id)); err != nil {
		respondWithMappedError(c, err, offerErrorRules, "delete offer failed")
		return
	}
	response.SuccessWithMsg(c, "offer deleted", nil)
}
