package public

import (
	"errors"

	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNoItems, code: response.CodeBadRequest, msg: "order has no items"},
	{target: service.ErrOrderItemInvalid, code: response.CodeBadRequest, msg: "order item invalid"},
	{target: service.ErrMenuItemNotFound, code: response.CodeBadRequest, msg: "menu item not found"},
	{target: service.ErrMenuItemUnavailable, code: response.CodeBadRequest, msg: "menu item unavailable"},
	{target: service.ErrOfferNotFound, code: response.CodeBadRequest, msg: "offer code not found"},
	{target: service.ErrOfferInactive, code: response.CodeBadRequest, msg: "offer inactive"},
	{target: service.ErrOfferNotStarted, code: response.CodeBadRequest, msg: "offer not started"},
	{target: service.ErrOfferExpired, code: response.CodeBadRequest, msg: "offer expired"},
	{target: service.ErrOfferMinAmount, code: response.CodeBadRequest, msg: "order amount below offer minimum"},
	{target: service.ErrOfferUsageLimit, code: response.CodeBadRequest, msg: "offer usage limit reached"},
	{target: service.ErrOfferPerUserLimit, code: response.CodeBadRequest, msg: "offer per-user limit reached"},
	{target: service.ErrOfferFirstOrderOnly, code: response.CodeBadRequest, msg: "offer restricted to first orders"},
	{target: service.ErrOfferInvalid, code: response.CodeBadRequest, msg: "offer invalid"},
}

var orderStageErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStageInvalid, code: response.CodeBadRequest, msg: "stage transition not allowed"},
	{target: service.ErrOrderStageConflict, code: response.CodeConflict, msg: "order changed concurrently, retry"},
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeConflict, msg: "order can no longer be cancelled"},
}

var feedbackErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrFeedbackRatingInvalid, code: response.CodeBadRequest, msg: "rating must be 1-5"},
	{target: service.ErrFeedbackNotDeliverable, code: response.CodeConflict, msg: "feedback only allowed after delivery"},
	{target: service.ErrFeedbackAlreadyExists, code: response.CodeConflict, msg: "feedback already submitted"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
}

func respondOrderStageError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderStageErrorRules, response.CodeInternal, "order update failed")
}

func respondFeedbackError(c *gin.Context, err error) {
	respondWithMappedError(c, err, feedbackErrorRules, response.CodeInternal, "feedback submit failed")
}
