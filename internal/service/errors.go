package service

import "errors"

// 服务层业务错误，处理器通过 errors.Is 映射为响应码。
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderNoItems           = errors.New("order has no items")
	ErrOrderItemInvalid       = errors.New("order item invalid")
	ErrOrderCreateFailed      = errors.New("order create failed")
	ErrOrderStageInvalid      = errors.New("order stage transition not allowed")
	ErrOrderStageConflict     = errors.New("order stage changed concurrently")
	ErrOrderCancelNotAllowed  = errors.New("order can no longer be cancelled")
	ErrFeedbackNotDeliverable = errors.New("feedback only allowed on delivered orders")
	ErrFeedbackAlreadyExists  = errors.New("feedback already submitted")
	ErrFeedbackRatingInvalid  = errors.New("feedback rating out of range")

	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
	ErrMenuSlugExists      = errors.New("menu slug already exists")

	ErrOfferNotFound       = errors.New("offer not found")
	ErrOfferInactive       = errors.New("offer inactive")
	ErrOfferNotStarted     = errors.New("offer not started")
	ErrOfferExpired        = errors.New("offer expired")
	ErrOfferMinAmount      = errors.New("offer minimum amount not met")
	ErrOfferUsageLimit     = errors.New("offer usage limit reached")
	ErrOfferPerUserLimit   = errors.New("offer per-user limit reached")
	ErrOfferFirstOrderOnly = errors.New("offer restricted to first orders")
	ErrOfferInvalid        = errors.New("offer invalid")
	ErrOfferCodeExists     = errors.New("offer code already exists")

	ErrAdminNotFound        = errors.New("admin not found")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooWeak      = errors.New("password too weak")
	ErrOldPasswordMismatch  = errors.New("old password mismatch")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
)
