package admin

import (
	"errors"

	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, fallbackMsg, err)
}

var loginErrorRules = []mappedHandlerError{
	{service.ErrInvalidCredentials, response.CodeUnauthorized, "invalid username or password"},
	{service.ErrTooManyLoginAttempts, response.CodeTooManyRequests, "too many login attempts, try again later"},
}

var passwordErrorRules = []mappedHandlerError{
	{service.ErrAdminNotFound, response.CodeNotFound, "admin not found"},
	{service.ErrOldPasswordMismatch, response.CodeBadRequest, "old password mismatch"},
	{service.ErrPasswordTooWeak, response.CodeBadRequest, "password must be at least 8 characters"},
}

var orderStageErrorRules = []mappedHandlerError{
	{service.ErrOrderNotFound, response.CodeNotFound, "order not found"},
	{service.ErrOrderStageInvalid, response.CodeBadRequest, "invalid stage transition"},
	{service.ErrOrderStageConflict, response.CodeConflict, "order stage changed concurrently"},
}

var offerErrorRules = []mappedHandlerError{
	{service.ErrOfferNotFound, response.CodeNotFound, "offer not found"},
	{service.ErrOfferCodeExists, response.CodeConflict, "offer code already exists"},
	{service.ErrOfferInvalid, response.CodeBadRequest, "invalid offer definition"},
}

var menuErrorRules = []mappedHandlerError{
	{service.ErrMenuItemNotFound, response.CodeNotFound, "menu item not found"},
	{service.ErrMenuSlugExists, response.CodeConflict, "menu slug already exists"},
}
