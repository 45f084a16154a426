package service

import "errors"

// 业务哨兵错误，handler 层据此映射响应码
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCartItem    = errors.New("invalid cart item")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrProductNotFound    = errors.New("product not found")
	ErrSKUExists          = errors.New("sku already exists")
	ErrProductInvalid     = errors.New("product payload invalid")
	ErrStatusInvalid      = errors.New("product status invalid")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotAllowed    = errors.New("email not allowed")
	ErrEmailInvalid       = errors.New("email invalid")
	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrRunNotFound        = errors.New("checkout run not found")
	ErrRunNotCancellable  = errors.New("checkout run not cancellable")
	ErrCancelUnavailable  = errors.New("checkout cancellation unavailable")
	ErrQueueUnavailable   = errors.New("task queue unavailable")
)
