package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StartCheckout 冻结购物车并启动结账运行
func (h *Handler) StartCheckout(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}

	run, err := h.CheckoutService.Start(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			respondError(c, response.CodeBadRequest, "cart is empty", nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeInternal, "checkout queue unavailable", err)
		default:
			respondError(c, response.CodeInternal, "failed to start checkout", err)
		}
		return
	}
	response.Success(c, run)
}

// GetCheckoutRun 获取结账运行详情
// 中止的运行附带手动引导
func (h *Handler) GetCheckoutRun(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	runNo := strings.TrimSpace(c.Param("run_no"))
	if runNo == "" {
		respondError(c, response.CodeBadRequest, "run_no is required", nil)
		return
	}

	detail, err := h.CheckoutService.GetRun(runNo, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			respondError(c, response.CodeNotFound, "checkout run not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch checkout run", err)
		return
	}
	response.Success(c, detail)
}

// ListCheckoutRuns 获取会话的结账运行列表
func (h *Handler) ListCheckoutRuns(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	runs, total, err := h.CheckoutService.ListRuns(sessionID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch checkout runs", err)
		return
	}
	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, runs, pagination)
}

// CancelCheckoutRun 请求取消进行中的结账运行
func (h *Handler) CancelCheckoutRun(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	runNo := strings.TrimSpace(c.Param("run_no"))
	if runNo == "" {
		respondError(c, response.CodeBadRequest, "run_no is required", nil)
		return
	}

	if err := h.CheckoutService.Cancel(c.Request.Context(), runNo, sessionID); err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			respondError(c, response.CodeNotFound, "checkout run not found", nil)
		case errors.Is(err, service.ErrRunNotCancellable):
			respondError(c, response.CodeBadRequest, "checkout run already finished", nil)
		case errors.Is(err, service.ErrCancelUnavailable):
			respondError(c, response.CodeInternal, "cancellation unavailable", err)
		default:
			respondError(c, response.CodeInternal, "failed to cancel checkout run", err)
		}
		return
	}
	response.Success(c, gin.H{"canceled": true})
}
