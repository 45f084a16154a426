package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminCheckoutRuns 后台结账运行列表
func (h *Handler) GetAdminCheckoutRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	sessionID := c.Query("session_id")
	status := c.Query("status")

	runs, total, err := h.CheckoutService.ListRunsAdmin(sessionID, status, page, pageSize)
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

// GetAdminCheckoutRun 后台结账运行详情
func (h *Handler) GetAdminCheckoutRun(c *gin.Context) {
	runNo := strings.TrimSpace(c.Param("run_no"))
	if runNo == "" {
		respondError(c, response.CodeBadRequest, "invalid run no", nil)
		return
	}

	detail, err := h.CheckoutService.GetRunAdmin(runNo)
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

// GetSubscribers 订阅邮箱列表
func (h *Handler) GetSubscribers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	subscribers, total, err := h.NewsletterService.ListSubscribers(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch subscribers", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, subscribers, pagination)
}
