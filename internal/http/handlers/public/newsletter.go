package public

import (
	"errors"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SubscribeRequest 订阅请求
type SubscribeRequest struct {
	Email string `json:"email" binding:"required"`
}

// GetNewsletterPopup 查询订阅弹窗是否需要展示
func (h *Handler) GetNewsletterPopup(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}

	seen, err := h.NewsletterService.Seen(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch popup state", err)
		return
	}
	response.Success(c, gin.H{"show": !seen})
}

// DismissNewsletterPopup 关闭订阅弹窗（本会话不再出现）
func (h *Handler) DismissNewsletterPopup(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}

	if err := h.NewsletterService.MarkSeen(c.Request.Context(), sessionID); err != nil {
		respondError(c, response.CodeInternal, "failed to dismiss popup", err)
		return
	}
	response.Success(c, gin.H{"dismissed": true})
}

// SubscribeNewsletter 订阅邮件列表
func (h *Handler) SubscribeNewsletter(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.NewsletterService.Subscribe(c.Request.Context(), sessionID, req.Email); err != nil {
		if errors.Is(err, service.ErrEmailInvalid) {
			respondError(c, response.CodeBadRequest, "invalid email", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to subscribe", err)
		return
	}
	response.Success(c, gin.H{"subscribed": true})
}
