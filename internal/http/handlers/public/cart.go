package public

import (
	"errors"
	"strconv"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 添加购物车行项请求
type AddCartItemRequest struct {
	Name     string        `json:"name" binding:"required"`
	Link     string        `json:"link" binding:"required"`
	Price    *models.Money `json:"price"`
	Image    string        `json:"image"`
	Quantity int           `json:"quantity"`
}

// UpdateCartQuantityRequest 修改行项数量请求
type UpdateCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}

	view, err := h.CartService.Get(sessionID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch cart", err)
		return
	}
	response.Success(c, view)
}

// AddCartItem 添加购物车行项
// 同一商品重复添加产生新行，不做合并
func (h *Handler) AddCartItem(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	view, err := h.CartService.Add(sessionID, service.AddCartItemInput{
		Name:     req.Name,
		Link:     req.Link,
		Price:    req.Price,
		Image:    req.Image,
		Quantity: req.Quantity,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCartItem) {
			respondError(c, response.CodeBadRequest, "invalid cart item", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to update cart", err)
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 按行下标删除购物车行项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, response.CodeBadRequest, "invalid cart index", nil)
		return
	}

	view, err := h.CartService.Remove(sessionID, index)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to update cart", err)
		return
	}
	response.Success(c, view)
}

// UpdateCartQuantity 按行下标修改数量
// 数量小于等于 0 等价于删除该行
func (h *Handler) UpdateCartQuantity(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, response.CodeBadRequest, "invalid cart index", nil)
		return
	}
	var req UpdateCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	view, err := h.CartService.UpdateQuantity(sessionID, index, req.Quantity)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to update cart", err)
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(sessionID); err != nil {
		respondError(c, response.CodeInternal, "failed to clear cart", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
