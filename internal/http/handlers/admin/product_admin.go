package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	GroupName   string `json:"group_name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Color       string `json:"color"`
	BuyLink     string `json:"buy_link" binding:"required"`
	Status      string `json:"status"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// ChangeStatusRequest 修改商品状态请求
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (req ProductRequest) toInput() (service.ProductInput, error) {
	price := decimal.Zero
	if strings.TrimSpace(req.Price) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(req.Price))
		if err != nil {
			return service.ProductInput{}, err
		}
		price = parsed
	}
	return service.ProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		GroupName:   req.GroupName,
		Category:    req.Category,
		Price:       price,
		Image:       req.Image,
		Color:       req.Color,
		BuyLink:     req.BuyLink,
		Status:      req.Status,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
	}, nil
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	category := c.Query("category")
	search := c.Query("search")
	status := c.Query("status")

	products, total, err := h.ProductService.ListAdmin(category, search, status, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrStatusInvalid) {
			respondError(c, response.CodeBadRequest, "invalid product status", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch products", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.ProductService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch product", err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid price", nil)
		return
	}

	product, err := h.ProductService.Create(input)
	if err != nil {
		respondProductWriteError(c, err, "failed to create product")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid price", nil)
		return
	}

	product, err := h.ProductService.Update(id, input)
	if err != nil {
		respondProductWriteError(c, err, "failed to update product")
		return
	}
	response.Success(c, product)
}

// ChangeProductStatus 修改商品状态
func (h *Handler) ChangeProductStatus(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.ChangeStatus(id, req.Status)
	if err != nil {
		respondProductWriteError(c, err, "failed to change product status")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to delete product", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseProductID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return 0, false
	}
	return uint(id), true
}

func respondProductWriteError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "product not found", nil)
	case errors.Is(err, service.ErrSKUExists):
		respondError(c, response.CodeBadRequest, "sku already exists", nil)
	case errors.Is(err, service.ErrProductInvalid):
		respondError(c, response.CodeBadRequest, "invalid product payload", nil)
	case errors.Is(err, service.ErrStatusInvalid):
		respondError(c, response.CodeBadRequest, "invalid product status", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
