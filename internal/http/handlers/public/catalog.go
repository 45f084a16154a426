package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/wellcart-next/internal/http/response"
	"github.com/wellcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProducts 获取商品列表
// 可选 status 过滤（缺货页/下架页复用同一接口）
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))
	status := strings.TrimSpace(c.Query("status"))

	products, total, err := h.ProductService.ListPublic(category, search, status, page, pageSize)
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

// GetProductBySKU 根据 SKU 获取商品详情
// 纯数字参数按商品 ID 解析（SKU 均带字母前缀，不会冲突）
func (h *Handler) GetProductBySKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		respondError(c, response.CodeBadRequest, "sku is required", nil)
		return
	}

	var (
		product interface{}
		err     error
	)
	if id, parseErr := strconv.ParseUint(sku, 10, 64); parseErr == nil && id > 0 {
		product, err = h.ProductService.GetByID(uint(id))
	} else {
		product, err = h.ProductService.GetBySKU(sku)
	}
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

// GetConfig 获取店面公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	captchaEnabled := h.CaptchaService != nil && h.CaptchaService.Enabled()
	response.Success(c, gin.H{
		"portal_base_url": h.Config.Checkout.PortalBaseURL,
		"captcha_enabled": captchaEnabled,
	})
}

// GetCategories 获取分类列表（首项固定为 All）
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.ProductService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch categories", err)
		return
	}

	response.Success(c, categories)
}

// GetProductGroups 获取变体组列表
// 同组商品按颜色/口味聚合，前端据此渲染变体切换
func (h *Handler) GetProductGroups(c *gin.Context) {
	groups, err := h.ProductService.ListGroups()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch product groups", err)
		return
	}

	response.Success(c, groups)
}
