package service

import (
	"strings"

	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品目录服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	SKU         string
	Name        string
	Description string
	GroupName   string
	Category    string
	Price       decimal.Decimal
	Image       string
	Color       string
	BuyLink     string
	Status      string
	IsActive    *bool
	SortOrder   int
}

// ProductGroup 变体组
// 同组商品共享展示卡片，购买链接始终取选中变体的 BuyLink
type ProductGroup struct {
	GroupName string           `json:"group_name"`
	Variants  []models.Product `json:"variants"`
}

// ListPublic 获取公开商品列表（仅上架）
// status 非空时与分类、搜索条件叠加过滤
func (s *ProductService) ListPublic(category, search, status string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   category,
		Search:     search,
		OnlyActive: true,
	}
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		normalized := normalizeProductStatus(trimmed)
		if normalized == "" {
			return nil, 0, ErrStatusInvalid
		}
		filter.Status = normalized
	}
	return s.repo.List(filter)
}

// GetBySKU 按 SKU 获取公开商品
func (s *ProductService) GetBySKU(sku string) (*models.Product, error) {
	product, err := s.repo.GetBySKU(sku, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetByID 按 ID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListCategories 去重分类列表，首位固定为 All
func (s *ProductService) ListCategories() ([]string, error) {
	categories, err := s.repo.ListCategories()
	if err != nil {
		return nil, err
	}
	return append([]string{"All"}, categories...), nil
}

// ListGroups 变体组列表
// 组内顺序跟随仓库排序（组名、排序权重、ID）
func (s *ProductService) ListGroups() ([]ProductGroup, error) {
	products, err := s.repo.ListGroups(true)
	if err != nil {
		return nil, err
	}
	var groups []ProductGroup
	index := make(map[string]int)
	for _, product := range products {
		name := product.GroupName
		i, ok := index[name]
		if !ok {
			index[name] = len(groups)
			groups = append(groups, ProductGroup{GroupName: name})
			i = index[name]
		}
		groups[i].Variants = append(groups[i].Variants, product)
	}
	return groups, nil
}

// ListAdmin 后台商品列表（含下架）
// status 为空或 all 时不过滤状态
func (s *ProductService) ListAdmin(category, search, status string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: category,
		Search:   search,
	}
	if trimmed := strings.TrimSpace(status); trimmed != "" && !strings.EqualFold(trimmed, "all") {
		normalized := normalizeProductStatus(trimmed)
		if normalized == "" {
			return nil, 0, ErrStatusInvalid
		}
		filter.Status = normalized
	}
	return s.repo.List(filter)
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	buyLink := strings.TrimSpace(input.BuyLink)
	if sku == "" || name == "" || buyLink == "" {
		return nil, ErrProductInvalid
	}
	if input.Price.IsNegative() {
		return nil, ErrProductInvalid
	}
	status := normalizeProductStatus(input.Status)
	if status == "" {
		return nil, ErrStatusInvalid
	}
	count, err := s.repo.CountBySKU(sku, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSKUExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := models.Product{
		SKU:         sku,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		GroupName:   strings.TrimSpace(input.GroupName),
		Category:    strings.TrimSpace(input.Category),
		PriceAmount: models.NewMoneyFromDecimal(input.Price),
		Image:       strings.TrimSpace(input.Image),
		Color:       strings.TrimSpace(input.Color),
		BuyLink:     buyLink,
		Status:      status,
		IsActive:    isActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.repo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	buyLink := strings.TrimSpace(input.BuyLink)
	if sku == "" || name == "" || buyLink == "" {
		return nil, ErrProductInvalid
	}
	if input.Price.IsNegative() {
		return nil, ErrProductInvalid
	}
	rawStatus := strings.TrimSpace(input.Status)
	if rawStatus == "" {
		rawStatus = product.Status
	}
	status := normalizeProductStatus(rawStatus)
	if status == "" {
		return nil, ErrStatusInvalid
	}
	count, err := s.repo.CountBySKU(sku, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSKUExists
	}

	product.SKU = sku
	product.Name = name
	product.Description = strings.TrimSpace(input.Description)
	product.GroupName = strings.TrimSpace(input.GroupName)
	product.Category = strings.TrimSpace(input.Category)
	product.PriceAmount = models.NewMoneyFromDecimal(input.Price)
	product.Image = strings.TrimSpace(input.Image)
	product.Color = strings.TrimSpace(input.Color)
	product.BuyLink = buyLink
	product.Status = status
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// ChangeStatus 变更商品状态
func (s *ProductService) ChangeStatus(id uint, status string) (*models.Product, error) {
	normalized := normalizeProductStatus(status)
	if normalized == "" {
		return nil, ErrStatusInvalid
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	product.Status = normalized
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.repo.Delete(id)
}

func normalizeProductStatus(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", constants.ProductStatusInStore:
		return constants.ProductStatusInStore
	case constants.ProductStatusOutOfStock:
		return constants.ProductStatusOutOfStock
	case constants.ProductStatusRemovalRequested:
		return constants.ProductStatusRemovalRequested
	default:
		return ""
	}
}
