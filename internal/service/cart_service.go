package service

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartView 购物车视图（用于响应）
// 汇总字段每次读取重算，不落库
type CartView struct {
	Items      []models.CartLineItem `json:"items"`
	TotalItems int                   `json:"total_items"`
	TotalPrice models.Money          `json:"total_price"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	Name     string
	Link     string
	Price    *models.Money
	Image    string
	Quantity int
}

// CartService 购物车服务
// 购物车是唯一共享可变资源：同一会话的变更经 keyed mutex 串行化，
// 快照持久化为尽力而为的副通道（失败记日志，不阻塞本次变更）
type CartService struct {
	cartRepo repository.CartRepository
	locks    sync.Map
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository) *CartService {
	return &CartService{cartRepo: cartRepo}
}

func (s *CartService) sessionLock(sessionID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Get 获取会话购物车
func (s *CartService) Get(sessionID string) (*CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidCartItem
	}
	items, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	return buildCartView(items), nil
}

// Add 追加一条行项
// 不按商品去重：同一链接再次加入产生新行；数量兜底为 1
func (s *CartService) Add(sessionID string, input AddCartItemInput) (*CartView, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(input.Link) == "" {
		return nil, ErrInvalidCartItem
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	items, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	items = append(items, models.CartLineItem{
		Name:     strings.TrimSpace(input.Name),
		Link:     strings.TrimSpace(input.Link),
		Price:    input.Price,
		Image:    strings.TrimSpace(input.Image),
		Quantity: quantity,
	})
	s.persist(sessionID, items)
	return buildCartView(items), nil
}

// Remove 按下标删除行项，越界为空操作
func (s *CartService) Remove(sessionID string, index int) (*CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidCartItem
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	items, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if index >= 0 && index < len(items) {
		items = append(items[:index], items[index+1:]...)
		s.persist(sessionID, items)
	}
	return buildCartView(items), nil
}

// UpdateQuantity 设置行项数量
// 数量小于等于 0 等价于删除该行；越界为空操作
func (s *CartService) UpdateQuantity(sessionID string, index, quantity int) (*CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidCartItem
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	items, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if index >= 0 && index < len(items) {
		if quantity <= 0 {
			items = append(items[:index], items[index+1:]...)
		} else {
			items[index].Quantity = quantity
		}
		s.persist(sessionID, items)
	}
	return buildCartView(items), nil
}

// Clear 清空会话购物车
func (s *CartService) Clear(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidCartItem
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return s.cartRepo.DeleteBySession(sessionID)
}

// load 读取并解码快照
// 损坏的 JSON 按空购物车处理（与前端读不出 localStorage 的行为一致）
func (s *CartService) load(sessionID string) ([]models.CartLineItem, error) {
	snapshot, err := s.cartRepo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || strings.TrimSpace(snapshot.ItemsJSON) == "" {
		return nil, nil
	}
	var items []models.CartLineItem
	if err := json.Unmarshal([]byte(snapshot.ItemsJSON), &items); err != nil {
		logger.Warnw("cart_snapshot_corrupt", "session_id", sessionID, "error", err)
		return nil, nil
	}
	for i := range items {
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	return items, nil
}

func (s *CartService) persist(sessionID string, items []models.CartLineItem) {
	if items == nil {
		items = []models.CartLineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		logger.Warnw("cart_snapshot_encode_failed", "session_id", sessionID, "error", err)
		return
	}
	if err := s.cartRepo.Save(sessionID, string(payload)); err != nil {
		logger.Warnw("cart_snapshot_save_failed", "session_id", sessionID, "error", err)
	}
}

func buildCartView(items []models.CartLineItem) *CartView {
	if items == nil {
		items = []models.CartLineItem{}
	}
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return &CartView{
		Items:      items,
		TotalItems: totalItems,
		TotalPrice: models.NewMoneyFromDecimal(totalPrice),
	}
}
