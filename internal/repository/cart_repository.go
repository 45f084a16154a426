package repository

import (
	"errors"
	"time"

	"github.com/wellcart-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车快照数据访问接口
type CartRepository interface {
	GetBySession(sessionID string) (*models.CartSnapshot, error)
	Save(sessionID, itemsJSON string) error
	DeleteBySession(sessionID string) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetBySession 获取会话快照
func (r *GormCartRepository) GetBySession(sessionID string) (*models.CartSnapshot, error) {
	var snapshot models.CartSnapshot
	err := r.db.Where("session_id = ?", sessionID).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Save 写入整份快照（单写者，last-write-wins）
func (r *GormCartRepository) Save(sessionID, itemsJSON string) error {
	var existing models.CartSnapshot
	err := r.db.Where("session_id = ?", sessionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.CartSnapshot{
			SessionID: sessionID,
			ItemsJSON: itemsJSON,
		}).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&existing).Updates(map[string]interface{}{
		"items_json": itemsJSON,
		"updated_at": time.Now(),
	}).Error
}

// DeleteBySession 删除会话快照
func (r *GormCartRepository) DeleteBySession(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&models.CartSnapshot{}).Error
}
