package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/models"

	"gorm.io/gorm"
)

// CheckoutRunRepository 结账运行数据访问接口
type CheckoutRunRepository interface {
	CreateWithItems(run *models.CheckoutRun, items []models.CheckoutRunItem) error
	GetByRunNo(runNo string) (*models.CheckoutRun, []models.CheckoutRunItem, error)
	List(filter CheckoutRunListFilter) ([]models.CheckoutRun, int64, error)
	UpdateRun(run *models.CheckoutRun) error
	UpdateItemStatus(runNo string, position int, status, marker string, finishedAt *time.Time) error
	MarkItemSent(runNo string, position int, dispatchURL string, sentAt time.Time) error
	IncrementCompleted(runNo string) error
	WithTx(tx *gorm.DB) CheckoutRunRepository
}

// GormCheckoutRunRepository GORM 实现
type GormCheckoutRunRepository struct {
	db *gorm.DB
}

// NewCheckoutRunRepository 创建结账运行仓库
func NewCheckoutRunRepository(db *gorm.DB) *GormCheckoutRunRepository {
	return &GormCheckoutRunRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCheckoutRunRepository) WithTx(tx *gorm.DB) CheckoutRunRepository {
	if tx == nil {
		return r
	}
	return &GormCheckoutRunRepository{db: tx}
}

// CreateWithItems 创建运行及其全部队列项
func (r *GormCheckoutRunRepository) CreateWithItems(run *models.CheckoutRun, items []models.CheckoutRunItem) error {
	if run == nil {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// GetByRunNo 获取运行及其队列项（按下标排序）
func (r *GormCheckoutRunRepository) GetByRunNo(runNo string) (*models.CheckoutRun, []models.CheckoutRunItem, error) {
	var run models.CheckoutRun
	err := r.db.Where("run_no = ?", runNo).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var items []models.CheckoutRunItem
	if err := r.db.Where("run_no = ?", runNo).Order("position ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &run, items, nil
}

// List 运行列表
func (r *GormCheckoutRunRepository) List(filter CheckoutRunListFilter) ([]models.CheckoutRun, int64, error) {
	var runs []models.CheckoutRun
	query := r.db.Model(&models.CheckoutRun{})
	if sessionID := strings.TrimSpace(filter.SessionID); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// UpdateRun 保存运行状态
func (r *GormCheckoutRunRepository) UpdateRun(run *models.CheckoutRun) error {
	if run == nil {
		return nil
	}
	return r.db.Save(run).Error
}

// UpdateItemStatus 更新队列项状态
func (r *GormCheckoutRunRepository) UpdateItemStatus(runNo string, position int, status, marker string, finishedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if marker != "" {
		updates["marker"] = marker
	}
	if finishedAt != nil {
		updates["finished_at"] = finishedAt
	}
	return r.db.Model(&models.CheckoutRunItem{}).
		Where("run_no = ? AND position = ?", runNo, position).
		Updates(updates).Error
}

// MarkItemSent 记录派发（含实际派发地址）
func (r *GormCheckoutRunRepository) MarkItemSent(runNo string, position int, dispatchURL string, sentAt time.Time) error {
	return r.db.Model(&models.CheckoutRunItem{}).
		Where("run_no = ? AND position = ?", runNo, position).
		Updates(map[string]interface{}{
			"status":       constants.CheckoutItemStatusSent,
			"dispatch_url": dispatchURL,
			"sent_at":      sentAt,
			"updated_at":   time.Now(),
		}).Error
}

// IncrementCompleted 完成计数加一
func (r *GormCheckoutRunRepository) IncrementCompleted(runNo string) error {
	return r.db.Model(&models.CheckoutRun{}).
		Where("run_no = ?", runNo).
		UpdateColumn("completed_items", gorm.Expr("completed_items + 1")).Error
}
