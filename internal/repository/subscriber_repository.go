package repository

import (
	"errors"
	"strings"

	"github.com/wellcart-next/internal/models"

	"gorm.io/gorm"
)

// SubscriberRepository 订阅记录数据访问接口
type SubscriberRepository interface {
	GetByEmail(email string) (*models.NewsletterSubscriber, error)
	Create(subscriber *models.NewsletterSubscriber) error
	List(page, pageSize int) ([]models.NewsletterSubscriber, int64, error)
}

// GormSubscriberRepository GORM 实现
type GormSubscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository 创建订阅仓库
func NewSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// GetByEmail 按邮箱查询
func (r *GormSubscriberRepository) GetByEmail(email string) (*models.NewsletterSubscriber, error) {
	var subscriber models.NewsletterSubscriber
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&subscriber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscriber, nil
}

// Create 创建订阅记录
func (r *GormSubscriberRepository) Create(subscriber *models.NewsletterSubscriber) error {
	if subscriber == nil {
		return nil
	}
	subscriber.Email = strings.ToLower(strings.TrimSpace(subscriber.Email))
	return r.db.Create(subscriber).Error
}

// List 分页查询订阅记录
func (r *GormSubscriberRepository) List(page, pageSize int) ([]models.NewsletterSubscriber, int64, error) {
	var subscribers []models.NewsletterSubscriber
	var total int64

	query := r.db.Model(&models.NewsletterSubscriber{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPagination(query.Order("created_at DESC"), page, pageSize).Find(&subscribers).Error
	if err != nil {
		return nil, 0, err
	}
	return subscribers, total, nil
}
