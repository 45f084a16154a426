package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/wellcart-next/internal/cache"
	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/repository"
)

// NewsletterService 订阅弹窗服务
// seen 标记决定弹窗是否再次出现：关闭或提交后置位
type NewsletterService struct {
	subscriberRepo repository.SubscriberRepository
	seenTTL        time.Duration
}

// NewNewsletterService 创建订阅服务
// seenTTL 为 0 表示标记不过期
func NewNewsletterService(subscriberRepo repository.SubscriberRepository, seenTTL time.Duration) *NewsletterService {
	if seenTTL < 0 {
		seenTTL = 0
	}
	return &NewsletterService{
		subscriberRepo: subscriberRepo,
		seenTTL:        seenTTL,
	}
}

func seenKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", constants.CacheKeyNewsletterSeen, sessionID)
}

// Seen 弹窗是否已对该会话展示过
func (s *NewsletterService) Seen(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	return cache.GetFlag(ctx, seenKey(sessionID))
}

// MarkSeen 置位弹窗标记（用户关闭弹窗）
func (s *NewsletterService) MarkSeen(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return cache.SetFlag(ctx, seenKey(sessionID), s.seenTTL)
}

// Subscribe 订阅邮件列表
// 重复邮箱幂等；成功后同时置位弹窗标记
func (s *NewsletterService) Subscribe(ctx context.Context, sessionID, email string) error {
	address := strings.ToLower(strings.TrimSpace(email))
	if address == "" {
		return ErrEmailInvalid
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return ErrEmailInvalid
	}

	existing, err := s.subscriberRepo.GetByEmail(address)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.subscriberRepo.Create(&models.NewsletterSubscriber{
			Email:     address,
			SessionID: strings.TrimSpace(sessionID),
		}); err != nil {
			return err
		}
		logger.Infow("newsletter_subscribed", "email", address)
	}
	return s.MarkSeen(ctx, sessionID)
}

// ListSubscribers 分页查询订阅记录（管理端）
func (s *NewsletterService) ListSubscribers(page, pageSize int) ([]models.NewsletterSubscriber, int64, error) {
	return s.subscriberRepo.List(page, pageSize)
}
