package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wellcart-next/internal/cache"
	"github.com/wellcart-next/internal/checkout"
	"github.com/wellcart-next/internal/config"
	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/queue"
	"github.com/wellcart-next/internal/repository"

	"github.com/google/uuid"
)

const cancelFlagTTL = time.Hour

// ManualStep 手动引导单步
type ManualStep struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Link     string `json:"link"`
}

// ManualGuide 自动派发被拦截后的手动引导
// 前端据此逐个展示未完成项的购买链接，最后指向聚合购物车
type ManualGuide struct {
	Message string       `json:"message"`
	Steps   []ManualStep `json:"steps"`
	CartURL string       `json:"cart_url"`
}

// CheckoutRunDetail 运行详情（用于响应）
type CheckoutRunDetail struct {
	Run         *models.CheckoutRun      `json:"run"`
	Items       []models.CheckoutRunItem `json:"items"`
	ManualGuide *ManualGuide             `json:"manual_guide,omitempty"`
}

// CheckoutService 结账队列服务
// 负责把购物车冻结成运行记录、排队执行、跟踪状态与取消
type CheckoutService struct {
	cfg         *config.Config
	runRepo     repository.CheckoutRunRepository
	cartService *CartService
	queueClient *queue.Client
	dispatcher  checkout.Dispatcher
	clock       checkout.Clock
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(cfg *config.Config, runRepo repository.CheckoutRunRepository, cartService *CartService, queueClient *queue.Client, dispatcher checkout.Dispatcher) *CheckoutService {
	return &CheckoutService{
		cfg:         cfg,
		runRepo:     runRepo,
		cartService: cartService,
		queueClient: queueClient,
		dispatcher:  dispatcher,
		clock:       checkout.NewClock(),
	}
}

// Start 冻结当前购物车并排队一次结账运行
// 行项按数量展开：门户每次请求只接受一件商品
func (s *CheckoutService) Start(ctx context.Context, sessionID string) (*models.CheckoutRun, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidCartItem
	}
	view, err := s.cartService.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, ErrCartEmpty
	}

	var runItems []models.CheckoutRunItem
	position := 0
	for _, line := range view.Items {
		for i := 0; i < line.Quantity; i++ {
			runItems = append(runItems, models.CheckoutRunItem{
				Position: position,
				Name:     line.Name,
				Link:     line.Link,
				Status:   constants.CheckoutItemStatusPending,
			})
			position++
		}
	}

	run := &models.CheckoutRun{
		RunNo:      uuid.NewString(),
		SessionID:  sessionID,
		Status:     constants.CheckoutRunStatusQueued,
		TotalItems: len(runItems),
	}
	for i := range runItems {
		runItems[i].RunNo = run.RunNo
	}
	if err := s.runRepo.CreateWithItems(run, runItems); err != nil {
		return nil, err
	}

	payload := queue.CheckoutRunPayload{RunNo: run.RunNo, SessionID: sessionID}
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueCheckoutRun(payload); err != nil {
			return nil, err
		}
	} else {
		// 队列未启用时退化为进程内执行
		go func() {
			if err := s.Execute(context.Background(), payload); err != nil {
				logger.Errorw("checkout_inline_execute_failed", "run_no", run.RunNo, "error", err)
			}
		}()
	}
	logger.Infow("checkout_run_queued", "run_no", run.RunNo, "total_items", run.TotalItems)
	return run, nil
}

// GetRun 获取运行详情
// 中止的运行附带手动引导（未完成项 + 聚合购物车地址）
func (s *CheckoutService) GetRun(runNo, sessionID string) (*CheckoutRunDetail, error) {
	run, items, err := s.runRepo.GetByRunNo(runNo)
	if err != nil {
		return nil, err
	}
	if run == nil || run.SessionID != sessionID {
		return nil, ErrRunNotFound
	}
	detail := &CheckoutRunDetail{Run: run, Items: items}
	if run.Status == constants.CheckoutRunStatusAborted {
		detail.ManualGuide = s.buildManualGuide(run, items)
	}
	return detail, nil
}

// GetRunAdmin 后台按单号获取运行详情，不做会话归属校验
func (s *CheckoutService) GetRunAdmin(runNo string) (*CheckoutRunDetail, error) {
	run, items, err := s.runRepo.GetByRunNo(runNo)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	detail := &CheckoutRunDetail{Run: run, Items: items}
	if run.Status == constants.CheckoutRunStatusAborted {
		detail.ManualGuide = s.buildManualGuide(run, items)
	}
	return detail, nil
}

// ListRuns 会话的运行历史
func (s *CheckoutService) ListRuns(sessionID string, page, pageSize int) ([]models.CheckoutRun, int64, error) {
	return s.runRepo.List(repository.CheckoutRunListFilter{
		Page:      page,
		PageSize:  pageSize,
		SessionID: sessionID,
	})
}

// ListRunsAdmin 后台运行列表
func (s *CheckoutService) ListRunsAdmin(sessionID, status string, page, pageSize int) ([]models.CheckoutRun, int64, error) {
	return s.runRepo.List(repository.CheckoutRunListFilter{
		Page:      page,
		PageSize:  pageSize,
		SessionID: sessionID,
		Status:    status,
	})
}

// Cancel 请求取消一次运行
// 置位取消标记，由执行方在下一个轮询周期感知
func (s *CheckoutService) Cancel(ctx context.Context, runNo, sessionID string) error {
	run, _, err := s.runRepo.GetByRunNo(runNo)
	if err != nil {
		return err
	}
	if run == nil || run.SessionID != sessionID {
		return ErrRunNotFound
	}
	if run.Status != constants.CheckoutRunStatusQueued && run.Status != constants.CheckoutRunStatusRunning {
		return ErrRunNotCancellable
	}
	// 取消标记走 Redis，未接 Redis 时置位无处落地，不能假装成功
	if !cache.Enabled() {
		logger.Warnw("checkout_cancel_unavailable", "run_no", runNo)
		return ErrCancelUnavailable
	}
	if err := cache.SetFlag(ctx, cancelFlagKey(runNo), cancelFlagTTL); err != nil {
		return err
	}
	logger.Infow("checkout_run_cancel_requested", "run_no", runNo)
	return nil
}

// Execute 执行一次结账运行（worker 入口）
// 对已离开 queued 状态的运行幂等跳过
func (s *CheckoutService) Execute(ctx context.Context, payload queue.CheckoutRunPayload) error {
	run, items, err := s.runRepo.GetByRunNo(payload.RunNo)
	if err != nil {
		return err
	}
	if run == nil {
		logger.Warnw("checkout_run_missing", "run_no", payload.RunNo)
		return nil
	}
	if run.Status != constants.CheckoutRunStatusQueued {
		logger.Infow("checkout_run_already_handled", "run_no", run.RunNo, "status", run.Status)
		return nil
	}

	canceled, err := cache.GetFlag(ctx, cancelFlagKey(run.RunNo))
	if err != nil {
		logger.Warnw("checkout_cancel_flag_read_failed", "run_no", run.RunNo, "error", err)
	}
	if canceled {
		return s.finishAborted(run, constants.CheckoutAbortReasonCanceled)
	}

	now := s.clock.Now()
	run.Status = constants.CheckoutRunStatusRunning
	run.StartedAt = &now
	if err := s.runRepo.UpdateRun(run); err != nil {
		return err
	}

	queueItems := make([]checkout.Item, 0, len(items))
	for _, item := range items {
		queueItems = append(queueItems, checkout.Item{
			Position: item.Position,
			Name:     item.Name,
			Link:     item.Link,
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.watchCancelFlag(runCtx, run.RunNo, cancel)

	sequencer := checkout.NewSequencer(checkout.Config{
		PortalBaseURL: s.cfg.Checkout.PortalBaseURL,
		TenantCode:    s.cfg.Checkout.TenantCode,
		PollInterval:  s.cfg.Checkout.PollInterval(),
		ItemTimeout:   s.cfg.Checkout.ItemTimeout(),
		SettleDelay:   s.cfg.Checkout.SettleDelay(),
	}, s.clock, s.dispatcher)

	result, err := sequencer.Run(runCtx, queueItems, &runReporter{runRepo: s.runRepo, runNo: run.RunNo})
	if err != nil {
		return err
	}

	finishedAt := s.clock.Now()
	run.Status = result.Status
	run.AbortReason = result.AbortReason
	run.CartURL = result.CartURL
	run.CompletedItems = result.Completed + result.TimedOut
	run.FinishedAt = &finishedAt
	if err := s.runRepo.UpdateRun(run); err != nil {
		return err
	}

	if result.Status == constants.CheckoutRunStatusCompleted {
		// 运行成功后清空购物车，再由前端跳转聚合购物车
		if err := s.cartService.Clear(run.SessionID); err != nil {
			logger.Warnw("checkout_cart_clear_failed", "run_no", run.RunNo, "error", err)
		}
	}
	logger.Infow("checkout_run_finished",
		"run_no", run.RunNo,
		"status", result.Status,
		"completed", result.Completed,
		"timed_out", result.TimedOut,
	)
	return nil
}

// watchCancelFlag 轮询取消标记，置位即取消运行上下文
func (s *CheckoutService) watchCancelFlag(ctx context.Context, runNo string, cancel context.CancelFunc) {
	tickCh, stop := s.clock.Tick(s.cfg.Checkout.PollInterval())
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tickCh:
			canceled, err := cache.GetFlag(ctx, cancelFlagKey(runNo))
			if err != nil {
				continue
			}
			if canceled {
				cancel()
				return
			}
		}
	}
}

func (s *CheckoutService) finishAborted(run *models.CheckoutRun, reason string) error {
	now := s.clock.Now()
	run.Status = constants.CheckoutRunStatusAborted
	run.AbortReason = reason
	run.FinishedAt = &now
	return s.runRepo.UpdateRun(run)
}

func (s *CheckoutService) buildManualGuide(run *models.CheckoutRun, items []models.CheckoutRunItem) *ManualGuide {
	var steps []ManualStep
	for _, item := range items {
		if item.Status == constants.CheckoutItemStatusDone || item.Status == constants.CheckoutItemStatusTimedOut {
			continue
		}
		steps = append(steps, ManualStep{
			Position: item.Position,
			Name:     item.Name,
			Link:     item.Link,
		})
	}
	cartURL := run.CartURL
	if cartURL == "" {
		if derived, err := checkout.AggregateCartURL(s.cfg.Checkout.PortalBaseURL, s.cfg.Checkout.TenantCode, firstLink(items)); err == nil {
			cartURL = derived
		}
	}
	return &ManualGuide{
		Message: "Automatic checkout was interrupted. Open each product link below, add it to the portal cart, then finish at the cart page.",
		Steps:   steps,
		CartURL: cartURL,
	}
}

func firstLink(items []models.CheckoutRunItem) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Link
}

func cancelFlagKey(runNo string) string {
	return fmt.Sprintf("%s:%s", constants.CacheKeyCheckoutCancel, runNo)
}

// runReporter 把序列器回调落到运行记录上
// 超时项同样计入完成数，保证运行终止条件可达
type runReporter struct {
	runRepo repository.CheckoutRunRepository
	runNo   string
}

func (r *runReporter) RunStarted(cartURL string, at time.Time) {
	run, _, err := r.runRepo.GetByRunNo(r.runNo)
	if err != nil || run == nil {
		return
	}
	run.CartURL = cartURL
	if err := r.runRepo.UpdateRun(run); err != nil {
		logger.Warnw("checkout_run_update_failed", "run_no", r.runNo, "error", err)
	}
}

func (r *runReporter) ItemDispatched(position int, dispatchURL string, at time.Time) {
	if err := r.runRepo.MarkItemSent(r.runNo, position, dispatchURL, at); err != nil {
		logger.Warnw("checkout_item_update_failed", "run_no", r.runNo, "position", position, "error", err)
	}
}

func (r *runReporter) ItemDone(position int, marker string, at time.Time) {
	if err := r.runRepo.UpdateItemStatus(r.runNo, position, constants.CheckoutItemStatusDone, marker, &at); err != nil {
		logger.Warnw("checkout_item_update_failed", "run_no", r.runNo, "position", position, "error", err)
	}
	if err := r.runRepo.IncrementCompleted(r.runNo); err != nil {
		logger.Warnw("checkout_run_update_failed", "run_no", r.runNo, "error", err)
	}
}

func (r *runReporter) ItemTimedOut(position int, at time.Time) {
	if err := r.runRepo.UpdateItemStatus(r.runNo, position, constants.CheckoutItemStatusTimedOut, "", &at); err != nil {
		logger.Warnw("checkout_item_update_failed", "run_no", r.runNo, "position", position, "error", err)
	}
	if err := r.runRepo.IncrementCompleted(r.runNo); err != nil {
		logger.Warnw("checkout_run_update_failed", "run_no", r.runNo, "error", err)
	}
}

func (r *runReporter) RunAborted(reason string, remaining []checkout.Item, at time.Time) {}

func (r *runReporter) RunCompleted(at time.Time) {}
