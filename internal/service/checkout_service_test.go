package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wellcart-next/internal/checkout"
	"github.com/wellcart-next/internal/config"
	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/queue"
	"github.com/wellcart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type instantProbe struct{}

func (instantProbe) Observe() (checkout.Observation, error) {
	return checkout.Observation{Closed: true}, nil
}

func (instantProbe) Close() {}

type instantDispatcher struct{}

func (instantDispatcher) Open(context.Context, string) (checkout.Probe, error) {
	return instantProbe{}, nil
}

type blockedDispatcher struct{}

func (blockedDispatcher) Open(context.Context, string) (checkout.Probe, error) {
	return nil, errors.New("open blocked")
}

func setupCheckoutServiceTest(t *testing.T, dispatcher checkout.Dispatcher) (*CheckoutService, *CartService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSnapshot{}, &models.CheckoutRun{}, &models.CheckoutRunItem{}); err != nil {
		t.Fatalf("migrate checkout tables failed: %v", err)
	}
	// 序列器的回调并发写库，单连接避免 sqlite 写锁冲突
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	cfg := &config.Config{}
	cfg.Checkout.PortalBaseURL = "https://portal.example.com"
	cfg.Checkout.TenantCode = "us0123"
	cfg.Checkout.PollIntervalMS = 1
	cfg.Checkout.ItemTimeoutMS = 200
	cfg.Checkout.SettleDelayMS = 1

	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	cartService := NewCartService(repository.NewCartRepository(db))
	svc := NewCheckoutService(cfg, repository.NewCheckoutRunRepository(db), cartService, queueClient, dispatcher)
	return svc, cartService
}

func fillCart(t *testing.T, cartService *CartService, session string) {
	t.Helper()
	if _, err := cartService.Add(session, AddCartItemInput{
		Name:     "Alpine Bottle",
		Link:     "https://portal.example.com/buybuttons/us0123/buy/1",
		Price:    money("10.00"),
		Quantity: 2,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := cartService.Add(session, AddCartItemInput{
		Name:     "Hydro Mix",
		Link:     "https://portal.example.com/buybuttons/us0123/buy/2",
		Price:    money("5.00"),
		Quantity: 1,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
}

func waitForRun(t *testing.T, svc *CheckoutService, runNo, session string, statuses ...string) *CheckoutRunDetail {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		detail, err := svc.GetRun(runNo, session)
		if err != nil {
			t.Fatalf("get run failed: %v", err)
		}
		for _, status := range statuses {
			if detail.Run.Status == status {
				return detail
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach %v in time", runNo, statuses)
	return nil
}

func TestCheckoutStartExpandsQuantities(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, instantDispatcher{})
	session := "checkout-expand"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if run.TotalItems != 3 {
		t.Fatalf("total items want 3 got %d", run.TotalItems)
	}

	detail := waitForRun(t, svc, run.RunNo, session, constants.CheckoutRunStatusCompleted)
	if len(detail.Items) != 3 {
		t.Fatalf("item count want 3 got %d", len(detail.Items))
	}
	for i, item := range detail.Items {
		if item.Position != i {
			t.Fatalf("position want %d got %d", i, item.Position)
		}
	}
	// 数量为 2 的行展开成两条同链接队列项
	if detail.Items[0].Link != detail.Items[1].Link {
		t.Fatalf("expanded items should share the line link")
	}
}

func TestCheckoutStartEmptyCart(t *testing.T) {
	svc, _ := setupCheckoutServiceTest(t, instantDispatcher{})
	if _, err := svc.Start(context.Background(), "checkout-empty"); err != ErrCartEmpty {
		t.Fatalf("want ErrCartEmpty got %v", err)
	}
}

func TestCheckoutRunCompletesAndClearsCart(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, instantDispatcher{})
	session := "checkout-complete"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	detail := waitForRun(t, svc, run.RunNo, session, constants.CheckoutRunStatusCompleted)

	if detail.Run.CompletedItems != 3 {
		t.Fatalf("completed items want 3 got %d", detail.Run.CompletedItems)
	}
	if detail.Run.CartURL != "https://portal.example.com/buybuttons/us0123/cart/" {
		t.Fatalf("unexpected cart url %q", detail.Run.CartURL)
	}
	for _, item := range detail.Items {
		if item.Status != constants.CheckoutItemStatusDone {
			t.Fatalf("item %d status want done got %q", item.Position, item.Status)
		}
		if item.DispatchURL == "" {
			t.Fatalf("item %d missing dispatch url", item.Position)
		}
	}

	view, err := cartService.Get(session)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.TotalItems != 0 {
		t.Fatalf("cart should be cleared, got %d items", view.TotalItems)
	}
}

func TestCheckoutBlockedRunBuildsManualGuide(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, blockedDispatcher{})
	session := "checkout-blocked"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	detail := waitForRun(t, svc, run.RunNo, session, constants.CheckoutRunStatusAborted)

	if detail.Run.AbortReason != constants.CheckoutAbortReasonDispatchBlocked {
		t.Fatalf("abort reason want %q got %q", constants.CheckoutAbortReasonDispatchBlocked, detail.Run.AbortReason)
	}
	if detail.ManualGuide == nil {
		t.Fatalf("expected manual guide")
	}
	if len(detail.ManualGuide.Steps) != 3 {
		t.Fatalf("manual steps want 3 got %d", len(detail.ManualGuide.Steps))
	}
	if detail.ManualGuide.CartURL == "" {
		t.Fatalf("manual guide missing cart url")
	}

	// 中止不清空购物车
	view, err := cartService.Get(session)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.TotalItems != 3 {
		t.Fatalf("cart should be untouched, got %d items", view.TotalItems)
	}
}

func TestCheckoutExecuteIdempotent(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, instantDispatcher{})
	session := "checkout-idempotent"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForRun(t, svc, run.RunNo, session, constants.CheckoutRunStatusCompleted)

	if err := svc.Execute(context.Background(), queue.CheckoutRunPayload{RunNo: run.RunNo, SessionID: session}); err != nil {
		t.Fatalf("second execute failed: %v", err)
	}
	detail, err := svc.GetRun(run.RunNo, session)
	if err != nil {
		t.Fatalf("get run failed: %v", err)
	}
	if detail.Run.CompletedItems != 3 {
		t.Fatalf("completed items want 3 got %d", detail.Run.CompletedItems)
	}
}

func TestCheckoutGetRunWrongSession(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, instantDispatcher{})
	session := "checkout-owner"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.GetRun(run.RunNo, "other-session"); err != ErrRunNotFound {
		t.Fatalf("want ErrRunNotFound got %v", err)
	}
}

func TestCheckoutCancelWithoutRedis(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSnapshot{}, &models.CheckoutRun{}, &models.CheckoutRunItem{}); err != nil {
		t.Fatalf("migrate checkout tables failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Checkout.PortalBaseURL = "https://portal.example.com"
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	runRepo := repository.NewCheckoutRunRepository(db)
	svc := NewCheckoutService(cfg, runRepo, NewCartService(repository.NewCartRepository(db)), queueClient, instantDispatcher{})

	session := "checkout-cancel-no-redis"
	run := &models.CheckoutRun{RunNo: "CR-NO-REDIS", SessionID: session, Status: constants.CheckoutRunStatusQueued, TotalItems: 1}
	items := []models.CheckoutRunItem{{RunNo: run.RunNo, Position: 0, Name: "Alpine Bottle", Link: "https://portal.example.com/buybuttons/us0123/buy/1", Status: constants.CheckoutItemStatusPending}}
	if err := runRepo.CreateWithItems(run, items); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}

	// 未接 Redis 时取消标记无处落地，必须显式报不可用而不是假装成功
	if err := svc.Cancel(context.Background(), run.RunNo, session); err != ErrCancelUnavailable {
		t.Fatalf("want ErrCancelUnavailable got %v", err)
	}
}

func TestCheckoutCancelFinishedRun(t *testing.T) {
	svc, cartService := setupCheckoutServiceTest(t, instantDispatcher{})
	session := "checkout-cancel"
	fillCart(t, cartService, session)

	run, err := svc.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForRun(t, svc, run.RunNo, session, constants.CheckoutRunStatusCompleted)

	if err := svc.Cancel(context.Background(), run.RunNo, session); err != ErrRunNotCancellable {
		t.Fatalf("want ErrRunNotCancellable got %v", err)
	}
	if err := svc.Cancel(context.Background(), "missing", session); err != ErrRunNotFound {
		t.Fatalf("want ErrRunNotFound got %v", err)
	}
}
