package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/logger"
)

// Item 队列项（构建时刻的购物车下标 + 购买链接）
type Item struct {
	Position int
	Name     string
	Link     string
}

// Config 序列器配置
// 时序常量一律来自配置，不允许内联
type Config struct {
	PortalBaseURL string
	TenantCode    string
	PollInterval  time.Duration
	ItemTimeout   time.Duration
	SettleDelay   time.Duration
}

// Reporter 运行过程回调（由调用方落库）
type Reporter interface {
	RunStarted(cartURL string, at time.Time)
	ItemDispatched(position int, dispatchURL string, at time.Time)
	ItemDone(position int, marker string, at time.Time)
	ItemTimedOut(position int, at time.Time)
	RunAborted(reason string, remaining []Item, at time.Time)
	RunCompleted(at time.Time)
}

// Result 一次运行的最终结果
type Result struct {
	Status      string
	AbortReason string
	CartURL     string
	Completed   int
	TimedOut    int
	// Remaining 中止时未派发/未完成的项，供手动引导逐个走完
	Remaining []Item
}

// Sequencer 结账队列序列器
// 按购物车顺序派发，会话并发观测；完成顺序不保证与派发顺序一致
type Sequencer struct {
	cfg        Config
	clock      Clock
	dispatcher Dispatcher
}

// NewSequencer 创建序列器
func NewSequencer(cfg Config, clock Clock, dispatcher Dispatcher) *Sequencer {
	if clock == nil {
		clock = NewClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 3 * time.Second
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &Sequencer{
		cfg:        cfg,
		clock:      clock,
		dispatcher: dispatcher,
	}
}

type itemOutcome struct {
	position int
	status   string
	marker   string
}

// Run 执行一次结账队列
// ctx 取消即用户中止：所有在途会话关闭，运行记为 aborted
func (s *Sequencer) Run(ctx context.Context, items []Item, reporter Reporter) (Result, error) {
	if s == nil || s.dispatcher == nil {
		return Result{}, errors.New("checkout: sequencer not initialized")
	}
	if len(items) == 0 {
		return Result{}, errors.New("checkout: empty queue")
	}
	if reporter == nil {
		reporter = noopReporter{}
	}

	cartURL, err := AggregateCartURL(s.cfg.PortalBaseURL, s.cfg.TenantCode, items[0].Link)
	if err != nil {
		reporter.RunAborted(constants.CheckoutAbortReasonNoTenant, items, s.clock.Now())
		return Result{
			Status:      constants.CheckoutRunStatusAborted,
			AbortReason: constants.CheckoutAbortReasonNoTenant,
			Remaining:   items,
		}, nil
	}
	reporter.RunStarted(cartURL, s.clock.Now())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan itemOutcome, len(items))
	probes := make([]Probe, 0, len(items))

	// 按购物车顺序全部派发；任一会话打不开（弹窗拦截等价物）即中止，
	// 不再发出任何自动派发
	for i, item := range items {
		dispatchURL := withCacheBuster(item.Link, s.clock.Now(), i)
		probe, err := s.dispatcher.Open(runCtx, dispatchURL)
		if err != nil {
			cancel()
			for _, opened := range probes {
				opened.Close()
			}
			remaining := items[i:]
			logger.Warnw("checkout_dispatch_blocked",
				"position", item.Position,
				"remaining", len(remaining),
				"error", err,
			)
			reporter.RunAborted(constants.CheckoutAbortReasonDispatchBlocked, remaining, s.clock.Now())
			return Result{
				Status:      constants.CheckoutRunStatusAborted,
				AbortReason: constants.CheckoutAbortReasonDispatchBlocked,
				CartURL:     cartURL,
				Remaining:   remaining,
			}, nil
		}
		probes = append(probes, probe)
		reporter.ItemDispatched(item.Position, dispatchURL, s.clock.Now())
		go s.watch(runCtx, item, probe, results)
	}

	finished := make(map[int]bool, len(items))
	result := Result{
		Status:  constants.CheckoutRunStatusCompleted,
		CartURL: cartURL,
	}
	for len(finished) < len(items) {
		select {
		case <-ctx.Done():
			cancel()
			for _, probe := range probes {
				probe.Close()
			}
			remaining := make([]Item, 0, len(items)-len(finished))
			for _, item := range items {
				if !finished[item.Position] {
					remaining = append(remaining, item)
				}
			}
			reporter.RunAborted(constants.CheckoutAbortReasonCanceled, remaining, s.clock.Now())
			return Result{
				Status:      constants.CheckoutRunStatusAborted,
				AbortReason: constants.CheckoutAbortReasonCanceled,
				CartURL:     cartURL,
				Remaining:   remaining,
			}, nil
		case outcome := <-results:
			finished[outcome.position] = true
			switch outcome.status {
			case constants.CheckoutItemStatusDone:
				result.Completed++
				reporter.ItemDone(outcome.position, outcome.marker, s.clock.Now())
			case constants.CheckoutItemStatusTimedOut:
				// 超时项计入完成阈值并告警，保证运行总能终止
				result.TimedOut++
				logger.Warnw("checkout_item_timed_out", "position", outcome.position)
				reporter.ItemTimedOut(outcome.position, s.clock.Now())
			}
		}
	}

	// 全部完成后的短缓冲，再跳转聚合购物车
	if s.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
		case <-s.clock.After(s.cfg.SettleDelay):
		}
	}
	reporter.RunCompleted(s.clock.Now())
	return result, nil
}

// watch 观测单个会话直到完成标记命中或安全超时
func (s *Sequencer) watch(ctx context.Context, item Item, probe Probe, results chan<- itemOutcome) {
	defer probe.Close()

	tickCh, stopTick := s.clock.Tick(s.cfg.PollInterval)
	defer stopTick()
	timeoutCh := s.clock.After(s.cfg.ItemTimeout)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timeoutCh:
			// 安全上限：强制关闭，超时不是成功信号
			results <- itemOutcome{
				position: item.Position,
				status:   constants.CheckoutItemStatusTimedOut,
			}
			return
		case <-tickCh:
			obs, err := probe.Observe()
			if err != nil {
				// 跨域读取失败的等价物：稳态，下个周期重试
				continue
			}
			if marker, ok := DetectCompletion(obs); ok {
				results <- itemOutcome{
					position: item.Position,
					status:   constants.CheckoutItemStatusDone,
					marker:   marker,
				}
				return
			}
		}
	}
}

// withCacheBuster 追加防缓存参数，保证同一链接的重复派发不命中缓存
func withCacheBuster(link string, now time.Time, index int) string {
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%snocache=%d", link, sep, now.UnixMilli()+int64(index))
}

type noopReporter struct{}

func (noopReporter) RunStarted(string, time.Time)          {}
func (noopReporter) ItemDispatched(int, string, time.Time) {}
func (noopReporter) ItemDone(int, string, time.Time)       {}
func (noopReporter) ItemTimedOut(int, time.Time)           {}
func (noopReporter) RunAborted(string, []Item, time.Time)  {}
func (noopReporter) RunCompleted(time.Time)                {}
