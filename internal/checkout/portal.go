package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// 门户响应正文读取上限，启发式只需要页面文本的前一段
const portalBodyLimit = 256 << 10

type portalResult struct {
	location string
	bodyText string
}

// PortalDispatcher 基于 HTTP 的门户会话派发器
// 每个队列项一次 GET（跟随重定向），最终地址与正文文本供完成启发式使用。
// 熔断器打开时 Open 同步失败，等价于弹窗被拦截。
type PortalDispatcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*portalResult]
}

// NewPortalDispatcher 创建门户派发器
func NewPortalDispatcher(dispatchTimeout time.Duration) *PortalDispatcher {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 5 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "portal",
		Timeout: 30 * time.Second,
	}
	return &PortalDispatcher{
		client: &http.Client{
			Timeout: dispatchTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*portalResult](settings),
	}
}

// Open 打开一个门户会话
func (d *PortalDispatcher) Open(ctx context.Context, url string) (Probe, error) {
	if d == nil || d.client == nil {
		return nil, fmt.Errorf("checkout: portal dispatcher not initialized")
	}
	if d.breaker.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("checkout: portal circuit open")
	}

	probeCtx, cancel := context.WithCancel(ctx)
	probe := &portalProbe{cancel: cancel}
	go func() {
		result, err := d.breaker.Execute(func() (*portalResult, error) {
			return d.fetch(probeCtx, url)
		})
		probe.finish(result, err)
	}()
	return probe, nil
}

func (d *PortalDispatcher) fetch(ctx context.Context, url string) (*portalResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, portalBodyLimit))
	location := url
	if resp.Request != nil && resp.Request.URL != nil {
		location = resp.Request.URL.String()
	}
	return &portalResult{
		location: location,
		bodyText: string(body),
	}, nil
}

// portalProbe 单个门户会话的观测句柄
type portalProbe struct {
	mu     sync.Mutex
	result *portalResult
	err    error
	done   bool
	cancel context.CancelFunc
}

func (p *portalProbe) finish(result *portalResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = result
	p.err = err
	p.done = true
}

// Observe 读取会话状态
// 请求未返回或返回错误都视为"尚不可读"，交给轮询重试与安全超时兜底
func (p *portalProbe) Observe() (Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done || p.err != nil || p.result == nil {
		return Observation{}, ErrNotReady
	}
	return Observation{
		Location: p.result.location,
		BodyText: strings.TrimSpace(p.result.bodyText),
	}, nil
}

// Close 取消底层请求，幂等
func (p *portalProbe) Close() {
	if p == nil || p.cancel == nil {
		return
	}
	p.cancel()
}
