package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wellcart-next/internal/constants"
)

type fakeProbe struct {
	mu     sync.Mutex
	obs    Observation
	err    error
	closed bool
}

func (p *fakeProbe) Observe() (Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return Observation{}, p.err
	}
	return p.obs, nil
}

func (p *fakeProbe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakeProbe) settle(obs Observation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.obs = obs
	p.err = nil
}

func (p *fakeProbe) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeDispatcher struct {
	mu     sync.Mutex
	urls   []string
	probes []*fakeProbe
	failAt int
	// 新会话的初始状态；默认立即命中 closed 标记
	initial func() *fakeProbe
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		failAt:  -1,
		initial: func() *fakeProbe { return &fakeProbe{obs: Observation{Closed: true}} },
	}
}

func (d *fakeDispatcher) Open(_ context.Context, url string) (Probe, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAt >= 0 && len(d.urls) == d.failAt {
		return nil, errors.New("open blocked")
	}
	d.urls = append(d.urls, url)
	probe := d.initial()
	d.probes = append(d.probes, probe)
	return probe, nil
}

func (d *fakeDispatcher) openedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

type reporterEvent struct {
	kind     string
	position int
	detail   string
}

type recordingReporter struct {
	mu        sync.Mutex
	events    []reporterEvent
	remaining []Item
}

func (r *recordingReporter) record(ev reporterEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) RunStarted(cartURL string, _ time.Time) {
	r.record(reporterEvent{kind: "run_started", detail: cartURL})
}

func (r *recordingReporter) ItemDispatched(position int, dispatchURL string, _ time.Time) {
	r.record(reporterEvent{kind: "dispatched", position: position, detail: dispatchURL})
}

func (r *recordingReporter) ItemDone(position int, marker string, _ time.Time) {
	r.record(reporterEvent{kind: "done", position: position, detail: marker})
}

func (r *recordingReporter) ItemTimedOut(position int, _ time.Time) {
	r.record(reporterEvent{kind: "timed_out", position: position})
}

func (r *recordingReporter) RunAborted(reason string, remaining []Item, _ time.Time) {
	r.mu.Lock()
	r.remaining = append([]Item(nil), remaining...)
	r.mu.Unlock()
	r.record(reporterEvent{kind: "aborted", detail: reason})
}

func (r *recordingReporter) RunCompleted(_ time.Time) {
	r.record(reporterEvent{kind: "completed"})
}

func (r *recordingReporter) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.kind)
	}
	return kinds
}

func testConfig() Config {
	return Config{
		PortalBaseURL: "https://portal.example.com",
		TenantCode:    "us0123",
		PollInterval:  time.Millisecond,
		ItemTimeout:   100 * time.Millisecond,
		SettleDelay:   time.Millisecond,
	}
}

func testItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item{
			Position: i,
			Name:     "商品",
			Link:     "https://portal.example.com/buybuttons/us0123/buy/42",
		})
	}
	return items
}

func TestRunDispatchesEveryItemWithUniqueCacheBuster(t *testing.T) {
	dispatcher := newFakeDispatcher()
	seq := NewSequencer(testConfig(), nil, dispatcher)
	reporter := &recordingReporter{}

	result, err := seq.Run(context.Background(), testItems(3), reporter)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Status != constants.CheckoutRunStatusCompleted {
		t.Fatalf("status want %q got %q", constants.CheckoutRunStatusCompleted, result.Status)
	}
	if result.Completed != 3 {
		t.Fatalf("completed want 3 got %d", result.Completed)
	}

	urls := dispatcher.openedURLs()
	if len(urls) != 3 {
		t.Fatalf("dispatch count want 3 got %d", len(urls))
	}
	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		if !strings.Contains(url, "?nocache=") && !strings.Contains(url, "&nocache=") {
			t.Fatalf("dispatch url missing cache buster: %q", url)
		}
		if seen[url] {
			t.Fatalf("duplicate dispatch url: %q", url)
		}
		seen[url] = true
	}

	kinds := reporter.kinds()
	if kinds[len(kinds)-1] != "completed" {
		t.Fatalf("last event want completed got %q", kinds[len(kinds)-1])
	}
}

func TestRunCartURLFromFirstLink(t *testing.T) {
	dispatcher := newFakeDispatcher()
	cfg := testConfig()
	cfg.TenantCode = ""
	seq := NewSequencer(cfg, nil, dispatcher)

	result, err := seq.Run(context.Background(), testItems(1), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := "https://portal.example.com/buybuttons/us0123/cart/"
	if result.CartURL != want {
		t.Fatalf("cart url want %q got %q", want, result.CartURL)
	}
}

func TestRunBlockedDispatchAbortsWithManualGuide(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.failAt = 1
	seq := NewSequencer(testConfig(), nil, dispatcher)
	reporter := &recordingReporter{}

	result, err := seq.Run(context.Background(), testItems(3), reporter)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Status != constants.CheckoutRunStatusAborted {
		t.Fatalf("status want %q got %q", constants.CheckoutRunStatusAborted, result.Status)
	}
	if result.AbortReason != constants.CheckoutAbortReasonDispatchBlocked {
		t.Fatalf("abort reason want %q got %q", constants.CheckoutAbortReasonDispatchBlocked, result.AbortReason)
	}
	if len(result.Remaining) != 2 {
		t.Fatalf("remaining want 2 got %d", len(result.Remaining))
	}
	if result.Remaining[0].Position != 1 || result.Remaining[1].Position != 2 {
		t.Fatalf("remaining positions want [1 2] got [%d %d]", result.Remaining[0].Position, result.Remaining[1].Position)
	}

	// 拦截后不得再有任何自动派发
	if got := len(dispatcher.openedURLs()); got != 1 {
		t.Fatalf("dispatch count after block want 1 got %d", got)
	}
	if len(reporter.remaining) != 2 {
		t.Fatalf("reporter remaining want 2 got %d", len(reporter.remaining))
	}
}

func TestRunNoTenantAborts(t *testing.T) {
	dispatcher := newFakeDispatcher()
	cfg := testConfig()
	cfg.TenantCode = ""
	seq := NewSequencer(cfg, nil, dispatcher)

	items := []Item{{Position: 0, Name: "商品", Link: "https://elsewhere.example.com/buy/1"}}
	result, err := seq.Run(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.AbortReason != constants.CheckoutAbortReasonNoTenant {
		t.Fatalf("abort reason want %q got %q", constants.CheckoutAbortReasonNoTenant, result.AbortReason)
	}
	if got := len(dispatcher.openedURLs()); got != 0 {
		t.Fatalf("dispatch count want 0 got %d", got)
	}
}

func TestRunTimedOutItemCountsTowardTermination(t *testing.T) {
	stuck := &fakeProbe{err: ErrNotReady}
	calls := 0
	dispatcher := newFakeDispatcher()
	dispatcher.initial = func() *fakeProbe {
		calls++
		if calls == 2 {
			return stuck
		}
		return &fakeProbe{obs: Observation{Closed: true}}
	}
	cfg := testConfig()
	cfg.ItemTimeout = 20 * time.Millisecond
	seq := NewSequencer(cfg, nil, dispatcher)
	reporter := &recordingReporter{}

	result, err := seq.Run(context.Background(), testItems(2), reporter)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Status != constants.CheckoutRunStatusCompleted {
		t.Fatalf("status want %q got %q", constants.CheckoutRunStatusCompleted, result.Status)
	}
	if result.Completed != 1 || result.TimedOut != 1 {
		t.Fatalf("completed/timed_out want 1/1 got %d/%d", result.Completed, result.TimedOut)
	}
	if !stuck.isClosed() {
		t.Fatalf("timed out probe should be force closed")
	}
}

func TestRunLateMarkerDetected(t *testing.T) {
	slow := &fakeProbe{err: ErrNotReady}
	dispatcher := newFakeDispatcher()
	dispatcher.initial = func() *fakeProbe { return slow }
	seq := NewSequencer(testConfig(), nil, dispatcher)

	go func() {
		time.Sleep(10 * time.Millisecond)
		slow.settle(Observation{Location: "https://portal.example.com/buybuttons/us0123/success/"})
	}()

	result, err := seq.Run(context.Background(), testItems(1), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Completed != 1 {
		t.Fatalf("completed want 1 got %d", result.Completed)
	}
	if result.TimedOut != 0 {
		t.Fatalf("timed_out want 0 got %d", result.TimedOut)
	}
}

func TestRunCanceled(t *testing.T) {
	dispatcher := newFakeDispatcher()
	dispatcher.initial = func() *fakeProbe { return &fakeProbe{err: ErrNotReady} }
	cfg := testConfig()
	cfg.ItemTimeout = time.Second
	seq := NewSequencer(cfg, nil, dispatcher)
	reporter := &recordingReporter{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := seq.Run(ctx, testItems(2), reporter)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Status != constants.CheckoutRunStatusAborted {
		t.Fatalf("status want %q got %q", constants.CheckoutRunStatusAborted, result.Status)
	}
	if result.AbortReason != constants.CheckoutAbortReasonCanceled {
		t.Fatalf("abort reason want %q got %q", constants.CheckoutAbortReasonCanceled, result.AbortReason)
	}
	if len(result.Remaining) != 2 {
		t.Fatalf("remaining want 2 got %d", len(result.Remaining))
	}
	for i, probe := range dispatcher.probes {
		if !probe.isClosed() {
			t.Fatalf("probe %d should be closed after cancel", i)
		}
	}
}

func TestRunEmptyQueue(t *testing.T) {
	seq := NewSequencer(testConfig(), nil, newFakeDispatcher())
	if _, err := seq.Run(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for empty queue")
	}
}

func TestWithCacheBusterSeparator(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	plain := withCacheBuster("https://portal.example.com/buy/1", now, 0)
	if plain != "https://portal.example.com/buy/1?nocache=1700000000000" {
		t.Fatalf("unexpected url: %q", plain)
	}
	query := withCacheBuster("https://portal.example.com/buy/1?ref=a", now, 2)
	if query != "https://portal.example.com/buy/1?ref=a&nocache=1700000000002" {
		t.Fatalf("unexpected url: %q", query)
	}
}
