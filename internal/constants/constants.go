package constants

// 商品状态常量（与门户端商品生命周期一致）
const (
	ProductStatusInStore          = "in_store"
	ProductStatusOutOfStock       = "out_of_stock"
	ProductStatusRemovalRequested = "removal_requested"
)

// 结账队列运行状态常量
const (
	CheckoutRunStatusQueued    = "queued"
	CheckoutRunStatusRunning   = "running"
	CheckoutRunStatusCompleted = "completed"
	CheckoutRunStatusAborted   = "aborted"
)

// 结账队列单项状态常量
const (
	CheckoutItemStatusPending  = "pending"
	CheckoutItemStatusSent     = "sent"
	CheckoutItemStatusDone     = "done"
	CheckoutItemStatusTimedOut = "timed_out"
)

// 结账中止原因常量
const (
	CheckoutAbortReasonDispatchBlocked = "dispatch_blocked"
	CheckoutAbortReasonNoTenant        = "no_tenant"
	CheckoutAbortReasonCanceled        = "canceled"
)

// 异步任务名称常量
const (
	TaskCheckoutRun = "checkout:run"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 购物车会话 Cookie 名称
const (
	CartSessionCookie = "wc_session"
)

// 缓存 key 片段常量
const (
	CacheKeyNewsletterSeen = "newsletter:seen"
	CacheKeyCheckoutCancel = "checkout:cancel"
)
