package models

import (
	"time"
)

// CheckoutRun 结账队列运行记录
type CheckoutRun struct {
	ID             uint       `gorm:"primarykey" json:"id"`                          // 主键
	RunNo          string     `gorm:"uniqueIndex;not null" json:"run_no"`            // 运行编号
	SessionID      string     `gorm:"index;not null" json:"session_id"`              // 发起会话
	Status         string     `gorm:"type:varchar(32);not null;index" json:"status"` // queued/running/completed/aborted
	AbortReason    string     `gorm:"type:varchar(64)" json:"abort_reason"`          // 中止原因
	CartURL        string     `json:"cart_url"`                                      // 聚合购物车地址
	TotalItems     int        `gorm:"not null;default:0" json:"total_items"`         // 队列总项数
	CompletedItems int        `gorm:"not null;default:0" json:"completed_items"`     // 已完成项数（含超时计入）
	StartedAt      *time.Time `json:"started_at"`                                    // 开始执行时间
	FinishedAt     *time.Time `json:"finished_at"`                                   // 结束时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (CheckoutRun) TableName() string {
	return "checkout_runs"
}

// CheckoutRunItem 结账队列单项
// Position 是队列构建时刻的购物车下标
type CheckoutRunItem struct {
	ID          uint       `gorm:"primarykey" json:"id"`                          // 主键
	RunNo       string     `gorm:"index;not null" json:"run_no"`                  // 所属运行编号
	Position    int        `gorm:"not null" json:"position"`                      // 购物车下标
	Name        string     `json:"name"`                                          // 商品名称
	Link        string     `gorm:"not null" json:"link"`                          // 购买链接
	DispatchURL string     `json:"dispatch_url"`                                  // 实际派发地址（含防缓存参数）
	Status      string     `gorm:"type:varchar(32);not null;index" json:"status"` // pending/sent/done/timed_out
	Marker      string     `gorm:"type:varchar(32)" json:"marker"`                // 命中的完成标记
	SentAt      *time.Time `json:"sent_at"`                                       // 派发时间
	FinishedAt  *time.Time `json:"finished_at"`                                   // 完成时间
	CreatedAt   time.Time  `json:"created_at"`                                    // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (CheckoutRunItem) TableName() string {
	return "checkout_run_items"
}
