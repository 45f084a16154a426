package models

import (
	"time"
)

// CartLineItem 购物车行项
// 不按商品去重：同一商品加入两次产生两行；行内位置是唯一的变更标识
type CartLineItem struct {
	Name     string `json:"name"`            // 展示名称
	Link     string `json:"link"`            // 外部购买链接（隐含变体身份）
	Price    *Money `json:"price,omitempty"` // 单价，缺省按 0 计
	Image    string `json:"image,omitempty"` // 图片地址（仅展示）
	Quantity int    `json:"quantity"`        // 数量（正整数）
}

// UnitPrice 单价（缺省按 0）
func (i CartLineItem) UnitPrice() Money {
	if i.Price == nil {
		return Money{}
	}
	return *i.Price
}

// CartSnapshot 购物车快照表
// 每个会话一行，整个行项序列以 JSON 数组持久化（localStorage 条目的服务端等价物）
type CartSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`                   // 主键
	SessionID string    `gorm:"uniqueIndex;not null" json:"session_id"` // 会话ID
	ItemsJSON string    `gorm:"type:text" json:"-"`                     // 行项 JSON 数组
	CreatedAt time.Time `json:"created_at"`                             // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                // 更新时间
}

// TableName 指定表名
func (CartSnapshot) TableName() string {
	return "carts"
}
