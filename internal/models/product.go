package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
// GroupName 相同的商品属于同一个颜色/口味变体组，BuyLink 始终指向具体变体
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                             // 主键
	SKU         string         `gorm:"uniqueIndex;not null" json:"sku"`                  // SKU 编码
	Name        string         `gorm:"not null;index" json:"name"`                       // 商品名称
	Description string         `gorm:"type:text" json:"description"`                     // 商品描述
	GroupName   string         `gorm:"index" json:"group_name"`                          // 变体组名称（颜色/口味聚合）
	Category    string         `gorm:"index" json:"category"`                            // 分类
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 单价
	Image       string         `json:"image"`                                            // 图片地址
	Color       string         `json:"color"`                                            // 颜色/变体
	BuyLink     string         `gorm:"not null" json:"buy_link"`                         // 外部门户购买链接（精确到变体）
	Status      string         `gorm:"type:varchar(32);not null;default:'in_store';index" json:"status"` // 商品状态
	IsActive    bool           `gorm:"index" json:"is_active"`                           // 是否上架（默认值由服务层写入，不用列默认，零值才能落库）
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
