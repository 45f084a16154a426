package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wellcart-next/internal/catalog"
	"github.com/wellcart-next/internal/config"
	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
)

var (
	linkTailPattern = regexp.MustCompile(`(\d+)/?$`)
	slugPattern     = regexp.MustCompile(`[^a-z0-9]+`)
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 从导出 CSV 读取目录记录
	source := catalog.NewFileSource(cfg.Catalog.SeedCSVPath)
	records, err := source.Load(context.Background())
	if err != nil {
		stdLog.Fatalf("Failed to load catalog csv %s: %v", cfg.Catalog.SeedCSVPath, err)
	}

	created, updated := 0, 0
	for _, record := range records {
		sku := deriveSKU(record)
		if sku == "" {
			stdLog.Printf("Skip record %q: cannot derive sku", record.Name)
			continue
		}

		var existing models.Product
		if err := models.DB.Where("sku = ?", sku).First(&existing).Error; err != nil {
			product := models.Product{
				SKU:         sku,
				Name:        record.Name,
				GroupName:   record.Name,
				PriceAmount: record.Price,
				BuyLink:     record.Link,
				Status:      constants.ProductStatusInStore,
				IsActive:    true,
			}
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", sku, err)
				continue
			}
			created++
			continue
		}

		existing.Name = record.Name
		existing.PriceAmount = record.Price
		existing.BuyLink = record.Link
		if err := models.DB.Save(&existing).Error; err != nil {
			stdLog.Printf("Failed to update product %s: %v", sku, err)
			continue
		}
		updated++
	}

	fmt.Printf("Catalog seed finished: %d created, %d updated, %d records\n", created, updated, len(records))
}

// deriveSKU 从购买链接尾部数字派生 SKU，链接无编号时回退到名称 slug
func deriveSKU(record catalog.Record) string {
	link := strings.TrimSpace(record.Link)
	if match := linkTailPattern.FindStringSubmatch(link); len(match) == 2 {
		return "VE-" + match[1]
	}
	slug := strings.ToLower(strings.TrimSpace(record.Name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return ""
	}
	return slug
}
