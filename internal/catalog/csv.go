package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
)

// Record 目录源输出的规范化产品记录
// 两个目录源（数据库、静态 CSV）都收敛到这一形状
type Record struct {
	Name  string
	Link  string
	Price models.Money
}

// Source 目录数据源
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// 表头按模式匹配而非精确列名，兼容导出工具的措辞差异
var (
	nameHeaderPattern  = regexp.MustCompile(`(?i)product\s*name`)
	linkHeaderPattern  = regexp.MustCompile(`(?i)buy\s*button\s*links?`)
	priceHeaderPattern = regexp.MustCompile(`(?i)final\s*price|unit\s*price`)
	priceStripPattern  = regexp.MustCompile(`[$,]`)
)

// FileSource 静态 CSV 文件目录源
type FileSource struct {
	path string
}

// NewFileSource 创建 CSV 文件目录源
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load 读取并解析 CSV 文件
func (s *FileSource) Load(_ context.Context) ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open csv: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV 解析目录 CSV
// 购买链接为空或 N/A 的行跳过；价格剥离美元符号与千分位分隔符，
// 解析失败按 0 处理；残缺行跳过并告警
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read csv header: %w", err)
	}
	nameIdx, linkIdx, priceIdx := -1, -1, -1
	for i, column := range header {
		switch {
		case nameIdx < 0 && nameHeaderPattern.MatchString(column):
			nameIdx = i
		case linkIdx < 0 && linkHeaderPattern.MatchString(column):
			linkIdx = i
		case priceIdx < 0 && priceHeaderPattern.MatchString(column):
			priceIdx = i
		}
	}
	if nameIdx < 0 || linkIdx < 0 {
		return nil, errors.New("catalog: csv missing product name or buy link column")
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warnw("catalog_csv_row_skipped", "line", line, "error", err)
			continue
		}
		if linkIdx >= len(row) || nameIdx >= len(row) {
			logger.Warnw("catalog_csv_row_skipped", "line", line, "error", "short row")
			continue
		}
		link := strings.TrimSpace(row[linkIdx])
		if link == "" || strings.EqualFold(link, "N/A") {
			continue
		}
		records = append(records, Record{
			Name:  strings.TrimSpace(row[nameIdx]),
			Link:  link,
			Price: parsePrice(row, priceIdx),
		})
	}
	return records, nil
}

func parsePrice(row []string, priceIdx int) models.Money {
	if priceIdx < 0 || priceIdx >= len(row) {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	raw := priceStripPattern.ReplaceAllString(strings.TrimSpace(row[priceIdx]), "")
	if raw == "" {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return models.NewMoneyFromDecimal(value)
}
