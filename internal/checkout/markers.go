package checkout

import (
	"fmt"
	"regexp"
	"strings"
)

// 完成标记名称（写入运行记录，便于排查哪条启发式命中）
const (
	MarkerClosed   = "closed"
	MarkerSuccess  = "success_url"
	MarkerCartPath = "cart_path"
	MarkerBodyText = "body_added"
)

// tenantCodePattern 从 buy-link 路径中提取租户编码的兜底匹配
var tenantCodePattern = regexp.MustCompile(`(?i)buybuttons/([a-z0-9]+)/`)

// DetectCompletion 对一次探测结果执行完成启发式
// 任一标记命中即视为该项完成；返回命中的标记名
func DetectCompletion(obs Observation) (string, bool) {
	if obs.Closed {
		return MarkerClosed, true
	}
	location := strings.ToLower(obs.Location)
	if strings.Contains(location, "success") {
		return MarkerSuccess, true
	}
	if strings.Contains(location, "/cart") {
		return MarkerCartPath, true
	}
	if strings.Contains(strings.ToLower(obs.BodyText), "added") {
		return MarkerBodyText, true
	}
	return "", false
}

// AggregateCartURL 推导聚合购物车地址
// 优先使用配置的租户编码；为空时回退到从首个 buy-link 提取
func AggregateCartURL(portalBaseURL, tenantCode, firstLink string) (string, error) {
	code := strings.TrimSpace(tenantCode)
	if code == "" {
		match := tenantCodePattern.FindStringSubmatch(firstLink)
		if len(match) < 2 {
			return "", fmt.Errorf("checkout: no tenant code in link %q", firstLink)
		}
		code = strings.ToLower(match[1])
	}
	base := strings.TrimRight(strings.TrimSpace(portalBaseURL), "/")
	if base == "" {
		base = "https://portal.veinternational.org"
	}
	return fmt.Sprintf("%s/buybuttons/%s/cart/", base, code), nil
}
