package service

import (
	"fmt"
	"strings"
	"testing"
)

// testDSN 每个测试独立的命名共享内存库，避免用例间串表
func testDSN(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
