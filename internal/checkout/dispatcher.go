package checkout

import (
	"context"
	"errors"
)

// ErrNotReady 探测结果尚不可读
// 对应原会话里跨域读取失败的稳态：吞掉并等待下一个轮询周期
var ErrNotReady = errors.New("checkout: probe not ready")

// Observation 一次探测读取到的会话状态
type Observation struct {
	Closed   bool   // 会话已自行关闭
	Location string // 当前地址
	BodyText string // 文档文本
}

// Probe 针对单个队列项的后台会话
type Probe interface {
	// Observe 读取会话状态；未就绪时返回 ErrNotReady
	Observe() (Observation, error)
	// Close 强制关闭会话，幂等
	Close()
}

// Dispatcher 打开后台会话
// Open 失败等价于浏览器拦截弹窗：整个运行立即中止
type Dispatcher interface {
	Open(ctx context.Context, url string) (Probe, error)
}
