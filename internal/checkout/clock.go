package checkout

import "time"

// Clock 可注入时钟
// 序列器的全部时序（轮询、单项超时、完成缓冲）都经由该接口，测试可替换
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

// NewClock 创建真实时钟
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}
