package queue

import (
	"encoding/json"

	"github.com/wellcart-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCheckoutRun 结账队列执行任务
	TaskCheckoutRun = constants.TaskCheckoutRun
)

// CheckoutRunPayload 结账执行任务载荷
type CheckoutRunPayload struct {
	RunNo     string `json:"run_no"`
	SessionID string `json:"session_id"`
}

// NewCheckoutRunTask 创建结账执行任务
func NewCheckoutRunTask(payload CheckoutRunPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutRun, body), nil
}
