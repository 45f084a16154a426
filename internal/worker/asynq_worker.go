package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/provider"
	"github.com/wellcart-next/internal/queue"
	"github.com/wellcart-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCheckoutRun, c.handleCheckoutRun)
}

func (c *Consumer) handleCheckoutRun(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_checkout_run_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CheckoutRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_checkout_run_unmarshal_failed", "error", err)
		return err
	}
	if payload.RunNo == "" {
		logger.Debugw("worker_checkout_run_skip_invalid_payload", "run_no", payload.RunNo)
		return nil
	}
	if c.CheckoutService == nil {
		logger.Warnw("worker_checkout_run_skip_service_nil", "run_no", payload.RunNo)
		return nil
	}
	if err := c.CheckoutService.Execute(ctx, payload); err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			logger.Debugw("worker_checkout_run_skip_run_not_found", "run_no", payload.RunNo)
			return nil
		default:
			logger.Warnw("worker_checkout_run_failed", "run_no", payload.RunNo, "error", err)
			return err
		}
	}
	return nil
}
