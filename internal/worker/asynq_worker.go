package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrCheckoutPending 会话尚未支付，交由 asynq 重试
var ErrCheckoutPending = errors.New("checkout session not paid yet")

// SessionVerifier 支付会话校验
type SessionVerifier interface {
	Verify(ctx context.Context, sessionID string) (*checkout.VerifyResult, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	Verifier SessionVerifier
}

// NewConsumer 创建消费者
func NewConsumer(verifier SessionVerifier) *Consumer {
	return &Consumer{Verifier: verifier}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCheckoutVerify, c.handleCheckoutVerify)
}

func (c *Consumer) handleCheckoutVerify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_checkout_verify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCheckoutVerifyPayload(task)
	if err != nil {
		logger.Warnw("worker_checkout_verify_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if payload.SessionID == "" {
		logger.Debugw("worker_checkout_verify_skip_invalid_payload", "ref", payload.Ref)
		return nil
	}
	if c.Verifier == nil {
		logger.Warnw("worker_checkout_verify_skip_verifier_nil", "ref", payload.Ref)
		return nil
	}
	log := logger.FromContext(ctx).With("ref", payload.Ref, "session_id", payload.SessionID)
	result, err := c.Verifier.Verify(ctx, payload.SessionID)
	if err != nil {
		var apiErr *commerce.APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			log.Warnw("worker_checkout_verify_rejected", "error", err)
			return nil
		}
		log.Warnw("worker_checkout_verify_failed", "error", err)
		return err
	}
	if !result.Paid {
		log.Debugw("worker_checkout_verify_pending", "status", result.Status)
		return ErrCheckoutPending
	}
	log.Infow("worker_checkout_verify_paid")
	return nil
}
