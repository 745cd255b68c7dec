package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ayokah-next/internal/config"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	serviceName     = "worker"
	shutdownTimeout = 8 * time.Second
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Service 异步任务消费服务，生命周期由 app.Runner 管理
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建消费服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("worker: consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.SW("component", serviceName)
	serverCfg.ShutdownTimeout = shutdownTimeout
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(reportTaskError)

	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// reportTaskError 记录失败任务；未支付的会话属于预期重试
func reportTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	fields := []interface{}{"task", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err}
	if errors.Is(err, ErrCheckoutPending) && retried < maxRetry {
		logger.Debugw("worker_task_retry", fields...)
		return
	}
	logger.Warnw("worker_task_failed", fields...)
}

// Name 服务名称
func (s *Service) Name() string {
	return serviceName
}

// Start 启动消费并阻塞到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker: not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务结束后退出
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
