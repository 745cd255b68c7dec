package app

import (
	"errors"

	"github.com/ayokah-next/internal/config"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/provider"
	"github.com/ayokah-next/internal/router"
	"github.com/ayokah-next/internal/session"
	"github.com/ayokah-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode Mode) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP 服务与会话回收
	if mode.servesAPI() {
		engine := router.SetupRouter(cfg, container)
		services = append(services,
			NewHTTPService(cfg.Server.Addr(), engine),
			session.NewJanitor(container.Sessions, container.SweepInterval()),
		)
	}

	// 支付核验 Worker；队列未启用时仅记录日志
	if mode.runsWorker() {
		consumer := worker.NewConsumer(container.Verifier)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		switch {
		case errors.Is(err, worker.ErrQueueDisabled):
			logger.Warnw("worker_skipped", "reason", "queue_disabled", "mode", mode)
		case err != nil:
			return nil, err
		default:
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return err
	}

	runner, err := BuildRunner(opts.Config, mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", mode)
	return RunWithOptions(runner, opts)
}
