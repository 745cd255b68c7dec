package session

import (
	"context"
	"time"
)

const defaultSweepInterval = time.Minute

// Janitor 定期回收空闲会话视图的后台服务
type Janitor struct {
	manager  *Manager
	interval time.Duration
	done     chan struct{}
}

// NewJanitor 创建回收服务
func NewJanitor(manager *Manager, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Janitor{manager: manager, interval: interval, done: make(chan struct{})}
}

// Name 服务名称
func (j *Janitor) Name() string {
	return "session-janitor"
}

// Start 按间隔执行回收直到 ctx 结束
func (j *Janitor) Start(ctx context.Context) error {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			j.manager.Sweep(now)
		}
	}
}

// Stop 等待循环退出后关闭所有视图
func (j *Janitor) Stop(ctx context.Context) error {
	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	j.manager.Close()
	return nil
}
