package queue

import (
	"strings"
	"time"

	"github.com/ayokah-next/internal/config"
	"github.com/ayokah-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 支付校验等高优先级任务
	CriticalQueue = constants.QueueCritical

	defaultConcurrency   = 10
	checkoutVerifyRetry  = 5
	checkoutVerifyPrefix = "checkout-verify:"
)

// Client 任务投递端；队列未启用时所有投递静默跳过
type Client struct {
	inner *asynq.Client
}

// NewClient 按配置创建投递端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 是否真正投递
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 释放连接
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueCheckoutVerify 延迟投递支付会话校验；同一 ref 只保留一个待执行任务
func (c *Client) EnqueueCheckoutVerify(payload CheckoutVerifyPayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCheckoutVerifyTask(payload)
	if err != nil {
		return err
	}
	_, err = c.inner.Enqueue(task, checkoutVerifyOptions(payload, delay)...)
	return err
}

func checkoutVerifyOptions(payload CheckoutVerifyPayload, delay time.Duration) []asynq.Option {
	if delay < 0 {
		delay = 0
	}
	opts := []asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(checkoutVerifyRetry),
	}
	if ref := strings.TrimSpace(payload.Ref); ref != "" {
		opts = append(opts, asynq.TaskID(checkoutVerifyPrefix+ref))
	}
	return opts
}

// BuildServerConfig 消费端连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 2},
	}
	if cfg == nil {
		return redisOpt(&config.QueueConfig{}), serverCfg
	}
	if cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
