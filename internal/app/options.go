package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ayokah-next/internal/config"
	"github.com/ayokah-next/internal/logger"

	"go.uber.org/zap"
)

// Mode 进程运行模式
type Mode string

// api 提供 HTTP 接口，worker 消费支付核验任务，all 两者同时运行
const (
	ModeAll    Mode = "all"
	ModeAPI    Mode = "api"
	ModeWorker Mode = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// ParseMode 解析命令行模式，空值视为 all
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	}
	return "", fmt.Errorf("unknown mode: %q", raw)
}

func (m Mode) servesAPI() bool  { return m == ModeAll || m == ModeAPI }
func (m Mode) runsWorker() bool { return m == ModeAll || m == ModeWorker }

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.S()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	return o
}
