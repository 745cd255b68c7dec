package debounce

import (
	"context"
	"sync"
	"time"
)

// Func 防抖后执行的函数，gen 为本次触发的代数
type Func func(ctx context.Context, gen uint64)

// Debouncer 定时防抖 + 单调递增代数 + 取消过期请求
//
// 每次 Trigger 都会使之前尚未触发的定时器失效，并取消仍在执行的上一代请求。
// 调用方在写回结果前应持有自己的锁并用 IsCurrent 判断代数。
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	gen       uint64
	settled   uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	waiters   []chan struct{}
	closed    bool
	onReplace func()
}

// New 创建防抖器，delay <= 0 时立即执行
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// OnSupersede 注册被替换时的回调（用于指标）
func (d *Debouncer) OnSupersede(fn func()) {
	d.mu.Lock()
	d.onReplace = fn
	d.mu.Unlock()
}

// Trigger 安排一次执行并返回新代数；关闭后返回 0 且不执行
func (d *Debouncer) Trigger(fn Func) uint64 {
	return d.schedule(fn, d.delay)
}

// Now 跳过等待立即执行（仍参与代数与取消）
func (d *Debouncer) Now(fn Func) uint64 {
	return d.schedule(fn, 0)
}

func (d *Debouncer) schedule(fn Func, delay time.Duration) uint64 {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0
	}
	superseded := d.stopLocked()
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	onReplace := d.onReplace
	run := func() {
		defer d.settle(gen)
		if ctx.Err() != nil {
			return
		}
		fn(ctx, gen)
	}
	if delay <= 0 {
		d.timer = nil
		d.mu.Unlock()
		go run()
	} else {
		d.timer = time.AfterFunc(delay, run)
		d.mu.Unlock()
	}
	if superseded && onReplace != nil {
		onReplace()
	}
	return gen
}

// stopLocked 停止定时器并取消上一代，返回是否真的替换了未完成的工作
func (d *Debouncer) stopLocked() bool {
	pending := d.settled < d.gen
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return pending
}

// settle 标记某代结束；被替换的旧代也会走到这里但不会推进 settled 超过最新代
func (d *Debouncer) settle(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen > d.settled {
		d.settled = gen
	}
	if d.settled < d.gen {
		return
	}
	for _, ch := range d.waiters {
		close(ch)
	}
	d.waiters = nil
}

// IsCurrent 判断 gen 是否仍为最新代
func (d *Debouncer) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && gen == d.gen
}

// Generation 当前代数
func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Pending 是否有尚未结束的代
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled < d.gen
}

// Wait 阻塞直到最新代结束（期间再次触发会继续等待新的最新代）
func (d *Debouncer) Wait(ctx context.Context) error {
	d.mu.Lock()
	if d.settled >= d.gen || d.closed {
		d.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	d.waiters = append(d.waiters, ch)
	d.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel 取消尚未执行与正在执行的请求，等待者立即返回
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.settled = d.gen
	for _, ch := range d.waiters {
		close(ch)
	}
	d.waiters = nil
}

// Close 取消所有工作，之后的 Trigger 不再执行
func (d *Debouncer) Close() {
	d.Cancel()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
