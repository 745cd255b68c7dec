package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	block    bool

	mu      sync.Mutex
	stopped *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	f.mu.Lock()
	*f.stopped = append(*f.stopped, f.name)
	f.mu.Unlock()
	return f.stopErr
}

func TestRunnerStopsInReverseOrderOnCancel(t *testing.T) {
	var stopped []string
	http := &fakeService{name: "http", block: true, stopped: &stopped}
	janitor := &fakeService{name: "session-janitor", block: true, stopped: &stopped}
	runner := NewRunner(http, nil, janitor)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if len(stopped) != 2 || stopped[0] != "session-janitor" || stopped[1] != "http" {
		t.Fatalf("unexpected stop order: %v", stopped)
	}
}

func TestRunnerReportsFailingService(t *testing.T) {
	var stopped []string
	boom := errors.New("listen failed")
	failing := &fakeService{name: "http", startErr: boom, stopped: &stopped}
	worker := &fakeService{name: "worker", block: true, stopErr: errors.New("shutdown timeout"), stopped: &stopped}

	err := NewRunner(failing, worker).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if len(stopped) != 2 {
		t.Fatalf("all services should be stopped, got %v", stopped)
	}
	if err.Error() == boom.Error() {
		t.Fatalf("stop error should be joined: %v", err)
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker, "all": ModeAll}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	if !ModeAll.servesAPI() || !ModeAll.runsWorker() || ModeAPI.runsWorker() || ModeWorker.servesAPI() {
		t.Fatalf("unexpected mode capabilities")
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	if opts.Logger == nil || opts.ShutdownTimeout != defaultShutdownTimeout {
		t.Fatalf("defaults not applied: %+v", opts)
	}
}
